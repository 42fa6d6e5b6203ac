package silk

import (
	"errors"
	"testing"
)

func TestQuantizerForComplexity(t *testing.T) {
	tests := []struct {
		complexity int
		name       string
		states     int
		shapeOrder int
		warping    bool
	}{
		{0, "simple", 1, 8, false},
		{1, "delayed-decision", 2, 12, true},
		{2, "delayed-decision", 4, 16, true},
	}
	for _, tc := range tests {
		q, err := QuantizerForComplexity(tc.complexity)
		if err != nil {
			t.Fatalf("complexity %d: %v", tc.complexity, err)
		}
		if q.Name() != tc.name {
			t.Errorf("complexity %d: quantizer %q, want %q", tc.complexity, q.Name(), tc.name)
		}
		s, err := SettingsForComplexity(tc.complexity)
		if err != nil {
			t.Fatalf("complexity %d: %v", tc.complexity, err)
		}
		if s.NStatesDelayedDecision != tc.states || s.ShapeLPCOrder != tc.shapeOrder || s.Warping != tc.warping {
			t.Errorf("complexity %d: got %+v", tc.complexity, s)
		}
	}

	for _, c := range []int{-1, MaxComplexity + 1} {
		if _, err := QuantizerForComplexity(c); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("complexity %d: got %v, want ErrInvalidParams", c, err)
		}
	}
}

func TestQuantizationOffset(t *testing.T) {
	tests := []struct {
		signalType SignalType
		offsetType int
		want       int32
	}{
		{SignalUnvoiced, 0, 100},
		{SignalUnvoiced, 1, 256},
		{SignalVoiced, 0, 32},
		{SignalVoiced, 1, 100},
		{SignalVoiced, 7, 100},
	}
	for _, tc := range tests {
		if got := QuantizationOffset(tc.signalType, tc.offsetType); got != tc.want {
			t.Errorf("QuantizationOffset(%v, %d) = %d, want %d", tc.signalType, tc.offsetType, got, tc.want)
		}
	}
}

func TestWarpingQ16(t *testing.T) {
	if got := WarpingQ16(16); got != 16*983 {
		t.Errorf("WarpingQ16(16) = %d, want %d", got, 16*983)
	}
}
