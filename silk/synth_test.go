package silk

import (
	"errors"
	"fmt"
	"testing"
)

// TestSynthesizerReproducesQuantizer decodes the pulses of every quantizer
// configuration and checks the result against the quantizer's own
// reconstruction, sample for sample.
func TestSynthesizerReproducesQuantizer(t *testing.T) {
	configs := []struct {
		states  int
		delay   int
		warping int32
	}{
		{1, 0, 0},
		{1, DecisionDelay, 0},
		{2, DecisionDelay, WarpingQ16(16)},
		{4, DecisionDelay, WarpingQ16(16)},
		{4, 8, 0},
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("states=%d/delay=%d", cfg.states, cfg.delay), func(t *testing.T) {
			params := testFrameSequence(9)
			x := testInput(9*320, 41, 6000)
			var q Quantizer = SimpleQuantizer{}
			if cfg.states > 1 || cfg.delay > 0 {
				q = DelDecQuantizer{}
			}

			nsq := NewNSQState()
			syn := NewSynthesizer()
			pos := 0
			for f, p := range params {
				p.NStatesDelayedDecision = cfg.states
				p.DecisionDelay = cfg.delay
				p.WarpingQ16 = cfg.warping
				out, err := q.Quantize(nsq, x[pos:pos+p.FrameLength], p)
				if err != nil {
					t.Fatalf("frame %d: %v", f, err)
				}
				pos += p.FrameLength

				y, err := syn.Synthesize(out.Pulses, out.Seed, p)
				if err != nil {
					t.Fatalf("frame %d: Synthesize: %v", f, err)
				}
				for i := range y {
					if y[i] != out.Xq[i] {
						t.Fatalf("frame %d sample %d: synthesized %d, quantizer %d", f, i, y[i], out.Xq[i])
					}
				}
			}
		})
	}
}

func TestSynthesizerRejectsBadPulses(t *testing.T) {
	p := newTestParams(SignalUnvoiced)
	syn := NewSynthesizer()

	pulses := make([]int8, p.FrameLength)
	pulses[17] = 65
	if _, err := syn.Synthesize(pulses, 0, p); !errors.Is(err, ErrPulseOverflow) {
		t.Errorf("level 65: got %v, want ErrPulseOverflow", err)
	}
	if _, err := syn.Synthesize(pulses[:10], 0, p); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("short pulses: got %v, want ErrInvalidParams", err)
	}
}

func TestSynthesizerReset(t *testing.T) {
	p := newTestParams(SignalVoiced)
	nsq := NewNSQState()
	out, err := NoiseShapeQuantize(nsq, testInput(p.FrameLength, 8, 4000), p)
	if err != nil {
		t.Fatalf("NoiseShapeQuantize: %v", err)
	}
	out = cloneOutput(out)

	syn := NewSynthesizer()
	first, err := syn.Synthesize(out.Pulses, out.Seed, p)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	first = append([]int16(nil), first...)

	syn.Reset()
	again, err := syn.Synthesize(out.Pulses, out.Seed, p)
	if err != nil {
		t.Fatalf("Synthesize after Reset: %v", err)
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("sample %d: got %d after Reset, want %d", i, again[i], first[i])
		}
	}
}
