package silknsq

import (
	"errors"
	"slices"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{-1, -32768},
		{1, 32767},
		{2, 32767},
		{-2, -32768},
		{1.5 / 32768, 2},
		{2.5 / 32768, 2},
	}
	for _, tt := range tests {
		if got := float32ToInt16(tt.in); got != tt.want {
			t.Errorf("float32ToInt16(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuantizeFloat32MatchesInt16(t *testing.T) {
	cfg := DefaultConfig(12000)
	cfg.LBRR = true
	ch, b, x := channelFixture(t, cfg, 3)
	ref, err := NewChannel(cfg)
	if err != nil {
		t.Fatal(err)
	}
	n := ch.FrameLength()
	pcm := make([]float32, n)

	for f := 0; f < 3; f++ {
		frame := x[f*n : (f+1)*n]
		for i, v := range frame {
			pcm[i] = float32(v) / 32768
		}
		p := ch.Params()
		if err := b.Fill(f, frame, p); err != nil {
			t.Fatal(err)
		}
		got, err := ch.QuantizeFloat32(pcm, p)
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		gotPulses := slices.Clone(got.Pulses)
		want, err := ref.Quantize(frame, p)
		if err != nil {
			t.Fatalf("frame %d: reference: %v", f, err)
		}
		if !slices.Equal(gotPulses, want.Pulses) {
			t.Fatalf("frame %d: float and int16 paths differ", f)
		}

		gotLBRR, err := ch.QuantizeLBRRFloat32(p)
		if err != nil {
			t.Fatalf("frame %d: lbrr: %v", f, err)
		}
		gotLBRRPulses := slices.Clone(gotLBRR.Pulses)
		wantLBRR, err := ref.QuantizeLBRR(frame, p)
		if err != nil {
			t.Fatalf("frame %d: reference lbrr: %v", f, err)
		}
		if !slices.Equal(gotLBRRPulses, wantLBRR.Pulses) {
			t.Fatalf("frame %d: float and int16 lbrr paths differ", f)
		}
	}

	if _, err := ch.QuantizeFloat32(pcm[:n-1], ch.Params()); !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("short frame: got %v, want %v", err, ErrGeometryMismatch)
	}
}

func TestQuantizeLBRRFloat32AfterInt16Frame(t *testing.T) {
	cfg := DefaultConfig(16000)
	cfg.LBRR = true
	ch, b, x := channelFixture(t, cfg, 3)
	ref, err := NewChannel(cfg)
	if err != nil {
		t.Fatal(err)
	}
	n := ch.FrameLength()
	pcm := make([]float32, n)

	for f := 0; f < 3; f++ {
		frame := x[f*n : (f+1)*n]
		p := ch.Params()
		if err := b.Fill(f, frame, p); err != nil {
			t.Fatal(err)
		}
		// Alternate the input paths so the LBRR copy follows whichever ran last.
		if f%2 == 0 {
			_, err = ch.Quantize(frame, p)
		} else {
			for i, v := range frame {
				pcm[i] = float32(v) / 32768
			}
			_, err = ch.QuantizeFloat32(pcm, p)
		}
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		if _, err := ref.Quantize(frame, p); err != nil {
			t.Fatalf("frame %d: reference: %v", f, err)
		}

		got, err := ch.QuantizeLBRRFloat32(p)
		if err != nil {
			t.Fatalf("frame %d: lbrr: %v", f, err)
		}
		gotPulses := slices.Clone(got.Pulses)
		want, err := ref.QuantizeLBRR(frame, p)
		if err != nil {
			t.Fatalf("frame %d: reference lbrr: %v", f, err)
		}
		if !slices.Equal(gotPulses, want.Pulses) {
			t.Fatalf("frame %d: lbrr copy did not use the last quantized frame", f)
		}
	}
}
