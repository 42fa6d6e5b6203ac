package testsignal

import (
	"testing"

	"github.com/thesyncim/silknsq/silk"
)

func TestGenerateSignalDeterministic(t *testing.T) {
	for _, variant := range SignalVariants() {
		a, err := GenerateSignal(variant, 16000, 3200)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		b, err := GenerateSignal(variant, 16000, 3200)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		if len(a) != 3200 {
			t.Fatalf("%s: got %d samples, want 3200", variant, len(a))
		}
		if HashInt16LE(a) != HashInt16LE(b) {
			t.Errorf("%s: two runs differ", variant)
		}
	}
}

func TestGenerateSignalSilence(t *testing.T) {
	x, err := GenerateSignal(VariantSilence, 8000, 160)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range x {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0", i, v)
		}
	}
}

func TestGenerateSignalErrors(t *testing.T) {
	if _, err := GenerateSignal("nope", 16000, 10); err == nil {
		t.Error("unknown variant: got nil error")
	}
	if _, err := GenerateSignal(VariantSpeechLikeV1, 0, 10); err == nil {
		t.Error("zero rate: got nil error")
	}
	if _, err := GenerateSignal(VariantSpeechLikeV1, 16000, 0); err == nil {
		t.Error("zero samples: got nil error")
	}
}

func TestFrameBuilderProducesValidParams(t *testing.T) {
	for _, rate := range []int{8000, 12000, 16000, 24000} {
		b, err := NewFrameBuilder(rate)
		if err != nil {
			t.Fatalf("NewFrameBuilder(%d): %v", rate, err)
		}
		b.Interpolate = true
		b.GainStep = true
		n := b.FrameLength()
		x, err := GenerateSignal(VariantSpeechLikeV1, rate, 9*n)
		if err != nil {
			t.Fatal(err)
		}
		var p silk.NSQParams
		for f := 0; f < 9; f++ {
			if err := b.Fill(f, x[f*n:(f+1)*n], &p); err != nil {
				t.Fatalf("rate %d frame %d: %v", rate, f, err)
			}
			if err := p.Validate(); err != nil {
				t.Fatalf("rate %d frame %d: %v", rate, f, err)
			}
			if want := b.Voiced(f); (p.SignalType == silk.SignalVoiced) != want {
				t.Errorf("rate %d frame %d: voiced %v, want %v", rate, f, p.SignalType == silk.SignalVoiced, want)
			}
		}
	}
}

func TestNewFrameBuilderRejectsRate(t *testing.T) {
	if _, err := NewFrameBuilder(44100); err == nil {
		t.Error("44100 Hz: got nil error")
	}
}
