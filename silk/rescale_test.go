package silk

import (
	"math"
	"testing"
)

func TestMAPredictionImpulse(t *testing.T) {
	in := make([]int16, 8)
	in[0] = 1000
	out := make([]int16, 8)
	bQ12 := []int16{2048, 1024}
	maPrediction(in, bQ12, out)

	want := []int16{1000, -500, -250, 0, 0, 0, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestScaleStatesUnchangedGain(t *testing.T) {
	p := newTestParams(SignalUnvoiced)
	nsq := NewNSQState()
	nsq.beginFrame(p.FrameLength)
	x := testInput(p.SubfrLength, 1, 3000)

	inv, adj := nsq.scaleStates(x, p, 0, nil)
	if want := silkINVERSE32_varQ(p.GainsQ16[0], 32); inv != want {
		t.Fatalf("invGainQ16: got %d, want %d", inv, want)
	}
	if adj == unityQ16 {
		t.Fatalf("first subframe: gain adjustment is unity, want a change from the reset gain")
	}

	nsq.sLFARShpQ12 = 12345
	nsq.lpc[5] = -777
	nsq.shp[p.FrameLength-1] = 4242
	_, adj = nsq.scaleStates(x, p, 1, nil)
	if adj != unityQ16 {
		t.Fatalf("same gain: got adjustment %d, want %d", adj, unityQ16)
	}
	if nsq.sLFARShpQ12 != 12345 || nsq.lpc[5] != -777 || nsq.shp[p.FrameLength-1] != 4242 {
		t.Errorf("states changed without a gain change")
	}
	for i := 0; i < p.SubfrLength; i++ {
		if want := silkSMULBB(int32(x[i]), inv) >> 6; nsq.xScQ10[i] != want {
			t.Fatalf("xScQ10[%d] = %d, want %d", i, nsq.xScQ10[i], want)
		}
	}
}

func TestScaleStatesClampsInverseGain(t *testing.T) {
	p := newTestParams(SignalUnvoiced)
	p.GainsQ16[0] = 1 << 16
	nsq := NewNSQState()
	nsq.beginFrame(p.FrameLength)
	inv, _ := nsq.scaleStates(testInput(p.SubfrLength, 2, 100), p, 0, nil)
	if inv != math.MaxInt16 {
		t.Errorf("unity gain: got invGainQ16 %d, want %d", inv, math.MaxInt16)
	}
}

// TestRewhiteningResetsLTPWindow steps the gain at the mid-frame re-whitening
// boundary and checks that the LTP window below the frame start holds the
// freshly filtered reconstruction scaled by the new inverse gain only.
func TestRewhiteningResetsLTPWindow(t *testing.T) {
	for _, q := range []Quantizer{SimpleQuantizer{}, DelDecQuantizer{}} {
		t.Run(q.Name(), func(t *testing.T) {
			p := newTestParams(SignalVoiced)
			p.NLSFInterpCoefQ2 = 1
			p.NStatesDelayedDecision = 2
			p.PitchL = [NbSubfr]int{100, 100, 100, 100}
			p.GainsQ16 = [NbSubfr]int32{30 << 16, 30 << 16, 75 << 16, 75 << 16}

			nsq := NewNSQState()
			x := testInput(2*p.FrameLength, 3, 4000)
			warm := *p
			warm.GainsQ16 = [NbSubfr]int32{30 << 16, 30 << 16, 30 << 16, 30 << 16}
			if _, err := q.Quantize(nsq, x[:p.FrameLength], &warm); err != nil {
				t.Fatalf("warm-up frame: %v", err)
			}
			out, err := q.Quantize(nsq, x[p.FrameLength:], p)
			if err != nil {
				t.Fatalf("Quantize: %v", err)
			}
			if !p.rewhitenAt(2) {
				t.Fatalf("test setup: subframe 2 must re-whiten")
			}

			n, lag, order := p.FrameLength, p.PitchL[2], p.PredLPCOrder
			start := n - lag - order - LTPOrder/2
			raw := make([]int16, n-start)
			maPrediction(out.Xq[start+2*p.SubfrLength-n:], p.predCoefs(2), raw)

			invGainQ32 := min(silkINVERSE32_varQ(p.GainsQ16[2], 32), math.MaxInt16) << 16
			for i := n - lag - LTPOrder/2; i < n; i++ {
				want := silkSMULWB(invGainQ32, int32(raw[i-start]))
				if nsq.ltpQ16[i] != want {
					t.Fatalf("ltpQ16[%d] = %d, want %d", i, nsq.ltpQ16[i], want)
				}
			}
		})
	}
}
