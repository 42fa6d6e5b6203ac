package silk

import (
	"math"
	"math/rand"
	"testing"
)

// Stable coefficient sets: the absolute coefficients of each sum below one.
var (
	testPredQ12A = [MaxLPCOrder]int16{2400, -800, 400, -200, 100, -60, 40, -20, 10, -8, 6, -4, 3, -2, 1, -1}
	testPredQ12B = [MaxLPCOrder]int16{2000, -600, 300, -150, 80, -40, 20, -10, 8, -6, 4, -3, 2, -1, 1, 0}
	testARShpQ13 = [MaxShapeLPCOrder]int16{4000, -1500, 800, -300, 150, -80, 40, -20, 10, -6, 4, -3, 2, -1, 1, 0}
	testLTPQ14   = [LTPOrder]int16{500, 2000, 6000, 2000, 500}
)

// newTestParams returns a 20 ms frame at 16 kHz with moderate shaping.
func newTestParams(signalType SignalType) *NSQParams {
	p := &NSQParams{
		SignalType:             signalType,
		QuantOffsetQ10:         QuantizationOffset(signalType, 0),
		NLSFInterpCoefQ2:       4,
		LambdaQ10:              1100,
		LTPScaleQ14:            15565,
		Seed:                   1,
		FrameLength:            320,
		SubfrLength:            80,
		PredLPCOrder:           16,
		ShapeLPCOrder:          16,
		NStatesDelayedDecision: 1,
		DecisionDelay:          DecisionDelay,
	}
	copy(p.PredCoefQ12[:MaxLPCOrder], testPredQ12B[:])
	copy(p.PredCoefQ12[MaxLPCOrder:], testPredQ12A[:])
	lfMAQ14 := int16(-14745)
	for k := 0; k < NbSubfr; k++ {
		copy(p.LTPCoefQ14[k*LTPOrder:], testLTPQ14[:])
		copy(p.ARShpQ13[k*MaxShapeLPCOrder:], testARShpQ13[:])
		p.TiltQ14[k] = -4096
		p.LFShpQ14[k] = 14582<<16 | int32(uint16(lfMAQ14))
		p.GainsQ16[k] = 40 << 16
		if signalType == SignalVoiced {
			p.HarmShapeGainQ14[k] = 4915
			p.PitchL[k] = 100 + k%2
		}
	}
	return p
}

// testInput returns n samples of a two-tone signal with light noise.
func testInput(n int, seed int64, amp float64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]int16, n)
	for i := range x {
		v := amp*math.Sin(2*math.Pi*160*float64(i)/16000) +
			0.4*amp*math.Sin(2*math.Pi*1130*float64(i)/16000) +
			0.05*amp*(rng.Float64()*2-1)
		x[i] = int16(max(min(v, math.MaxInt16), math.MinInt16))
	}
	return x
}

// quantizeFrames runs the given quantizer over consecutive frames of x.
func quantizeFrames(t *testing.T, nsq *NSQState, q Quantizer, x []int16, params []*NSQParams) []NSQOutput {
	t.Helper()
	outs := make([]NSQOutput, len(params))
	pos := 0
	for f, p := range params {
		out, err := q.Quantize(nsq, x[pos:pos+p.FrameLength], p)
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		outs[f] = cloneOutput(out)
		pos += p.FrameLength
	}
	return outs
}

func cloneOutput(out NSQOutput) NSQOutput {
	out.Pulses = append([]int8(nil), out.Pulses...)
	out.Xq = append([]int16(nil), out.Xq...)
	return out
}

// testFrameSequence alternates voiced and unvoiced frames with varying gains
// and interpolation.
func testFrameSequence(frames int) []*NSQParams {
	params := make([]*NSQParams, frames)
	for f := range params {
		st := SignalVoiced
		if f%3 == 2 {
			st = SignalUnvoiced
		}
		p := newTestParams(st)
		p.Seed = int32(f & 3)
		if f%2 == 1 {
			p.NLSFInterpCoefQ2 = 2
		}
		for k := 0; k < NbSubfr; k++ {
			p.GainsQ16[k] = int32(30+7*((f+k)%4)) << 16
		}
		params[f] = p
	}
	return params
}

// carriedStateEqual compares the state a frame leaves for the next one.
func carriedStateEqual(a, b *NSQState) bool {
	return a.xq == b.xq && a.shp == b.shp &&
		[nsqLPCBufLength]int32(a.lpc[:nsqLPCBufLength]) == [nsqLPCBufLength]int32(b.lpc[:nsqLPCBufLength]) &&
		a.sAR2Q14 == b.sAR2Q14 && a.sLFARShpQ12 == b.sLFARShpQ12 &&
		a.lagPrev == b.lagPrev && a.prevInvGainQ16 == b.prevInvGainQ16 &&
		a.randSeed == b.randSeed
}
