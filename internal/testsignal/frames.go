package testsignal

import (
	"fmt"
	"math"

	"github.com/thesyncim/silknsq/silk"
)

// Voicing selects which frames a FrameBuilder marks voiced.
type Voicing int

const (
	VoicingAlternate Voicing = iota // two voiced frames, then one unvoiced
	VoicingAlways
	VoicingNever
)

// FrameBuilder derives plausible quantizer parameters for consecutive 20 ms
// frames of a signal: stable predictors, LTP taps, shaping filters and gains
// that follow the frame energy. It stands in for the analysis stages of an
// encoder in tests, benchmarks and the trace tool.
type FrameBuilder struct {
	SampleRate    int
	PredLPCOrder  int
	ShapeLPCOrder int
	Voicing       Voicing

	// Interpolate enables NLSF interpolation on odd frames.
	Interpolate bool

	// GainStep doubles the gains of the second half of voiced frames.
	GainStep bool
}

// Reflection coefficient sets the predictors are built from.
var reflectionSets = [3]struct{ first, decay float64 }{
	{0.85, 0.60},
	{0.70, 0.70},
	{0.90, 0.50},
}

// NewFrameBuilder returns a builder for one of the SILK internal rates.
func NewFrameBuilder(sampleRate int) (*FrameBuilder, error) {
	switch sampleRate {
	case 8000, 12000:
		return &FrameBuilder{SampleRate: sampleRate, PredLPCOrder: 10, ShapeLPCOrder: 16}, nil
	case 16000, 24000:
		return &FrameBuilder{SampleRate: sampleRate, PredLPCOrder: 16, ShapeLPCOrder: 16}, nil
	default:
		return nil, fmt.Errorf("unsupported sample rate: %d", sampleRate)
	}
}

// FrameLength returns the samples per frame.
func (b *FrameBuilder) FrameLength() int {
	return 20 * b.SampleRate / 1000
}

// Voiced reports whether frame is voiced.
func (b *FrameBuilder) Voiced(frame int) bool {
	switch b.Voicing {
	case VoicingAlways:
		return true
	case VoicingNever:
		return false
	default:
		return frame%3 != 2
	}
}

// Fill writes the geometry and per-frame coefficients of frame into p. The
// delayed-decision fields are left untouched.
func (b *FrameBuilder) Fill(frame int, x []int16, p *silk.NSQParams) error {
	n := b.FrameLength()
	if len(x) < n {
		return fmt.Errorf("frame %d: got %d samples, want %d", frame, len(x), n)
	}
	subfr := n / silk.NbSubfr
	fsKHz := b.SampleRate / 1000

	p.FrameLength = n
	p.SubfrLength = subfr
	p.PredLPCOrder = b.PredLPCOrder
	p.ShapeLPCOrder = b.ShapeLPCOrder

	st := silk.SignalUnvoiced
	if b.Voiced(frame) {
		st = silk.SignalVoiced
	}
	p.SignalType = st
	p.QuantOffsetQ10 = silk.QuantizationOffset(st, frame&1)
	p.Seed = int32(frame & 3)
	p.LTPScaleQ14 = [3]int32{15565, 12288, 8192}[frame%3]
	p.LambdaQ10 = 1300
	if st == silk.SignalVoiced {
		p.LambdaQ10 = 1000
	}

	set := frame % len(reflectionSets)
	predictorQ(reflectionSets[set].first, reflectionSets[set].decay, 1, 12, p.PredCoefQ12[silk.MaxLPCOrder:silk.MaxLPCOrder+b.PredLPCOrder])
	p.NLSFInterpCoefQ2 = 4
	if b.Interpolate && frame%2 == 1 {
		p.NLSFInterpCoefQ2 = 1 + frame%3
		prev := (frame + 1) % len(reflectionSets)
		predictorQ(reflectionSets[prev].first, reflectionSets[prev].decay, 1, 12, p.PredCoefQ12[:b.PredLPCOrder])
	} else {
		copy(p.PredCoefQ12[:silk.MaxLPCOrder], p.PredCoefQ12[silk.MaxLPCOrder:])
	}

	ltpScale := 0.8 + 0.05*float64(frame%3)
	lfMAQ14 := int16(-14746) // -0.9 in Q14
	lfARQ14 := int32(14418)  // 0.88 in Q14
	baseLag := 8*fsKHz + frame%5 - 2
	maxLag := silk.MaxPitchLag(n, b.PredLPCOrder)
	for k := 0; k < silk.NbSubfr; k++ {
		predictorQ(reflectionSets[set].first, reflectionSets[set].decay, 0.94, 13,
			p.ARShpQ13[k*silk.MaxShapeLPCOrder:k*silk.MaxShapeLPCOrder+b.ShapeLPCOrder])
		for i, tap := range [silk.LTPOrder]float64{400, 1800, 7000, 1800, 400} {
			p.LTPCoefQ14[k*silk.LTPOrder+i] = int16(tap * ltpScale)
		}
		p.LFShpQ14[k] = lfARQ14<<16 | int32(uint16(lfMAQ14))

		gain := max(subframeRMS(x[k*subfr:(k+1)*subfr])/3, 2)
		if b.GainStep && st == silk.SignalVoiced && k >= silk.NbSubfr/2 {
			gain *= 2
		}
		p.GainsQ16[k] = int32(min(gain, 4000) * 65536)

		if st == silk.SignalVoiced {
			p.HarmShapeGainQ14[k] = 4915
			p.TiltQ14[k] = -4096
			p.PitchL[k] = min(max(baseLag+k, silk.MinPitchLag), maxLag)
		} else {
			p.HarmShapeGainQ14[k] = 0
			p.TiltQ14[k] = -5734
			p.PitchL[k] = 0
		}
	}
	return nil
}

// predictorQ converts the reflection coefficients first*(-decay)^m to a
// direct-form predictor, applies bandwidth expansion by chirp and writes it
// in Q(q). Reflection coefficients below one in magnitude keep it stable.
func predictorQ(first, decay, chirp float64, q int, out []int16) {
	var a, prev [silk.MaxLPCOrder]float64
	k := first
	for m := range out {
		prev = a
		for i := 0; i < m; i++ {
			a[i] = prev[i] - k*prev[m-1-i]
		}
		a[m] = k
		k *= -decay
	}
	scale := float64(int(1) << q)
	c := chirp
	for i := range out {
		v := math.Round(a[i] * c * scale)
		out[i] = int16(min(max(v, math.MinInt16), math.MaxInt16))
		c *= chirp
	}
}

func subframeRMS(x []int16) float64 {
	var energy float64
	for _, v := range x {
		energy += float64(v) * float64(v)
	}
	return math.Sqrt(energy / float64(len(x)))
}
