package silk

import "math"

// NSQParams holds the per-frame inputs of the noise shaping quantizers.
//
// Coefficient arrays are laid out per subframe: LTPCoefQ14 holds LTPOrder taps
// per subframe and ARShpQ13 holds MaxShapeLPCOrder taps per subframe, of which
// the first ShapeLPCOrder are used. PredCoefQ12 holds two predictor sets of
// MaxLPCOrder coefficients; the first is used by the first half of the frame
// when NLSF interpolation is active.
type NSQParams struct {
	SignalType SignalType

	// QuantOffsetQ10 is the quantization offset, normally taken from
	// QuantizationOffset.
	QuantOffsetQ10 int32

	PredCoefQ12      [2 * MaxLPCOrder]int16
	NLSFInterpCoefQ2 int // 4 means no interpolation
	LTPCoefQ14       [NbSubfr * LTPOrder]int16
	ARShpQ13         [NbSubfr * MaxShapeLPCOrder]int16
	HarmShapeGainQ14 [NbSubfr]int32
	TiltQ14          [NbSubfr]int32
	LFShpQ14         [NbSubfr]int32 // MA part in the low half, AR part in the high half
	GainsQ16         [NbSubfr]int32
	PitchL           [NbSubfr]int

	LambdaQ10   int32
	LTPScaleQ14 int32
	Seed        int32

	// Frame geometry
	FrameLength   int
	SubfrLength   int
	PredLPCOrder  int
	ShapeLPCOrder int

	// Delayed-decision search
	NStatesDelayedDecision int
	DecisionDelay          int
	WarpingQ16             int32
}

// NSQOutput is the result of quantizing one frame. The slices alias buffers
// owned by the NSQState and stay valid until its next use.
type NSQOutput struct {
	Pulses []int8
	Xq     []int16

	// Seed is the dither seed a decoder must start the frame with.
	Seed int32

	// RDQ10 is the accumulated rate-distortion cost of the chosen levels.
	RDQ10 int32
}

// MaxPitchLag returns the largest pitch lag the re-whitening window of a frame
// can hold.
func MaxPitchLag(frameLength, predLPCOrder int) int {
	return frameLength - predLPCOrder - LTPOrder/2
}

// maxCarriedLag is the largest previous-frame lag the harmonic shaping filter
// of an unvoiced frame can reach back with. Unlike MaxPitchLag it does not
// depend on the predictor order, since unvoiced frames never re-whiten.
func maxCarriedLag(frameLength int) int {
	return frameLength - HarmShapeFIRTaps/2 - 1
}

func (p *NSQParams) lsfInterpolation() bool {
	return p.NLSFInterpCoefQ2 < 4
}

// predCoefs returns the short-term predictor for subframe k.
func (p *NSQParams) predCoefs(k int) []int16 {
	set := k >> 1
	if !p.lsfInterpolation() {
		set = 1
	}
	return p.PredCoefQ12[set*MaxLPCOrder : set*MaxLPCOrder+p.PredLPCOrder]
}

// rewhitenAt reports whether a voiced frame re-whitens the LTP state before
// subframe k.
func (p *NSQParams) rewhitenAt(k int) bool {
	mask := 3
	if p.lsfInterpolation() {
		mask = 1
	}
	return k&mask == 0
}

func (p *NSQParams) harmShapeFIRPackedQ14(k int) int32 {
	g := p.HarmShapeGainQ14[k]
	return (g >> 2) | ((g >> 1) << 16)
}

// Validate checks the frame parameters shared by both quantizers.
func (p *NSQParams) Validate() error {
	if p.SignalType != SignalUnvoiced && p.SignalType != SignalVoiced {
		return preconditionf("SignalType", "got %d", int(p.SignalType))
	}
	switch p.SubfrLength {
	case 40, 60, 80, 120:
	default:
		return preconditionf("SubfrLength", "got %d, want 40, 60, 80 or 120", p.SubfrLength)
	}
	if p.FrameLength != NbSubfr*p.SubfrLength {
		return preconditionf("FrameLength", "got %d, want %d", p.FrameLength, NbSubfr*p.SubfrLength)
	}
	if p.PredLPCOrder < MinLPCOrder || p.PredLPCOrder > MaxLPCOrder || p.PredLPCOrder&1 != 0 {
		return preconditionf("PredLPCOrder", "got %d, want even order in [%d, %d]", p.PredLPCOrder, MinLPCOrder, MaxLPCOrder)
	}
	if p.ShapeLPCOrder < 2 || p.ShapeLPCOrder > MaxShapeLPCOrder || p.ShapeLPCOrder&1 != 0 {
		return preconditionf("ShapeLPCOrder", "got %d, want even order in [2, %d]", p.ShapeLPCOrder, MaxShapeLPCOrder)
	}
	if p.NLSFInterpCoefQ2 < 0 || p.NLSFInterpCoefQ2 > 4 {
		return preconditionf("NLSFInterpCoefQ2", "got %d, want [0, 4]", p.NLSFInterpCoefQ2)
	}
	if p.LambdaQ10 < 0 || p.LambdaQ10 > math.MaxInt16 {
		return preconditionf("LambdaQ10", "got %d, want [0, %d]", p.LambdaQ10, math.MaxInt16)
	}
	if p.QuantOffsetQ10 < 0 || p.QuantOffsetQ10 > 1023 {
		return preconditionf("QuantOffsetQ10", "got %d, want [0, 1023]", p.QuantOffsetQ10)
	}
	if p.Seed < 0 || p.Seed > 3 {
		return preconditionf("Seed", "got %d, want [0, 3]", p.Seed)
	}
	if p.LTPScaleQ14 < 0 || p.LTPScaleQ14 > 1<<14 {
		return preconditionf("LTPScaleQ14", "got %d, want [0, 16384]", p.LTPScaleQ14)
	}

	maxLag := MaxPitchLag(p.FrameLength, p.PredLPCOrder)
	for k := 0; k < NbSubfr; k++ {
		if p.GainsQ16[k] <= 0 {
			return preconditionf("GainsQ16", "subframe %d: got %d, want > 0", k, p.GainsQ16[k])
		}
		if g := p.HarmShapeGainQ14[k]; g < 0 || g > math.MaxInt16 {
			return preconditionf("HarmShapeGainQ14", "subframe %d: got %d, want [0, %d]", k, g, math.MaxInt16)
		}
		if t := p.TiltQ14[k]; t < math.MinInt16 || t > math.MaxInt16 {
			return preconditionf("TiltQ14", "subframe %d: got %d, outside int16", k, t)
		}
		lag := p.PitchL[k]
		if p.SignalType == SignalUnvoiced && lag == 0 {
			continue
		}
		if lag < MinPitchLag || lag > maxLag {
			return preconditionf("PitchL", "subframe %d: got %d, want [%d, %d]", k, lag, MinPitchLag, maxLag)
		}
	}
	return nil
}

// validateDelayedDecision additionally checks the search fields.
func (p *NSQParams) validateDelayedDecision() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.NStatesDelayedDecision < 1 || p.NStatesDelayedDecision > MaxDelDecStates {
		return preconditionf("NStatesDelayedDecision", "got %d, want [1, %d]", p.NStatesDelayedDecision, MaxDelDecStates)
	}
	if p.DecisionDelay < 0 || p.DecisionDelay > DecisionDelay {
		return preconditionf("DecisionDelay", "got %d, want [0, %d]", p.DecisionDelay, DecisionDelay)
	}
	if p.DecisionDelay == 0 && p.NStatesDelayedDecision > 1 {
		return preconditionf("DecisionDelay", "zero delay requires a single state, got %d states", p.NStatesDelayedDecision)
	}
	if p.WarpingQ16 < 0 || p.WarpingQ16 > math.MaxInt16 {
		return preconditionf("WarpingQ16", "got %d, want [0, %d]", p.WarpingQ16, math.MaxInt16)
	}
	return nil
}

// validateFrame checks the parameters against the input and the state's
// carried pitch lag.
func validateFrame(nsq *NSQState, input []int16, params *NSQParams, delDec bool) error {
	if nsq == nil {
		return preconditionf("state", "nil")
	}
	if params == nil {
		return preconditionf("params", "nil")
	}
	var err error
	if delDec {
		err = params.validateDelayedDecision()
	} else {
		err = params.Validate()
	}
	if err != nil {
		return err
	}
	if len(input) != params.FrameLength {
		return preconditionf("input", "got %d samples, want %d", len(input), params.FrameLength)
	}
	if params.SignalType == SignalUnvoiced && nsq.lagPrev > maxCarriedLag(params.FrameLength) {
		return preconditionf("lagPrev", "carried lag %d does not fit frame length %d; reset the state after a geometry change", nsq.lagPrev, params.FrameLength)
	}
	return nil
}
