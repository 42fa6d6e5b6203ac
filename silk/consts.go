package silk

import "math"

// Frame geometry and filter limits (SILK define.h).
const (
	NbSubfr          = 4   // subframes per frame
	MaxFrameLength   = 480 // 20 ms at 24 kHz
	MaxSubfrLength   = 120 // 5 ms at 24 kHz
	MaxLPCOrder      = 16
	MinLPCOrder      = 10
	MaxShapeLPCOrder = 16
	LTPOrder         = 5
	HarmShapeFIRTaps = 3
	DecisionDelay    = 32 // largest commit delay of the delayed-decision quantizer
	MaxDelDecStates  = 4
	MinPitchLag      = 16 // 2 ms at 8 kHz
)

const (
	nsqLPCBufLength = 32 // retained short-term history (NSQ_LPC_BUF_LENGTH)

	// Pending decisions live in a ring twice the maximum delay so that the
	// sample being committed is never the slot written in the same step.
	delayRingSize = 2 * DecisionDelay
	delayRingMask = delayRingSize - 1

	maxLevelQ10 = 64 << 10 // residual clamp and largest pulse magnitude

	randMultiplier = 196314165
	randIncrement  = 907633515

	// Added to a branch's cost to steer the search away from it.
	branchPenaltyQ10 = math.MaxInt32 >> 4

	unityQ16 = 1 << 16

	// warpingMultiplierQ16 is 0.015 in Q16; warping scales with the sample rate.
	warpingMultiplierQ16 = 983
)

// SignalType classifies a frame for quantization.
type SignalType int

const (
	SignalUnvoiced SignalType = iota
	SignalVoiced
)

func (s SignalType) String() string {
	switch s {
	case SignalUnvoiced:
		return "unvoiced"
	case SignalVoiced:
		return "voiced"
	default:
		return "invalid"
	}
}

// QuantizationOffsetsQ10 is indexed by [SignalType][quantization offset type].
var QuantizationOffsetsQ10 = [2][2]int32{
	{100, 256}, // unvoiced: low, high
	{32, 100},  // voiced: low, high
}

// QuantizationOffset returns the Q10 offset for a signal type and offset type
// (0 = low, 1 = high). Out-of-range arguments are clamped.
func QuantizationOffset(signalType SignalType, offsetType int) int32 {
	st := int(signalType)
	if st < 0 {
		st = 0
	}
	if st > 1 {
		st = 1
	}
	if offsetType < 0 {
		offsetType = 0
	}
	if offsetType > 1 {
		offsetType = 1
	}
	return QuantizationOffsetsQ10[st][offsetType]
}

// WarpingQ16 returns the shaping filter warping used at complexity levels
// above zero for the given internal rate.
func WarpingQ16(fsKHz int) int32 {
	return int32(fsKHz) * warpingMultiplierQ16
}
