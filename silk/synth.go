package silk

import (
	"fmt"
	"math"

	"github.com/thesyncim/silknsq/util"
)

// Synthesizer reconstructs the quantized signal from pulses the way a SILK
// decoder does. Fed the pulses, seed and parameters of every frame, its output
// matches the Xq of the quantizer that produced them.
type Synthesizer struct {
	out    sampleHistory[int16]
	lpc    lpcHistory
	ltpQ16 sampleHistory[int32]
	ltpRaw sampleHistory[int16]
	xq     [MaxFrameLength]int16

	prevInvGainQ16 int32
}

// NewSynthesizer returns a synthesizer in the reset state.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{prevInvGainQ16: unityQ16}
}

// Reset clears the synthesis state.
func (s *Synthesizer) Reset() {
	*s = Synthesizer{prevInvGainQ16: unityQ16}
}

// Synthesize decodes one frame. seed is the dither seed returned with the
// pulses, which differs from params.Seed for the delayed-decision quantizer.
// The returned slice is valid until the next call.
func (s *Synthesizer) Synthesize(pulses []int8, seed int32, params *NSQParams) ([]int16, error) {
	if params == nil {
		return nil, preconditionf("params", "nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := params.FrameLength
	if len(pulses) != n {
		return nil, preconditionf("pulses", "got %d, want %d", len(pulses), n)
	}
	for i, p := range pulses {
		if util.Abs(int32(p)) > maxLevelQ10>>10 {
			return nil, fmt.Errorf("sample %d: level %d: %w", i, p, ErrPulseOverflow)
		}
	}

	subfrLength := params.SubfrLength
	offsetQ10 := params.QuantOffsetQ10
	voiced := params.SignalType == SignalVoiced
	randSeed := seed
	ltpBufIdx := n
	clear(s.ltpQ16[:])

	var lag int
	for k := 0; k < NbSubfr; k++ {
		aQ12 := params.predCoefs(k)
		bQ14 := params.LTPCoefQ14[k*LTPOrder : (k+1)*LTPOrder]
		gainQ16 := params.GainsQ16[k]

		invGainQ16 := min(silkINVERSE32_varQ(max(gainQ16, 1), 32), math.MaxInt16)
		gainAdjQ16 := int32(unityQ16)
		if invGainQ16 != s.prevInvGainQ16 {
			gainAdjQ16 = silkDIV32_varQ(invGainQ16, s.prevInvGainQ16, 16)
		}
		s.prevInvGainQ16 = invGainQ16

		if voiced {
			lag = params.PitchL[k]
			if params.rewhitenAt(k) {
				start := n - lag - params.PredLPCOrder - LTPOrder/2
				maPrediction(s.out[start+k*subfrLength:], aQ12, s.ltpRaw[start:n])

				invGainQ32 := invGainQ16 << 16
				if k == 0 {
					invGainQ32 = silkSMULWB(invGainQ32, params.LTPScaleQ14) << 2
				}
				ltpBufIdx = n
				for i := ltpBufIdx - lag - LTPOrder/2; i < ltpBufIdx; i++ {
					s.ltpQ16[i] = silkSMULWB(invGainQ32, int32(s.ltpRaw[i]))
				}
			} else if gainAdjQ16 != unityQ16 {
				s.ltpQ16.scaleQ16(ltpBufIdx-lag-LTPOrder/2, ltpBufIdx, gainAdjQ16)
			}
		}
		if gainAdjQ16 != unityQ16 {
			s.lpc.scaleQ16(gainAdjQ16)
		}

		for i := 0; i < subfrLength; i++ {
			randSeed = silkRAND(randSeed)
			dither := randSeed >> 31

			q := int32(pulses[k*subfrLength+i])
			resQ10 := q<<10 + offsetQ10
			resQ10 = (resQ10 ^ dither) - dither
			randSeed += q

			if voiced {
				ltpPredQ14 := ltpPrediction(&s.ltpQ16, ltpBufIdx-lag+LTPOrder/2, bQ14)
				resQ10 += silkRSHIFT_ROUND(ltpPredQ14, 4)
				s.ltpQ16[ltpBufIdx] = resQ10 << 6
				ltpBufIdx++
			}

			lpcIdx := nsqLPCBufLength - 1 + i
			xqQ10 := resQ10 + shortTermPrediction(&s.lpc, lpcIdx, aQ12)
			s.lpc[lpcIdx+1] = xqQ10 << 4
			s.out[n+k*subfrLength+i] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(xqQ10, gainQ16), 10))
		}
		s.lpc.retain(subfrLength)
	}

	copy(s.xq[:n], s.out[n:2*n])
	s.out.slide(n)
	return s.xq[:n], nil
}
