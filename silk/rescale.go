package silk

import "math"

// scaleStates prepares subframe k: it refills the LTP window after
// re-whitening, rescales every history that is kept in the scale of the
// previous subframe when the gain changes, and writes the input scaled by
// the inverse gain to xScQ10.
//
// The short-term, AR and LF-AR feedback states live in the NSQState for the
// baseline quantizer and in the search branches for the delayed-decision
// quantizer; branches is nil for the former.
func (s *NSQState) scaleStates(x []int16, params *NSQParams, k int, branches []delDecBranch) (invGainQ16, gainAdjQ16 int32) {
	invGainQ16 = min(silkINVERSE32_varQ(max(params.GainsQ16[k], 1), 32), math.MaxInt16)
	lag := params.PitchL[k]

	// After re-whitening the LTP state is unscaled.
	if s.rewhiteFlag {
		invGainQ32 := invGainQ16 << 16
		if k == 0 {
			invGainQ32 = silkSMULWB(invGainQ32, params.LTPScaleQ14) << 2
		}
		for i := s.ltpBufIdx - lag - LTPOrder/2; i < s.ltpBufIdx; i++ {
			s.ltpQ16[i] = silkSMULWB(invGainQ32, int32(s.ltpRaw[i]))
		}
	}

	gainAdjQ16 = unityQ16
	if invGainQ16 != s.prevInvGainQ16 {
		gainAdjQ16 = silkDIV32_varQ(invGainQ16, s.prevInvGainQ16, 16)

		s.shp.scaleQ16(s.shpBufIdx-params.FrameLength, s.shpBufIdx, gainAdjQ16)
		if params.SignalType == SignalVoiced && !s.rewhiteFlag {
			s.ltpQ16.scaleQ16(s.ltpBufIdx-lag-LTPOrder/2, s.ltpBufIdx, gainAdjQ16)
		}

		if branches == nil {
			s.sLFARShpQ12 = silkSMULWW(gainAdjQ16, s.sLFARShpQ12)
			s.lpc.scaleQ16(gainAdjQ16)
			for i := range s.sAR2Q14 {
				s.sAR2Q14[i] = silkSMULWW(gainAdjQ16, s.sAR2Q14[i])
			}
		} else {
			scaleBranches(branches, gainAdjQ16)
		}
	}

	for i := 0; i < params.SubfrLength; i++ {
		s.xScQ10[i] = silkSMULBB(int32(x[i]), invGainQ16) >> 6
	}
	s.prevInvGainQ16 = invGainQ16
	return invGainQ16, gainAdjQ16
}

// scaleBranches applies a gain change to the state each search branch owns,
// including samples that are not yet committed.
func scaleBranches(branches []delDecBranch, gainAdjQ16 int32) {
	for k := range branches {
		b := &branches[k]
		b.lfARQ12 = silkSMULWW(gainAdjQ16, b.lfARQ12)
		b.lpc.scaleQ16(gainAdjQ16)
		for i := range b.sAR2Q14 {
			b.sAR2Q14[i] = silkSMULWW(gainAdjQ16, b.sAR2Q14[i])
		}
		b.predQ16.scaleQ16(gainAdjQ16)
		b.shapeQ10.scaleQ16(gainAdjQ16)
	}
}

// rewhiten filters the reconstructed signal with the predictor of subframe k
// to rebuild the unscaled LTP state ending at the frame boundary, and restarts
// the LTP position there.
func (s *NSQState) rewhiten(params *NSQParams, k, lag int, aQ12 []int16) {
	n := params.FrameLength
	start := n - lag - params.PredLPCOrder - LTPOrder/2
	maPrediction(s.xq[start+k*params.SubfrLength:], aQ12, s.ltpRaw[start:n])
	s.rewhiteFlag = true
	s.ltpBufIdx = n
}

// maPrediction runs the analysis filter 1 - sum(b[d] z^-(d+1)) over in,
// starting from a zero filter state, and writes len(out) samples.
func maPrediction(in []int16, bQ12 []int16, out []int16) {
	var state [MaxLPCOrder]int32
	order := len(bQ12)
	_ = in[len(out)-1]
	for k := range out {
		in16 := int32(in[k])
		out32 := silkRSHIFT_ROUND(in16<<12-state[0], 12)
		for d := 0; d < order-1; d++ {
			state[d] = state[d+1] + silkSMULBB(in16, int32(bQ12[d]))
		}
		state[order-1] = silkSMULBB(in16, int32(bQ12[order-1]))
		out[k] = silkSAT16(out32)
	}
}
