// Package silk implements the noise shaping quantizers of a SILK speech
// encoder: the single-path quantizer, the delayed-decision (beam search)
// quantizer, and the decoder-side synthesis that reproduces their output.
//
// All arithmetic is fixed point. Given the same state and parameters, a
// quantizer always produces the same pulses and leaves the same state.
package silk

import "github.com/thesyncim/silknsq/util"

// NoiseShapeQuantize quantizes one frame of input with the single-path
// quantizer: each sample takes the level with the lowest rate-distortion
// cost given the current state.
//
// Parameters:
//   - nsq: quantizer state (modified)
//   - input: FrameLength samples (Q0)
//   - params: frame parameters
//
// The returned pulses and reconstruction alias buffers owned by nsq.
func NoiseShapeQuantize(nsq *NSQState, input []int16, params *NSQParams) (NSQOutput, error) {
	if err := validateFrame(nsq, input, params, false); err != nil {
		return NSQOutput{}, err
	}

	subfrLength := params.SubfrLength
	offsetQ10 := params.QuantOffsetQ10
	nsq.randSeed = params.Seed

	// Unvoiced frames keep the previous lag for harmonic shaping.
	lag := nsq.lagPrev

	nsq.beginFrame(params.FrameLength)

	var rdQ10 int32
	for k := 0; k < NbSubfr; k++ {
		aQ12 := params.predCoefs(k)

		nsq.rewhiteFlag = false
		if params.SignalType == SignalVoiced {
			lag = params.PitchL[k]
			if params.rewhitenAt(k) {
				nsq.rewhiten(params, k, lag, aQ12)
			}
		}

		invGainQ16, gainAdjQ16 := nsq.scaleStates(input[k*subfrLength:(k+1)*subfrLength], params, k, nil)
		if nsq.Trace != nil {
			nsq.Trace.subframe(k, nsq.rewhiteFlag, invGainQ16, gainAdjQ16, lag)
		}

		rdQ10 = silkAddPosSat32(rdQ10, nsq.quantizeSubframe(params, k, lag, aQ12, offsetQ10))
	}

	nsq.endFrame(params)

	out := nsq.output(params, params.Seed, rdQ10)
	if nsq.Trace != nil {
		nsq.Trace.finish(out, subfrLength, 1, 0, 0)
	}
	return out, nil
}

// quantizeSubframe runs the single-path quantizer over subframe k and returns
// the accumulated rate-distortion cost of the chosen levels.
func (s *NSQState) quantizeSubframe(params *NSQParams, k, lag int, aQ12 []int16, offsetQ10 int32) int32 {
	length := params.SubfrLength
	bQ14 := params.LTPCoefQ14[k*LTPOrder : (k+1)*LTPOrder]
	arShpQ13 := params.ARShpQ13[k*MaxShapeLPCOrder : k*MaxShapeLPCOrder+params.ShapeLPCOrder]
	harmShapeFIRPackedQ14 := params.harmShapeFIRPackedQ14(k)
	tiltQ14 := params.TiltQ14[k]
	lfShpQ14 := params.LFShpQ14[k]
	gainQ16 := params.GainsQ16[k]
	lambdaQ10 := params.LambdaQ10
	voiced := params.SignalType == SignalVoiced

	pulses := s.pulses[k*length : (k+1)*length]
	xq := s.xq[params.FrameLength+k*length : params.FrameLength+(k+1)*length]

	var rdQ10 int32
	for i := 0; i < length; i++ {
		s.randSeed = silkRAND(s.randSeed)
		dither := s.randSeed >> 31

		// Short-term prediction
		lpcIdx := nsqLPCBufLength - 1 + i
		lpcPredQ10 := shortTermPrediction(&s.lpc, lpcIdx, aQ12)

		// Long-term prediction
		var ltpPredQ14 int32
		if voiced {
			ltpPredQ14 = ltpPrediction(&s.ltpQ16, s.ltpBufIdx-lag+LTPOrder/2, bQ14)
		}

		// Noise shape feedback
		nARQ10 := arFeedback(&s.sAR2Q14, s.lpc[lpcIdx], arShpQ13, 0)
		nARQ10 = silkSMLAWB(nARQ10, s.sLFARShpQ12, tiltQ14)

		nLFQ10 := silkSMULWB(s.shp[s.shpBufIdx-1], lfShpQ14) << 2
		nLFQ10 = silkSMLAWT(nLFQ10, s.sLFARShpQ12, lfShpQ14)

		predQ10 := lpcPredQ10 - nARQ10 - nLFQ10
		if lag > 0 {
			nLTPQ14 := harmonicShaping(&s.shp, s.shpBufIdx-lag+HarmShapeFIRTaps/2, harmShapeFIRPackedQ14)
			predQ10 += (ltpPredQ14 - nLTPQ14) >> 4
		}

		// Residual, flipped by the dither and without the offset
		rQ10 := s.xScQ10[i] - predQ10
		rQ10 = (rQ10 ^ dither) - dither
		rQ10 = util.Clamp(rQ10-offsetQ10, -maxLevelQ10, maxLevelQ10)

		best := quantizeLevel(rQ10, offsetQ10, lambdaQ10)
		rdQ10 = silkAddPosSat32(rdQ10, best.rdQ10)
		q := best.levelQ10 >> 10
		pulses[i] = int8(q)

		// Excitation and reconstruction
		excQ10 := best.levelQ10 + offsetQ10
		excQ10 = (excQ10 ^ dither) - dither
		lpcExcQ10 := excQ10 + silkRSHIFT_ROUND(ltpPredQ14, 4)
		xqQ10 := lpcExcQ10 + lpcPredQ10
		xq[i] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(xqQ10, gainQ16), 10))

		// Update states
		s.lpc[lpcIdx+1] = xqQ10 << 4
		sLFARShpQ10 := xqQ10 - nARQ10
		s.sLFARShpQ12 = sLFARShpQ10 << 2
		s.shp[s.shpBufIdx] = sLFARShpQ10 - nLFQ10
		s.ltpQ16[s.ltpBufIdx] = lpcExcQ10 << 6
		s.shpBufIdx++
		s.ltpBufIdx++

		s.randSeed += q
	}

	s.lpc.retain(length)
	return rdQ10
}

// ltpPrediction is the 5-tap long-term prediction (Q14) centred one tap
// below h[idx].
func ltpPrediction(h *sampleHistory[int32], idx int, bQ14 []int16) int32 {
	_ = bQ14[LTPOrder-1]
	out := silkSMULWB(h[idx], int32(bQ14[0]))
	out = silkSMLAWB(out, h[idx-1], int32(bQ14[1]))
	out = silkSMLAWB(out, h[idx-2], int32(bQ14[2]))
	out = silkSMLAWB(out, h[idx-3], int32(bQ14[3]))
	out = silkSMLAWB(out, h[idx-4], int32(bQ14[4]))
	return out
}

// harmonicShaping is the symmetric 3-tap harmonic noise shaping filter (Q14)
// over h[idx-2..idx]. The outer taps are in the low half of packedQ14 and the
// centre tap in the high half.
func harmonicShaping(h *sampleHistory[int32], idx int, packedQ14 int32) int32 {
	out := silkSMULWB(h[idx]+h[idx-2], packedQ14)
	out = silkSMLAWT(out, h[idx-1], packedQ14)
	return out << 6
}

// arFeedback runs the AR noise shaping filter over sAR2Q14, fed with inQ14,
// and returns its output in Q10. A non-zero warpingQ16 turns the delay line
// into a chain of first-order allpass sections; zero gives the plain filter.
func arFeedback(sAR2Q14 *[MaxShapeLPCOrder]int32, inQ14 int32, arShpQ13 []int16, warpingQ16 int32) int32 {
	order := len(arShpQ13)

	tmp2 := silkSMLAWB(inQ14, sAR2Q14[0], warpingQ16)
	tmp1 := silkSMLAWB(sAR2Q14[0], sAR2Q14[1]-tmp2, warpingQ16)
	sAR2Q14[0] = tmp2
	out := silkSMULWB(tmp2, int32(arShpQ13[0]))
	for j := 2; j < order; j += 2 {
		tmp2 = silkSMLAWB(sAR2Q14[j-1], sAR2Q14[j]-tmp1, warpingQ16)
		sAR2Q14[j-1] = tmp1
		out = silkSMLAWB(out, tmp1, int32(arShpQ13[j-1]))

		tmp1 = silkSMLAWB(sAR2Q14[j], sAR2Q14[j+1]-tmp2, warpingQ16)
		sAR2Q14[j] = tmp2
		out = silkSMLAWB(out, tmp2, int32(arShpQ13[j]))
	}
	sAR2Q14[order-1] = tmp1
	out = silkSMLAWB(out, tmp1, int32(arShpQ13[order-1]))

	return out >> 1 // Q11 -> Q10
}
