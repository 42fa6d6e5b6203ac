package silk

import (
	"math"

	"github.com/thesyncim/silknsq/util"
)

// delDecBranch is one path of the delayed-decision search. It owns its copy of
// every state the quantization decisions feed back into, plus the values of
// the samples it has decided but not yet committed. Branches are replaced by
// plain value assignment.
type delDecBranch struct {
	lpc       lpcHistory
	randState delayRing
	qQ10      delayRing
	xqQ10     delayRing
	predQ16   delayRing
	shapeQ10  delayRing
	sAR2Q14   [MaxShapeLPCOrder]int32
	lfARQ12   int32
	seed      int32
	seedInit  int32
	rdQ10     int32
}

// branchChild is a branch extended by one candidate level.
type branchChild struct {
	qQ10      int32
	rdQ10     int32
	xqQ10     int32
	lfARQ12   int32
	shapeQ10  int32
	lpcExcQ16 int32
}

// NoiseShapeQuantizeDelDec quantizes one frame with the delayed-decision
// quantizer. NStatesDelayedDecision branches are searched in lockstep and a
// sample is committed once it is DecisionDelay samples old, from the branch
// with the lowest cost at that time. Each branch chooses between the two
// levels around its residual, so with a single state the result matches
// NoiseShapeQuantize except where the two quantizers break a cost tie
// differently, and it does not depend on DecisionDelay.
//
// The returned Seed is the seed of the winning branch, which the decoder must
// use for the frame.
func NoiseShapeQuantizeDelDec(nsq *NSQState, input []int16, params *NSQParams) (NSQOutput, error) {
	if err := validateFrame(nsq, input, params, true); err != nil {
		return NSQOutput{}, err
	}

	frameLength := params.FrameLength
	subfrLength := params.SubfrLength

	branches := nsq.branches[:params.NStatesDelayedDecision]
	for k := range branches {
		b := &branches[k]
		*b = delDecBranch{}
		b.seed = (int32(k) + params.Seed) & 3
		b.seedInit = b.seed
		b.lfARQ12 = nsq.sLFARShpQ12
		b.shapeQ10[0] = nsq.shp[frameLength-1]
		copy(b.lpc[:nsqLPCBufLength], nsq.lpc[:nsqLPCBufLength])
		b.sAR2Q14 = nsq.sAR2Q14
	}
	clear(nsq.gainQ16[:])

	// Unvoiced frames keep the previous lag for harmonic shaping.
	lag := nsq.lagPrev
	delay := effectiveDecisionDelay(params, lag)

	nsq.beginFrame(frameLength)

	smplBufIdx := 0
	subfr := 0
	for k := 0; k < NbSubfr; k++ {
		aQ12 := params.predCoefs(k)

		nsq.rewhiteFlag = false
		if params.SignalType == SignalVoiced {
			lag = params.PitchL[k]
			if params.rewhitenAt(k) {
				if k == 2 {
					nsq.resetBranches(branches, smplBufIdx, delay, k*subfrLength, frameLength)
					subfr = 0
				}
				nsq.rewhiten(params, k, lag, aQ12)
			}
		}

		invGainQ16, gainAdjQ16 := nsq.scaleStates(input[k*subfrLength:(k+1)*subfrLength], params, k, branches)
		if nsq.Trace != nil {
			nsq.Trace.subframe(k, nsq.rewhiteFlag, invGainQ16, gainAdjQ16, lag)
		}

		smplBufIdx = nsq.quantizeSubframeDelDec(params, branches, k, lag, aQ12, smplBufIdx, delay, subfr)
		subfr++
	}

	// Fold the best branch back into the channel state.
	winner := lowestCostBranch(branches)
	w := &branches[winner]
	for i := 0; i < delay; i++ {
		slot := smplBufIdx + delay - 1 - i
		nsq.commit(w, slot, frameLength-delay+i, frameLength, nsq.shpBufIdx-delay+i)
		nsq.ltpQ16[nsq.ltpBufIdx-delay+i] = w.predQ16.at(slot)
	}
	copy(nsq.lpc[:nsqLPCBufLength], w.lpc[:nsqLPCBufLength])
	nsq.sAR2Q14 = w.sAR2Q14
	nsq.sLFARShpQ12 = w.lfARQ12
	nsq.randSeed = w.seed

	nsq.endFrame(params)

	out := nsq.output(params, w.seedInit, w.rdQ10)
	if nsq.Trace != nil {
		nsq.Trace.finish(out, subfrLength, len(branches), delay, winner)
	}
	return out, nil
}

// effectiveDecisionDelay limits the requested delay so that no pending
// sample is needed by the long-term predictor or the harmonic shaping filter.
func effectiveDecisionDelay(params *NSQParams, lagPrev int) int {
	delay := min(params.DecisionDelay, params.SubfrLength)
	if params.SignalType == SignalVoiced {
		for k := 0; k < NbSubfr; k++ {
			delay = min(delay, params.PitchL[k]-LTPOrder/2-1)
		}
	} else if lagPrev > 0 {
		delay = min(delay, lagPrev-LTPOrder/2-1)
	}
	return delay
}

func lowestCostBranch(branches []delDecBranch) int {
	winner := 0
	for k := 1; k < len(branches); k++ {
		if branches[k].rdQ10 < branches[winner].rdQ10 {
			winner = k
		}
	}
	return winner
}

// resetBranches ends the search at a re-whitening boundary: every branch but
// the cheapest is penalised and the cheapest one's pending samples, which end
// just before frame position end, are committed.
func (s *NSQState) resetBranches(branches []delDecBranch, smplBufIdx, delay, end, frameLength int) {
	winner := lowestCostBranch(branches)
	for k := range branches {
		if k != winner {
			branches[k].rdQ10 = silkAddPosSat32(branches[k].rdQ10, branchPenaltyQ10)
		}
	}
	w := &branches[winner]
	for i := 0; i < delay; i++ {
		s.commit(w, smplBufIdx+delay-1-i, end-delay+i, frameLength, s.shpBufIdx-delay+i)
	}
}

// commit outputs the sample held in ring slot of branch b as frame sample
// pos and stores its shaping value at shpIdx.
func (s *NSQState) commit(b *delDecBranch, slot, pos, frameLength, shpIdx int) {
	s.pulses[pos] = int8(b.qQ10.at(slot) >> 10)
	s.xq[frameLength+pos] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(b.xqQ10.at(slot), s.gainQ16.at(slot)), 10))
	s.shp[shpIdx] = b.shapeQ10.at(slot)
}

// quantizeSubframeDelDec runs the search over subframe k and returns the
// updated ring index. subfr counts the subframes since the search started;
// during the first one nothing older than the search is committed.
func (s *NSQState) quantizeSubframeDelDec(params *NSQParams, branches []delDecBranch, k, lag int, aQ12 []int16, smplBufIdx, delay, subfr int) int {
	length := params.SubfrLength
	frameLength := params.FrameLength
	bQ14 := params.LTPCoefQ14[k*LTPOrder : (k+1)*LTPOrder]
	arShpQ13 := params.ARShpQ13[k*MaxShapeLPCOrder : k*MaxShapeLPCOrder+params.ShapeLPCOrder]
	harmShapeFIRPackedQ14 := params.harmShapeFIRPackedQ14(k)
	tiltQ14 := params.TiltQ14[k]
	lfShpQ14 := params.LFShpQ14[k]
	gainQ16 := params.GainsQ16[k]
	lambdaQ10 := params.LambdaQ10
	offsetQ10 := params.QuantOffsetQ10
	warpingQ16 := params.WarpingQ16
	voiced := params.SignalType == SignalVoiced
	children := s.children[:len(branches)]
	minCostQ10 := int32(math.MaxInt32)

	for i := 0; i < length; i++ {
		// Long-term prediction and harmonic shaping are common to all branches.
		var ltpPredQ14, ltpQ10 int32
		if voiced {
			ltpPredQ14 = ltpPrediction(&s.ltpQ16, s.ltpBufIdx-lag+LTPOrder/2, bQ14)
		}
		if lag > 0 {
			nLTPQ14 := harmonicShaping(&s.shp, s.shpBufIdx-lag+HarmShapeFIRTaps/2, harmShapeFIRPackedQ14)
			ltpQ10 = (ltpPredQ14 - nLTPQ14) >> 4
		}

		lpcIdx := nsqLPCBufLength - 1 + i
		for j := range branches {
			b := &branches[j]
			b.seed = silkRAND(b.seed)
			dither := b.seed >> 31

			lpcPredQ10 := shortTermPrediction(&b.lpc, lpcIdx, aQ12)

			nARQ10 := arFeedback(&b.sAR2Q14, b.lpc[lpcIdx], arShpQ13, warpingQ16)
			nARQ10 = silkSMLAWB(nARQ10, b.lfARQ12, tiltQ14)

			nLFQ10 := silkSMULWB(b.shapeQ10.at(smplBufIdx), lfShpQ14) << 2
			nLFQ10 = silkSMLAWT(nLFQ10, b.lfARQ12, lfShpQ14)

			rQ10 := s.xScQ10[i] - (lpcPredQ10 - nARQ10 - nLFQ10 + ltpQ10)
			rQ10 = (rQ10 ^ dither) - dither
			rQ10 = util.Clamp(rQ10-offsetQ10, -maxLevelQ10, maxLevelQ10)

			best, second := quantizePair(rQ10, offsetQ10, lambdaQ10)
			children[j][0].set(best, b.rdQ10, dither, offsetQ10, ltpPredQ14, lpcPredQ10, nARQ10, nLFQ10)
			children[j][1].set(second, b.rdQ10, dither, offsetQ10, ltpPredQ14, lpcPredQ10, nARQ10, nLFQ10)
		}

		if s.Trace != nil {
			for j := range children {
				minCostQ10 = min(minCostQ10, children[j][0].rdQ10, children[j][1].rdQ10)
			}
		}

		smplBufIdx = (smplBufIdx - 1) & delayRingMask
		last := smplBufIdx + delay

		winner := 0
		for j := 1; j < len(branches); j++ {
			if children[j][0].rdQ10 < children[winner][0].rdQ10 {
				winner = j
			}
		}

		if len(branches) > 1 {
			// Branches whose dither no longer agrees with the winner's at the
			// commit point cannot produce the committed sample.
			winnerRand := branches[winner].randState.at(last)
			for j := range branches {
				if branches[j].randState.at(last) != winnerRand {
					children[j][0].rdQ10 = silkAddPosSat32(children[j][0].rdQ10, branchPenaltyQ10)
					children[j][1].rdQ10 = silkAddPosSat32(children[j][1].rdQ10, branchPenaltyQ10)
				}
			}

			// Replace the worst first choice by the best second choice.
			maxIdx, minIdx := 0, 0
			for j := 1; j < len(branches); j++ {
				if children[j][0].rdQ10 > children[maxIdx][0].rdQ10 {
					maxIdx = j
				}
				if children[j][1].rdQ10 < children[minIdx][1].rdQ10 {
					minIdx = j
				}
			}
			if children[minIdx][1].rdQ10 < children[maxIdx][0].rdQ10 {
				branches[maxIdx] = branches[minIdx]
				children[maxIdx][0] = children[minIdx][1]
			}
		}

		for j := range branches {
			b := &branches[j]
			c := &children[j][0]
			b.lfARQ12 = c.lfARQ12
			b.lpc[lpcIdx+1] = c.xqQ10 << 4
			b.xqQ10.set(smplBufIdx, c.xqQ10)
			b.qQ10.set(smplBufIdx, c.qQ10)
			b.predQ16.set(smplBufIdx, c.lpcExcQ16)
			b.shapeQ10.set(smplBufIdx, c.shapeQ10)
			b.seed += c.qQ10 >> 10
			b.randState.set(smplBufIdx, b.seed)
			b.rdQ10 = c.rdQ10
		}
		s.gainQ16.set(smplBufIdx, gainQ16)
		if s.Trace != nil {
			for j := range branches {
				minCostQ10 = min(minCostQ10, branches[j].rdQ10)
			}
		}

		if subfr > 0 || i >= delay {
			w := &branches[winner]
			s.commit(w, last, k*length+i-delay, frameLength, s.shpBufIdx-delay)
			s.ltpQ16[s.ltpBufIdx-delay] = w.predQ16.at(last)
		}
		s.shpBufIdx++
		s.ltpBufIdx++
	}

	for j := range branches {
		branches[j].lpc.retain(length)
	}
	if s.Trace != nil {
		s.Trace.Subframes[k].MinCostQ10 = minCostQ10
	}
	return smplBufIdx
}

// set extends a branch with level cand and derives the states that follow
// from it.
func (c *branchChild) set(cand candidate, branchRDQ10, dither, offsetQ10, ltpPredQ14, lpcPredQ10, nARQ10, nLFQ10 int32) {
	c.qQ10 = cand.levelQ10
	c.rdQ10 = silkAddPosSat32(branchRDQ10, cand.rdQ10)

	excQ10 := cand.levelQ10 + offsetQ10
	excQ10 = (excQ10 ^ dither) - dither
	lpcExcQ10 := excQ10 + silkRSHIFT_ROUND(ltpPredQ14, 4)
	c.xqQ10 = lpcExcQ10 + lpcPredQ10

	sLFARShpQ10 := c.xqQ10 - nARQ10
	c.shapeQ10 = sLFARShpQ10 - nLFQ10
	c.lfARQ12 = sLFARShpQ10 << 2
	c.lpcExcQ16 = lpcExcQ10 << 6
}
