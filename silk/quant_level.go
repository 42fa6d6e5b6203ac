package silk

import "github.com/thesyncim/silknsq/util"

// candidate is a quantization level (Q10, a multiple of 1024) together with
// its rate-distortion cost (Q10).
type candidate struct {
	levelQ10 int32
	rdQ10    int32
}

// levelCostQ20 is lambda*|q + offset| + (r - q)^2 in Q20.
func levelCostQ20(rQ10, qQ10, offsetQ10, lambdaQ10 int32) int64 {
	rate := util.Abs(int64(qQ10 + offsetQ10))
	d := int64(rQ10 - qQ10)
	return int64(lambdaQ10)*rate + d*d
}

// quantizeLevel is the three-band scalar quantizer of the single-path
// quantizer. The offset-removed residual rQ10 (within +/-maxLevelQ10) maps to
// 0, to -1024, or to the residual moved lambda/2 towards zero and rounded
// with halves going up.
func quantizeLevel(rQ10, offsetQ10, lambdaQ10 int32) candidate {
	thr1Q10 := -1536 - lambdaQ10>>1
	thr2Q10 := -512 - lambdaQ10>>1 + silkSMULBB(offsetQ10, lambdaQ10)>>10
	thr3Q10 := 512 + lambdaQ10>>1

	var q int32
	switch {
	case rQ10 < thr1Q10:
		q = silkRSHIFT_ROUND(rQ10+lambdaQ10>>1, 10) << 10
	case rQ10 < thr2Q10:
		q = -1024
	case rQ10 > thr3Q10:
		q = silkRSHIFT_ROUND(rQ10-lambdaQ10>>1, 10) << 10
	}
	return candidate{levelQ10: q, rdQ10: int32(levelCostQ20(rQ10, q, offsetQ10, lambdaQ10) >> 10)}
}

// quantizePair returns the two candidates of the delayed-decision quantizer:
// the rounded residual and the level next to it on the side of the residual,
// or -1024 and 0 near zero. Both levels stay within +/-maxLevelQ10 and are
// ordered by cost; on a tie the level nearer zero comes first.
//
// The cost of the second level is derived from the first, so both are the
// floor of the exact cost except -1024 in the middle band, which can be one
// off. Neither is negative.
func quantizePair(rQ10, offsetQ10, lambdaQ10 int32) (best, second candidate) {
	var q1, q2, rd1, rd2 int32
	switch {
	case rQ10 < -1536:
		q1 = silkRSHIFT_ROUND(rQ10, 10) << 10
		d := rQ10 - q1
		rd1 = int32((-int64(q1+offsetQ10)*int64(lambdaQ10) + int64(d*d)) >> 10)
		rd2 = rd1 + 1024 - (lambdaQ10 + d<<1)
		q2 = q1 + 1024
	case rQ10 > 512:
		q1 = silkRSHIFT_ROUND(rQ10, 10) << 10
		d := rQ10 - q1
		rd1 = int32((int64(q1+offsetQ10)*int64(lambdaQ10) + int64(d*d)) >> 10)
		rd2 = rd1 + 1024 - (lambdaQ10 - d<<1)
		q2 = q1 - 1024
	default:
		rrQ20 := silkSMULBB(offsetQ10, lambdaQ10)
		rd2 = (rrQ20 + rQ10*rQ10) >> 10
		rd1 = rd2 + 1024 + (lambdaQ10 + rQ10<<1) - rrQ20>>9
		q1, q2 = -1024, 0
	}

	if rd1 < rd2 {
		return candidate{q1, rd1}, candidate{q2, rd2}
	}
	return candidate{q2, rd2}, candidate{q1, rd1}
}
