package silk

import (
	"math"
	"math/bits"

	"github.com/thesyncim/silknsq/util"
)

// Fixed-point helpers following SigProc_FIX.h. Products are formed in 64 bits
// and truncated back to 32 bits, which matches the 32-bit wraparound the
// reference macros rely on.

func silkRAND(seed int32) int32 {
	return randIncrement + seed*randMultiplier
}

func silkRSHIFT_ROUND(x int32, shift int) int32 {
	if shift <= 0 {
		return x
	}
	if shift == 1 {
		return (x >> 1) + (x & 1)
	}
	return ((x >> (shift - 1)) + 1) >> 1
}

func silkSMULWB(a, b int32) int32 {
	return int32((int64(a) * int64(int16(b))) >> 16)
}

func silkSMLAWB(a, b, c int32) int32 {
	return a + int32((int64(b)*int64(int16(c)))>>16)
}

func silkSMLAWT(a, b, c int32) int32 {
	return a + int32((int64(b)*int64(c>>16))>>16)
}

func silkSMULBB(a, b int32) int32 {
	return int32(int16(a)) * int32(int16(b))
}

func silkSMULWW(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 16)
}

func silkSMLAWW(a, b, c int32) int32 {
	return a + int32((int64(b)*int64(c))>>16)
}

func silkSMMUL(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}

func silkSAT16(x int32) int16 {
	if x > math.MaxInt16 {
		return math.MaxInt16
	}
	if x < math.MinInt16 {
		return math.MinInt16
	}
	return int16(x)
}

func silkLShiftSAT32(x int32, shift int) int32 {
	return util.Clamp(x, math.MinInt32>>shift, math.MaxInt32>>shift) << shift
}

// silkAddPosSat32 adds two non-negative values, saturating at MaxInt32.
func silkAddPosSat32(a, b int32) int32 {
	sum := uint32(a) + uint32(b)
	if sum&0x80000000 != 0 {
		return math.MaxInt32
	}
	return int32(sum)
}

func silkCLZ32(x int32) int {
	return bits.LeadingZeros32(uint32(x))
}

// silkDIV32_varQ returns a32/b32 in Q(qres) using a 16-bit reciprocal and one
// refinement step. b32 must be non-zero.
func silkDIV32_varQ(a32, b32 int32, qres int) int32 {
	aHeadrm := silkCLZ32(util.Abs(a32)) - 1
	aNrm := a32 << aHeadrm
	bHeadrm := silkCLZ32(util.Abs(b32)) - 1
	bNrm := b32 << bHeadrm

	bInv := (math.MaxInt32 >> 2) / (bNrm >> 16)

	result := silkSMULWB(aNrm, bInv)
	aNrm -= silkSMMUL(bNrm, result) << 3
	result = silkSMLAWB(result, aNrm, bInv)

	lshift := 29 + aHeadrm - bHeadrm - qres
	switch {
	case lshift <= 0:
		return silkLShiftSAT32(result, -lshift)
	case lshift < 32:
		return result >> lshift
	default:
		return 0
	}
}

// silkINVERSE32_varQ returns 1/b32 in Q(qres). b32 must be non-zero.
func silkINVERSE32_varQ(b32 int32, qres int) int32 {
	bHeadrm := silkCLZ32(util.Abs(b32)) - 1
	bNrm := b32 << bHeadrm

	bInv := (math.MaxInt32 >> 2) / (bNrm >> 16)

	result := bInv << 16
	errQ32 := (-silkSMULWB(bNrm, bInv)) << 3
	result = silkSMLAWW(result, errQ32, bInv)

	lshift := 61 - bHeadrm - qres
	switch {
	case lshift <= 0:
		return silkLShiftSAT32(result, -lshift)
	case lshift < 32:
		return result >> lshift
	default:
		return 0
	}
}
