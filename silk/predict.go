package silk

// predictFunc returns the short-term prediction (Q10) of the sample following
// h[idx] for the coefficients aQ12.
type predictFunc func(h *lpcHistory, idx int, aQ12 []int16) int32

var shortTermPredictionImpl, predictionKernel = selectPredictionKernel()

// PredictionKernel names the short-term prediction kernel selected for this CPU.
func PredictionKernel() string {
	return predictionKernel
}

func shortTermPrediction(h *lpcHistory, idx int, aQ12 []int16) int32 {
	return shortTermPredictionImpl(h, idx, aQ12)
}

func shortTermPredictionGeneric(h *lpcHistory, idx int, aQ12 []int16) int32 {
	var out int32
	for k, a := range aQ12 {
		out = silkSMLAWB(out, h[idx-k], int32(a))
	}
	return out
}

func shortTermPredictionUnrolled(h *lpcHistory, idx int, aQ12 []int16) int32 {
	switch len(aQ12) {
	case 16:
		return shortTermPrediction16(h, idx, aQ12)
	case 10:
		return shortTermPrediction10(h, idx, aQ12)
	}
	return shortTermPredictionGeneric(h, idx, aQ12)
}

// shortTermPrediction16 is shortTermPredictionGeneric unrolled for order 16.
func shortTermPrediction16(h *lpcHistory, idx int, aQ12 []int16) int32 {
	_ = h[idx]
	_ = h[idx-15]
	_ = aQ12[15]
	out := silkSMULWB(h[idx], int32(aQ12[0]))
	out = silkSMLAWB(out, h[idx-1], int32(aQ12[1]))
	out = silkSMLAWB(out, h[idx-2], int32(aQ12[2]))
	out = silkSMLAWB(out, h[idx-3], int32(aQ12[3]))
	out = silkSMLAWB(out, h[idx-4], int32(aQ12[4]))
	out = silkSMLAWB(out, h[idx-5], int32(aQ12[5]))
	out = silkSMLAWB(out, h[idx-6], int32(aQ12[6]))
	out = silkSMLAWB(out, h[idx-7], int32(aQ12[7]))
	out = silkSMLAWB(out, h[idx-8], int32(aQ12[8]))
	out = silkSMLAWB(out, h[idx-9], int32(aQ12[9]))
	out = silkSMLAWB(out, h[idx-10], int32(aQ12[10]))
	out = silkSMLAWB(out, h[idx-11], int32(aQ12[11]))
	out = silkSMLAWB(out, h[idx-12], int32(aQ12[12]))
	out = silkSMLAWB(out, h[idx-13], int32(aQ12[13]))
	out = silkSMLAWB(out, h[idx-14], int32(aQ12[14]))
	out = silkSMLAWB(out, h[idx-15], int32(aQ12[15]))
	return out
}

// shortTermPrediction10 is shortTermPredictionGeneric unrolled for order 10.
func shortTermPrediction10(h *lpcHistory, idx int, aQ12 []int16) int32 {
	_ = h[idx]
	_ = h[idx-9]
	_ = aQ12[9]
	out := silkSMULWB(h[idx], int32(aQ12[0]))
	out = silkSMLAWB(out, h[idx-1], int32(aQ12[1]))
	out = silkSMLAWB(out, h[idx-2], int32(aQ12[2]))
	out = silkSMLAWB(out, h[idx-3], int32(aQ12[3]))
	out = silkSMLAWB(out, h[idx-4], int32(aQ12[4]))
	out = silkSMLAWB(out, h[idx-5], int32(aQ12[5]))
	out = silkSMLAWB(out, h[idx-6], int32(aQ12[6]))
	out = silkSMLAWB(out, h[idx-7], int32(aQ12[7]))
	out = silkSMLAWB(out, h[idx-8], int32(aQ12[8]))
	out = silkSMLAWB(out, h[idx-9], int32(aQ12[9]))
	return out
}
