//go:build amd64 && !purego

package silk

import "golang.org/x/sys/cpu"

func selectPredictionKernel() (predictFunc, string) {
	if cpu.X86.HasAVX2 {
		return shortTermPredictionUnrolled, "unrolled-avx2"
	}
	if cpu.X86.HasSSE41 {
		return shortTermPredictionUnrolled, "unrolled-sse4.1"
	}
	return shortTermPredictionGeneric, "generic"
}
