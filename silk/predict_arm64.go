//go:build arm64 && !purego

package silk

import "golang.org/x/sys/cpu"

func selectPredictionKernel() (predictFunc, string) {
	if cpu.ARM64.HasASIMD {
		return shortTermPredictionUnrolled, "unrolled-asimd"
	}
	return shortTermPredictionGeneric, "generic"
}
