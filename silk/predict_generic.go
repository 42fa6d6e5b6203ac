//go:build (!arm64 && !amd64) || purego

package silk

func selectPredictionKernel() (predictFunc, string) {
	return shortTermPredictionGeneric, "generic"
}
