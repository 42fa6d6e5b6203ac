package silk

import (
	"math/rand"
	"testing"
)

// refShortTermPrediction is the plain definition the kernels must match.
func refShortTermPrediction(h []int32, idx int, aQ12 []int16) int32 {
	var out int32
	for k := range aQ12 {
		out += int32((int64(h[idx-k]) * int64(aQ12[k])) >> 16)
	}
	return out
}

func TestShortTermPredictionKernels(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kernels := map[string]predictFunc{
		"generic":  shortTermPredictionGeneric,
		"unrolled": shortTermPredictionUnrolled,
		"selected": shortTermPrediction,
	}
	for _, order := range []int{10, 12, 14, 16} {
		for trial := 0; trial < 500; trial++ {
			var h lpcHistory
			for i := range h {
				h[i] = rng.Int31n(1<<24) - (1 << 23) // Q14 range
			}
			aQ12 := make([]int16, order)
			for i := range aQ12 {
				aQ12[i] = int16(rng.Int31n(1<<13) - (1 << 12))
			}
			idx := nsqLPCBufLength - 1 + rng.Intn(MaxSubfrLength)

			want := refShortTermPrediction(h[:], idx, aQ12)
			for name, fn := range kernels {
				if got := fn(&h, idx, aQ12); got != want {
					t.Fatalf("%s order %d trial %d: got %d, want %d", name, order, trial, got, want)
				}
			}
		}
	}
}

func TestPredictionKernelName(t *testing.T) {
	if PredictionKernel() == "" {
		t.Fatal("PredictionKernel returned an empty name")
	}
}

func BenchmarkShortTermPrediction16(b *testing.B) {
	var h lpcHistory
	for i := range h {
		h[i] = int32(i * 1000)
	}
	aQ12 := testPredQ12A[:]
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = shortTermPrediction(&h, nsqLPCBufLength+i%MaxSubfrLength-1, aQ12)
	}
}
