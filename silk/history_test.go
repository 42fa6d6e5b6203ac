package silk

import "testing"

func TestSampleHistorySlide(t *testing.T) {
	var h sampleHistory[int16]
	const n = 320
	for i := 0; i < 2*n; i++ {
		h[i] = int16(i)
	}
	h.slide(n)
	for i := 0; i < n; i++ {
		if h[i] != int16(n+i) {
			t.Fatalf("h[%d] = %d, want %d", i, h[i], n+i)
		}
	}
}

func TestSampleHistoryScale(t *testing.T) {
	var h sampleHistory[int32]
	for i := range h {
		h[i] = 1000
	}
	h.scaleQ16(10, 20, 2<<16)
	for i := range h {
		want := int32(1000)
		if i >= 10 && i < 20 {
			want = 2000
		}
		if h[i] != want {
			t.Fatalf("h[%d] = %d, want %d", i, h[i], want)
		}
	}
}

func TestLPCHistoryRetain(t *testing.T) {
	var h lpcHistory
	for i := range h {
		h[i] = int32(i)
	}
	const n = 80
	h.retain(n)
	for i := 0; i < nsqLPCBufLength; i++ {
		if h[i] != int32(n+i) {
			t.Fatalf("h[%d] = %d, want %d", i, h[i], n+i)
		}
	}
}

func TestDelayRingWraps(t *testing.T) {
	var r delayRing
	idx := 0
	for v := int32(1); v <= 3*delayRingSize; v++ {
		idx = (idx - 1) & delayRingMask
		r.set(idx, v)
	}
	// Walking downwards, slot idx+d holds the value written d steps ago.
	for d := 0; d < delayRingSize; d++ {
		want := int32(3*delayRingSize - d)
		if got := r.at(idx + d); got != want {
			t.Fatalf("at(idx+%d) = %d, want %d", d, got, want)
		}
	}
	if r.at(idx) != r.at(idx+delayRingSize) {
		t.Errorf("at does not wrap")
	}
}
