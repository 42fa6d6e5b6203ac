package silk

// sampleHistory is a two-frame window of past samples addressed by absolute
// position. The current frame is written to the upper half and slide moves it
// down once the frame is complete.
type sampleHistory[T int16 | int32] [2 * MaxFrameLength]T

// slide moves the frame at [n, 2n) to [0, n).
func (h *sampleHistory[T]) slide(n int) {
	copy(h[:n], h[n:2*n])
}

// scaleQ16 multiplies h[from:to] by gainAdjQ16.
func (h *sampleHistory[T]) scaleQ16(from, to int, gainAdjQ16 int32) {
	for i := from; i < to; i++ {
		h[i] = T(silkSMULWW(gainAdjQ16, int32(h[i])))
	}
}

// lpcHistory holds the short-term predictor memory: nsqLPCBufLength retained
// samples followed by the samples of the subframe being quantized. Index
// nsqLPCBufLength+i holds the reconstruction of sample i.
type lpcHistory [nsqLPCBufLength + MaxSubfrLength]int32

// retain keeps the last nsqLPCBufLength samples of a subframe of length n.
func (h *lpcHistory) retain(n int) {
	copy(h[:nsqLPCBufLength], h[n:n+nsqLPCBufLength])
}

func (h *lpcHistory) scaleQ16(gainAdjQ16 int32) {
	for i := 0; i < nsqLPCBufLength; i++ {
		h[i] = silkSMULWW(gainAdjQ16, h[i])
	}
}

// delayRing holds per-sample values of a search branch that are not yet
// committed. Indices wrap with delayRingMask; callers walk it downwards so
// slot idx+d holds the value written d samples ago.
type delayRing [delayRingSize]int32

func (r *delayRing) at(i int) int32 {
	return r[i&delayRingMask]
}

func (r *delayRing) set(i int, v int32) {
	r[i&delayRingMask] = v
}

func (r *delayRing) scaleQ16(gainAdjQ16 int32) {
	for i := range r {
		r[i] = silkSMULWW(gainAdjQ16, r[i])
	}
}
