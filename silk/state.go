package silk

// NSQState is the noise shaping quantizer state of one channel. It carries the
// fixed-point feedback a decoder reproduces sample for sample, plus the
// per-frame scratch of both quantizers, so quantizing a frame never allocates.
//
// An NSQState must not be used from more than one goroutine at a time.
type NSQState struct {
	xq  sampleHistory[int16] // reconstructed output
	shp sampleHistory[int32] // noise shaping history (Q10) for the harmonic filter
	lpc lpcHistory           // short-term predictor memory (Q14)

	sAR2Q14     [MaxShapeLPCOrder]int32
	sLFARShpQ12 int32

	lagPrev        int
	ltpBufIdx      int
	shpBufIdx      int
	randSeed       int32
	prevInvGainQ16 int32
	rewhiteFlag    bool

	// Per-frame scratch.
	ltpQ16   sampleHistory[int32] // LTP excitation history (Q16)
	ltpRaw   sampleHistory[int16] // re-whitened reconstruction
	xScQ10   [MaxSubfrLength]int32
	pulses   [MaxFrameLength]int8
	out      [MaxFrameLength]int16
	branches [MaxDelDecStates]delDecBranch
	children [MaxDelDecStates][2]branchChild
	gainQ16  delayRing // gain in force for each pending sample

	// Trace, when non-nil, receives per-frame diagnostics.
	Trace *NSQTrace
}

// NewNSQState returns a zeroed state ready for the first frame.
func NewNSQState() *NSQState {
	return &NSQState{prevInvGainQ16: unityQ16}
}

// Reset clears the state, e.g. after a sample-rate change. Trace is kept.
func (s *NSQState) Reset() {
	trace := s.Trace
	*s = NSQState{prevInvGainQ16: unityQ16, Trace: trace}
}

// CopyFrom makes s an exact copy of src, except for Trace.
func (s *NSQState) CopyFrom(src *NSQState) {
	trace := s.Trace
	*s = *src
	s.Trace = trace
}

// LagPrev returns the pitch lag of the last subframe of the previous frame.
func (s *NSQState) LagPrev() int { return s.lagPrev }

// PrevInvGainQ16 returns the inverse gain used by the most recent subframe.
func (s *NSQState) PrevInvGainQ16() int32 { return s.prevInvGainQ16 }

// Seed returns the running dither seed at the end of the last frame.
func (s *NSQState) Seed() int32 { return s.randSeed }

// beginFrame prepares the per-frame buffers and positions for a frame of n
// samples.
func (s *NSQState) beginFrame(n int) {
	s.shpBufIdx = n
	s.ltpBufIdx = n
	clear(s.ltpQ16[:])
	clear(s.ltpRaw[:])
}

// endFrame carries the frame's history into the next frame.
func (s *NSQState) endFrame(params *NSQParams) {
	n := params.FrameLength
	s.lagPrev = params.PitchL[NbSubfr-1]
	copy(s.out[:n], s.xq[n:2*n])
	s.xq.slide(n)
	s.shp.slide(n)
}

func (s *NSQState) output(params *NSQParams, seed, rdQ10 int32) NSQOutput {
	n := params.FrameLength
	return NSQOutput{
		Pulses: s.pulses[:n],
		Xq:     s.out[:n],
		Seed:   seed,
		RDQ10:  rdQ10,
	}
}
