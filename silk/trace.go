package silk

import "github.com/thesyncim/silknsq/util"

// NSQTrace captures per-frame quantizer diagnostics.
// When set on an NSQState, both quantizers populate it on every frame.
type NSQTrace struct {
	Frames int // frames traced so far

	Subframes [NbSubfr]SubframeTrace

	// Delayed-decision search; zero for the single-path quantizer.
	States        int
	DecisionDelay int
	Winner        int

	RDQ10 int32
	Seed  int32
}

// SubframeTrace describes the scaling and output of one subframe.
type SubframeTrace struct {
	Rewhitened  bool
	InvGainQ16  int32
	GainAdjQ16  int32 // 65536 when the gain did not change
	Lag         int
	Pulses      int // non-zero pulses
	PulseAbsSum int

	// MinCostQ10 is the lowest branch or candidate cost seen during the
	// subframe by the delayed-decision search; zero for the single-path
	// quantizer.
	MinCostQ10 int32
}

func (t *NSQTrace) subframe(k int, rewhitened bool, invGainQ16, gainAdjQ16 int32, lag int) {
	t.Subframes[k] = SubframeTrace{
		Rewhitened: rewhitened,
		InvGainQ16: invGainQ16,
		GainAdjQ16: gainAdjQ16,
		Lag:        lag,
	}
}

func (t *NSQTrace) finish(out NSQOutput, subfrLength, states, decisionDelay, winner int) {
	for k := range t.Subframes {
		sf := &t.Subframes[k]
		sf.Pulses, sf.PulseAbsSum = 0, 0
		for _, p := range out.Pulses[k*subfrLength : (k+1)*subfrLength] {
			if p != 0 {
				sf.Pulses++
			}
			sf.PulseAbsSum += int(util.Abs(p))
		}
	}
	t.States = states
	t.DecisionDelay = decisionDelay
	t.Winner = winner
	t.RDQ10 = out.RDQ10
	t.Seed = out.Seed
	t.Frames++
}
