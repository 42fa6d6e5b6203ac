package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/thesyncim/silknsq"
	"github.com/thesyncim/silknsq/internal/testsignal"
	"github.com/thesyncim/silknsq/silk"
)

// frameRecord is one line of the JSON trace.
type frameRecord struct {
	RunID       string           `json:"run_id"`
	Frame       int              `json:"frame"`
	Signal      string           `json:"signal"`
	Seed        int32            `json:"seed"`
	RDQ10       int32            `json:"rd_q10"`
	States      int              `json:"states,omitempty"`
	Delay       int              `json:"delay,omitempty"`
	Winner      int              `json:"winner,omitempty"`
	Pulses      int              `json:"pulses"`
	PulseAbsSum int              `json:"pulse_abs_sum"`
	PulseHash   string           `json:"pulse_hash"`
	LBRRHash    string           `json:"lbrr_pulse_hash,omitempty"`
	Verified    *bool            `json:"verified,omitempty"`
	Subframes   []subframeRecord `json:"subframes"`
}

type subframeRecord struct {
	Rewhitened bool  `json:"rewhitened"`
	InvGainQ16 int32 `json:"inv_gain_q16"`
	GainAdjQ16 int32 `json:"gain_adj_q16"`
	Lag        int   `json:"lag"`
	Pulses     int   `json:"pulses"`
}

var errMismatch = errors.New("decoded output differs from the quantizer reconstruction")

func run(opts options, stdout, stderr io.Writer, logger *slog.Logger) error {
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	cfg := silknsq.DefaultConfig(opts.rate)
	cfg.Complexity = opts.complexity
	cfg.DecisionDelay = opts.delay
	cfg.Warping = opts.warping
	cfg.LBRR = opts.lbrr
	cfg.Logger = logger
	ch, err := silknsq.NewChannel(cfg)
	if err != nil {
		return err
	}
	builder, err := testsignal.NewFrameBuilder(opts.rate)
	if err != nil {
		return err
	}
	builder.PredLPCOrder = ch.Params().PredLPCOrder
	builder.ShapeLPCOrder = ch.Params().ShapeLPCOrder
	builder.Interpolate = true
	builder.GainStep = true

	n := ch.FrameLength()
	x, err := testsignal.GenerateSignal(opts.signal, opts.rate, opts.frames*n)
	if err != nil {
		return err
	}

	var (
		store *traceStore
		base  *baseline
	)
	if opts.store != "" {
		store, err = openStore(opts.store)
		if err != nil {
			return err
		}
		defer store.Close()
		if opts.baseline != "" {
			base, err = store.loadBaseline(opts.baseline)
			if err != nil {
				return err
			}
		}
	}

	var enc *json.Encoder
	switch opts.out {
	case "":
	case "-":
		enc = json.NewEncoder(stdout)
	default:
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		enc = json.NewEncoder(f)
	}

	logger.Info("tracing",
		"quantizer", ch.Name(),
		"rate", opts.rate,
		"complexity", opts.complexity,
		"frames", opts.frames,
		"signal", opts.signal,
		"kernel", silk.PredictionKernel(),
	)

	var (
		trace     silk.NSQTrace
		synth     *silk.Synthesizer
		lbrrP     silk.NSQParams
		stats     = newSummary()
		records   []frameRecord
		mismatchN int
	)
	ch.SetTrace(&trace)
	if opts.verify {
		synth = silk.NewSynthesizer()
	}

	for f := 0; f < opts.frames; f++ {
		frame := x[f*n : (f+1)*n]
		p := ch.Params()
		if err := builder.Fill(f, frame, p); err != nil {
			return err
		}
		out, err := ch.Quantize(frame, p)
		if err != nil {
			return err
		}
		rec := newFrameRecord(runID, f, p.SignalType, out, &trace)

		if synth != nil {
			got, err := synth.Synthesize(out.Pulses, out.Seed, p)
			if err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			ok := slices.Equal(got, out.Xq)
			rec.Verified = &ok
			if !ok {
				mismatchN++
				logger.Warn("decoder mismatch", "frame", f)
			}
		}

		if opts.lbrr {
			lbrrP = *p
			for k := range lbrrP.GainsQ16 {
				lbrrP.GainsQ16[k] += lbrrP.GainsQ16[k] >> 1
			}
			red, err := ch.QuantizeLBRR(frame, &lbrrP)
			if err != nil {
				return err
			}
			rec.LBRRHash = testsignal.HashInt8(red.Pulses)
		}

		stats.add(rec)
		if store != nil {
			records = append(records, rec)
		}
		if enc != nil {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	}

	w := stdout
	if opts.out == "-" {
		w = stderr
	}
	stats.write(w, ch.Name(), silk.PredictionKernel())

	if base != nil {
		diff, err := base.compare(metaFor(opts), records)
		if err != nil {
			return err
		}
		if len(diff) > 0 {
			logger.Warn("baseline differs", "baseline", base.runID, "frames", diff)
			return fmt.Errorf("%d of %d frames against run %s: %w", len(diff), opts.frames, base.runID, errBaselineMismatch)
		}
		logger.Info("matches baseline", "baseline", base.runID)
	}
	if store != nil {
		if err := store.saveRun(runID, metaFor(opts), records); err != nil {
			return err
		}
		logger.Info("stored run", "store", opts.store)
	}
	if mismatchN > 0 {
		return fmt.Errorf("%d of %d frames: %w", mismatchN, opts.frames, errMismatch)
	}
	return nil
}

func newFrameRecord(runID string, frame int, st silk.SignalType, out silk.NSQOutput, t *silk.NSQTrace) frameRecord {
	rec := frameRecord{
		RunID:     runID,
		Frame:     frame,
		Signal:    st.String(),
		Seed:      out.Seed,
		RDQ10:     out.RDQ10,
		States:    t.States,
		Delay:     t.DecisionDelay,
		Winner:    t.Winner,
		PulseHash: testsignal.HashInt8(out.Pulses),
		Subframes: make([]subframeRecord, silk.NbSubfr),
	}
	for k, s := range t.Subframes {
		rec.Pulses += s.Pulses
		rec.PulseAbsSum += s.PulseAbsSum
		rec.Subframes[k] = subframeRecord{
			Rewhitened: s.Rewhitened,
			InvGainQ16: s.InvGainQ16,
			GainAdjQ16: s.GainAdjQ16,
			Lag:        s.Lag,
			Pulses:     s.Pulses,
		}
	}
	return rec
}
