// channel.go implements the per-channel quantization driver.

package silknsq

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/thesyncim/silknsq/silk"
)

// Channel quantizes consecutive frames of one audio channel.
//
// A Channel owns the quantizer state the decoder mirrors and, when LBRR is
// enabled, a second state for the redundant low-bitrate copy. It is not safe
// for concurrent use.
type Channel struct {
	cfg       Config
	settings  silk.ComplexitySettings
	quantizer silk.Quantizer
	logger    *slog.Logger

	state     *silk.NSQState
	lbrr      *silk.NSQState
	params    silk.NSQParams
	pcm       [silk.MaxFrameLength]int16 // converted float input
	lastFrame [silk.MaxFrameLength]int16 // input of the frame the LBRR snapshot belongs to

	frames       int
	haveSnapshot bool
}

// NewChannel creates a channel from cfg.
//
// Returns an error if the configuration is invalid.
func NewChannel(cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	settings, err := silk.SettingsForComplexity(cfg.Complexity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidComplexity, err)
	}
	c := &Channel{
		cfg:      cfg,
		settings: settings,
		logger:   cfg.Logger,
		state:    silk.NewNSQState(),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Warping || settings.NStatesDelayedDecision > 1 {
		c.quantizer = silk.DelDecQuantizer{}
	} else {
		c.quantizer = silk.SimpleQuantizer{}
	}
	if cfg.LBRR {
		c.lbrr = silk.NewNSQState()
	}
	c.applyGeometry(&c.params)
	return c, nil
}

// applyGeometry writes the configured frame geometry and search fields into p.
func (c *Channel) applyGeometry(p *silk.NSQParams) {
	p.FrameLength = c.cfg.frameLength()
	p.SubfrLength = p.FrameLength / silk.NbSubfr
	p.PredLPCOrder = c.cfg.predictOrder()
	p.ShapeLPCOrder = c.cfg.shapingOrder(c.settings)
	c.applySearch(p)
}

// applySearch writes the delayed-decision fields into p.
func (c *Channel) applySearch(p *silk.NSQParams) {
	p.NStatesDelayedDecision = c.settings.NStatesDelayedDecision
	p.DecisionDelay = c.cfg.DecisionDelay
	if p.DecisionDelay == 0 {
		p.NStatesDelayedDecision = 1
	}
	p.WarpingQ16 = 0
	if c.cfg.Warping {
		p.WarpingQ16 = silk.WarpingQ16(c.cfg.SampleRate / 1000)
	}
}

// Params returns the channel-owned parameter block with the frame geometry and
// search fields filled in. Callers fill the per-frame coefficients and pass it
// to Quantize.
func (c *Channel) Params() *silk.NSQParams {
	return &c.params
}

// Config returns the channel configuration.
func (c *Channel) Config() Config {
	return c.cfg
}

// Name returns the name of the quantizer in use.
func (c *Channel) Name() string {
	return c.quantizer.Name()
}

// Frames returns the number of frames quantized since the last reset.
func (c *Channel) Frames() int {
	return c.frames
}

// FrameLength returns the samples per frame.
func (c *Channel) FrameLength() int {
	return c.cfg.frameLength()
}

// SetTrace attaches t to the main quantizer state. Nil disables tracing.
func (c *Channel) SetTrace(t *silk.NSQTrace) {
	c.state.Trace = t
}

// checkGeometry reports whether p was built for this channel.
func (c *Channel) checkGeometry(p *silk.NSQParams) error {
	if p == nil {
		return fmt.Errorf("%w: nil parameters", ErrGeometryMismatch)
	}
	n := c.cfg.frameLength()
	if p.FrameLength != n || p.SubfrLength != n/silk.NbSubfr {
		return fmt.Errorf("%w: frame length %d, want %d", ErrGeometryMismatch, p.FrameLength, n)
	}
	if p.PredLPCOrder != c.cfg.predictOrder() || p.ShapeLPCOrder != c.cfg.shapingOrder(c.settings) {
		return fmt.Errorf("%w: orders %d/%d, want %d/%d", ErrGeometryMismatch,
			p.PredLPCOrder, p.ShapeLPCOrder, c.cfg.predictOrder(), c.cfg.shapingOrder(c.settings))
	}
	return nil
}

// Quantize quantizes one frame of x with the coefficients in p.
//
// The search fields of p are overwritten from the configuration. With LBRR
// enabled the state is first copied into the redundancy state. The returned
// slices stay valid until the next call to Quantize.
func (c *Channel) Quantize(x []int16, p *silk.NSQParams) (silk.NSQOutput, error) {
	if err := c.checkGeometry(p); err != nil {
		return silk.NSQOutput{}, err
	}
	c.applySearch(p)
	if c.lbrr != nil {
		c.lbrr.CopyFrom(c.state)
		copy(c.lastFrame[:], x)
		c.haveSnapshot = true
	}
	out, err := c.quantizer.Quantize(c.state, x, p)
	if err != nil {
		return silk.NSQOutput{}, fmt.Errorf("frame %d: %w", c.frames, err)
	}
	c.frames++
	c.logFrame("quantized frame", p, out)
	return out, nil
}

// QuantizeLBRR quantizes the frame last passed to Quantize again, starting from
// the state that frame started from. Callers normally raise the gains in p
// first. The returned slices stay valid until the next call to QuantizeLBRR.
func (c *Channel) QuantizeLBRR(x []int16, p *silk.NSQParams) (silk.NSQOutput, error) {
	if c.lbrr == nil {
		return silk.NSQOutput{}, ErrLBRRDisabled
	}
	if !c.haveSnapshot {
		return silk.NSQOutput{}, ErrNoLBRRSnapshot
	}
	if err := c.checkGeometry(p); err != nil {
		return silk.NSQOutput{}, err
	}
	c.applySearch(p)
	out, err := c.quantizer.Quantize(c.lbrr, x, p)
	if err != nil {
		return silk.NSQOutput{}, fmt.Errorf("lbrr frame %d: %w", c.frames-1, err)
	}
	c.logFrame("quantized lbrr frame", p, out)
	return out, nil
}

func (c *Channel) logFrame(msg string, p *silk.NSQParams, out silk.NSQOutput) {
	ctx := context.Background()
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, msg,
		slog.Int("frame", c.frames-1),
		slog.String("signal", p.SignalType.String()),
		slog.Int("seed", int(out.Seed)),
		slog.Int("rd_q10", int(out.RDQ10)),
		slog.String("quantizer", c.quantizer.Name()),
	)
}

// Reset clears both quantizer states, as after a decoder reset.
func (c *Channel) Reset() {
	c.state.Reset()
	if c.lbrr != nil {
		c.lbrr.Reset()
	}
	c.frames = 0
	c.haveSnapshot = false
}

// SetSampleRate switches the internal sample rate. The frame geometry changes,
// so both states are reset and the parameter block is rebuilt.
func (c *Channel) SetSampleRate(rate int) error {
	if !validSampleRate(rate) {
		return ErrInvalidSampleRate
	}
	cfg := c.cfg
	cfg.SampleRate = rate
	if err := cfg.Validate(); err != nil {
		return err
	}
	changed := rate != c.cfg.SampleRate
	c.cfg = cfg
	c.applyGeometry(&c.params)
	if changed {
		c.logger.Info("sample rate changed", "rate", rate)
		c.Reset()
	}
	return nil
}
