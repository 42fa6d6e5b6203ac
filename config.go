// config.go defines the channel configuration.

package silknsq

import (
	"fmt"
	"log/slog"

	"github.com/thesyncim/silknsq/silk"
)

// Config describes a quantization channel.
type Config struct {
	// SampleRate is the internal rate: 8000, 12000, 16000 or 24000.
	SampleRate int

	// Complexity selects the quantizer, 0-2.
	Complexity int

	// PredictLPCOrder is the short-term predictor order. Zero selects 10
	// below 16 kHz and 16 otherwise.
	PredictLPCOrder int

	// ShapingLPCOrder is the noise shaping filter order. Zero selects the
	// order of the complexity level.
	ShapingLPCOrder int

	// DecisionDelay is the commit delay of the delayed-decision quantizer.
	DecisionDelay int

	// Warping enables the warped shaping filter.
	Warping bool

	// LBRR keeps a redundancy state for QuantizeLBRR.
	LBRR bool

	// Logger receives per-frame debug records. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the highest-complexity configuration at sampleRate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:    sampleRate,
		Complexity:    silk.MaxComplexity,
		DecisionDelay: silk.DecisionDelay,
		Warping:       true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !validSampleRate(c.SampleRate) {
		return ErrInvalidSampleRate
	}
	settings, err := silk.SettingsForComplexity(c.Complexity)
	if err != nil {
		return ErrInvalidComplexity
	}
	if o := c.PredictLPCOrder; o != 0 && (o < silk.MinLPCOrder || o > silk.MaxLPCOrder || o&1 != 0) {
		return fmt.Errorf("%w: predictor order %d", ErrInvalidLPCOrder, o)
	}
	if o := c.ShapingLPCOrder; o != 0 && (o < 2 || o > silk.MaxShapeLPCOrder || o&1 != 0) {
		return fmt.Errorf("%w: shaping order %d", ErrInvalidLPCOrder, o)
	}
	if c.DecisionDelay < 0 || c.DecisionDelay > silk.DecisionDelay {
		return fmt.Errorf("%w: got %d", ErrInvalidDecisionDelay, c.DecisionDelay)
	}
	if c.DecisionDelay == 0 && settings.NStatesDelayedDecision > 1 {
		return fmt.Errorf("%w: complexity %d needs a non-zero delay", ErrInvalidDecisionDelay, c.Complexity)
	}
	return nil
}

// predictOrder returns the effective predictor order.
func (c Config) predictOrder() int {
	if c.PredictLPCOrder != 0 {
		return c.PredictLPCOrder
	}
	if c.SampleRate < 16000 {
		return silk.MinLPCOrder
	}
	return silk.MaxLPCOrder
}

// shapingOrder returns the effective shaping order.
func (c Config) shapingOrder(settings silk.ComplexitySettings) int {
	if c.ShapingLPCOrder != 0 {
		return c.ShapingLPCOrder
	}
	return settings.ShapeLPCOrder
}

// frameLength returns the samples in a 20 ms frame.
func (c Config) frameLength() int {
	return 20 * c.SampleRate / 1000
}
