// errors.go defines public error types for the silknsq package.

package silknsq

import "errors"

// Public error types for channel configuration and quantization.
var (
	// ErrInvalidSampleRate indicates an unsupported internal sample rate.
	// Valid sample rates are: 8000, 12000, 16000, 24000.
	ErrInvalidSampleRate = errors.New("silknsq: invalid sample rate (must be 8000, 12000, 16000, or 24000)")

	// ErrInvalidComplexity indicates the complexity is out of valid range.
	// Valid complexity values are 0 to 2.
	ErrInvalidComplexity = errors.New("silknsq: invalid complexity (must be 0-2)")

	// ErrInvalidDecisionDelay indicates a decision delay outside 0-32, or zero
	// delay with more than one search state.
	ErrInvalidDecisionDelay = errors.New("silknsq: invalid decision delay")

	// ErrInvalidLPCOrder indicates an odd or out-of-range predictor or shaping order.
	// Predictor orders are 10-16, shaping orders 2-16, both even.
	ErrInvalidLPCOrder = errors.New("silknsq: invalid LPC order")

	// ErrGeometryMismatch indicates frame parameters whose frame length or filter
	// orders differ from the channel configuration.
	ErrGeometryMismatch = errors.New("silknsq: frame parameters do not match channel geometry")

	// ErrLBRRDisabled indicates a redundancy quantization request on a channel
	// configured without LBRR.
	ErrLBRRDisabled = errors.New("silknsq: LBRR not enabled")

	// ErrNoLBRRSnapshot indicates QuantizeLBRR was called before any frame was
	// quantized since the last reset.
	ErrNoLBRRSnapshot = errors.New("silknsq: no state snapshot for LBRR")
)

// validSampleRate returns true if the rate is a SILK internal rate.
func validSampleRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000:
		return true
	default:
		return false
	}
}
