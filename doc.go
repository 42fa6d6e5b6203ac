// Package silknsq provides the noise shaping quantization stage of a SILK
// speech encoder as a self-contained channel.
//
// A Channel turns one 20 ms frame of 16-bit input into excitation pulses,
// given the frame's predictor, pitch, noise shaping and gain parameters. It
// keeps the fixed-point feedback state a decoder reproduces, so consecutive
// frames must be quantized in order on the same Channel.
//
// # Quantizers
//
// Complexity 0 uses the single-path quantizer. Complexity 1 and 2 use the
// delayed-decision quantizer with 2 and 4 search states; it keeps several
// candidate pulse sequences alive and commits each sample DecisionDelay
// samples later, from the sequence with the lowest rate-distortion cost.
//
// # Redundancy
//
// With LBRR enabled, every Quantize call first snapshots the channel state.
// QuantizeLBRR then quantizes the same frame against that snapshot, typically
// with raised gains, to produce the low-bitrate redundant copy carried for
// in-band forward error correction.
//
// The arithmetic lives in package silk, which can also be used directly.
package silknsq
