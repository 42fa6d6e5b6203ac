package silknsq

import (
	"fmt"
	"math"

	"github.com/thesyncim/silknsq/silk"
)

// float32ToInt16 converts a sample in [-1, 1) to 16-bit PCM, saturating
// out-of-range input and rounding half to even.
func float32ToInt16(sample float32) int16 {
	scaled := float64(sample) * 32768.0
	if scaled > 32767.0 {
		return 32767
	}
	if scaled < -32768.0 {
		return -32768
	}
	return int16(math.RoundToEven(scaled))
}

// QuantizeFloat32 converts one frame of float PCM to 16 bits and quantizes it
// like Quantize.
func (c *Channel) QuantizeFloat32(pcm []float32, p *silk.NSQParams) (silk.NSQOutput, error) {
	x, err := c.convert(pcm)
	if err != nil {
		return silk.NSQOutput{}, err
	}
	return c.Quantize(x, p)
}

// QuantizeLBRRFloat32 is QuantizeLBRR on the frame last passed to Quantize or
// QuantizeFloat32, as the channel kept it in 16 bits.
func (c *Channel) QuantizeLBRRFloat32(p *silk.NSQParams) (silk.NSQOutput, error) {
	return c.QuantizeLBRR(c.lastFrame[:c.cfg.frameLength()], p)
}

func (c *Channel) convert(pcm []float32) ([]int16, error) {
	n := c.cfg.frameLength()
	if len(pcm) != n {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrGeometryMismatch, len(pcm), n)
	}
	x := c.pcm[:n]
	for i, v := range pcm {
		x[i] = float32ToInt16(v)
	}
	return x, nil
}
