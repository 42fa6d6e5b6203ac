package silk

// Quantizer is a noise shaping quantization strategy, chosen once per
// channel configuration and invoked for every frame.
type Quantizer interface {
	Quantize(nsq *NSQState, input []int16, params *NSQParams) (NSQOutput, error)
	Name() string
}

// SimpleQuantizer is the single-path quantizer.
type SimpleQuantizer struct{}

func (SimpleQuantizer) Quantize(nsq *NSQState, input []int16, params *NSQParams) (NSQOutput, error) {
	return NoiseShapeQuantize(nsq, input, params)
}

func (SimpleQuantizer) Name() string { return "simple" }

// DelDecQuantizer is the delayed-decision quantizer. The search width and
// delay come from the frame parameters.
type DelDecQuantizer struct{}

func (DelDecQuantizer) Quantize(nsq *NSQState, input []int16, params *NSQParams) (NSQOutput, error) {
	return NoiseShapeQuantizeDelDec(nsq, input, params)
}

func (DelDecQuantizer) Name() string { return "delayed-decision" }

// MaxComplexity is the highest supported complexity level.
const MaxComplexity = 2

// ComplexitySettings are the quantizer settings an encoder uses at a given
// complexity level.
type ComplexitySettings struct {
	NStatesDelayedDecision int
	ShapeLPCOrder          int
	Warping                bool // warp the AR shaping filter by WarpingQ16(fsKHz)
}

var complexitySettings = [MaxComplexity + 1]ComplexitySettings{
	{NStatesDelayedDecision: 1, ShapeLPCOrder: 8},
	{NStatesDelayedDecision: 2, ShapeLPCOrder: 12, Warping: true},
	{NStatesDelayedDecision: 4, ShapeLPCOrder: 16, Warping: true},
}

// SettingsForComplexity returns the quantizer settings of a complexity level.
func SettingsForComplexity(complexity int) (ComplexitySettings, error) {
	if complexity < 0 || complexity > MaxComplexity {
		return ComplexitySettings{}, preconditionf("complexity", "got %d, want [0, %d]", complexity, MaxComplexity)
	}
	return complexitySettings[complexity], nil
}

// QuantizerForComplexity returns the quantizer used at a complexity level:
// the single-path quantizer at 0 and the delayed-decision one above.
func QuantizerForComplexity(complexity int) (Quantizer, error) {
	settings, err := SettingsForComplexity(complexity)
	if err != nil {
		return nil, err
	}
	if settings.NStatesDelayedDecision > 1 || settings.Warping {
		return DelDecQuantizer{}, nil
	}
	return SimpleQuantizer{}, nil
}
