// Package testsignal generates deterministic speech-band test signals and
// matching quantizer parameter frames.
package testsignal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	VariantAMMultisineV1  = "am_multisine_v1"
	VariantChirpSweepV1   = "chirp_sweep_v1"
	VariantImpulseTrainV1 = "impulse_train_v1"
	VariantSpeechLikeV1   = "speech_like_v1"
	VariantSilence        = "silence"
)

var signalVariants = []string{
	VariantAMMultisineV1,
	VariantChirpSweepV1,
	VariantImpulseTrainV1,
	VariantSpeechLikeV1,
	VariantSilence,
}

func SignalVariants() []string {
	out := make([]string, len(signalVariants))
	copy(out, signalVariants)
	return out
}

// GenerateSignal returns samples of a mono variant at sampleRate as 16-bit
// PCM. The same arguments always produce the same samples.
func GenerateSignal(variant string, sampleRate, samples int) ([]int16, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if samples <= 0 {
		return nil, fmt.Errorf("invalid sample count: %d", samples)
	}

	var signal []float64
	switch variant {
	case VariantAMMultisineV1:
		signal = generateAMMultisine(sampleRate, samples)
	case VariantChirpSweepV1:
		signal = generateChirpSweep(sampleRate, samples)
	case VariantImpulseTrainV1:
		signal = generateImpulseTrain(sampleRate, samples)
	case VariantSpeechLikeV1:
		signal = generateSpeechLike(sampleRate, samples)
	case VariantSilence:
		signal = make([]float64, samples)
	default:
		return nil, fmt.Errorf("unknown signal variant %q", variant)
	}

	pcm := make([]int16, samples)
	for i, v := range signal {
		pcm[i] = int16(math.Round(clipSample(v) * 32767))
	}
	return pcm, nil
}

// HashInt16LE returns the hex SHA-256 of samples in little-endian order.
func HashInt16LE(samples []int16) string {
	h := sha256.New()
	var b [2]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		_, _ = h.Write(b[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashInt8 returns the hex SHA-256 of a pulse sequence.
func HashInt8(pulses []int8) string {
	h := sha256.New()
	for _, p := range pulses {
		_, _ = h.Write([]byte{byte(p)})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func generateAMMultisine(sampleRate, samples int) []float64 {
	signal := make([]float64, samples)
	freqs := []float64{220, 610, 1400}
	amp := 0.3
	modFreqs := []float64{1.3, 2.7, 0.9}
	onsetSamples := int(0.010 * float64(sampleRate))
	for i := range signal {
		t := float64(i) / float64(sampleRate)
		var val float64
		for fi, f := range freqs {
			modDepth := 0.5 + 0.5*math.Sin(2*math.Pi*modFreqs[fi]*t)
			val += amp * modDepth * math.Sin(2*math.Pi*f*t)
		}
		if i < onsetSamples {
			frac := float64(i) / float64(onsetSamples)
			val *= frac * frac * frac
		}
		signal[i] = val
	}
	return signal
}

func generateChirpSweep(sampleRate, samples int) []float64 {
	signal := make([]float64, samples)
	duration := float64(samples) / float64(sampleRate)
	f0 := 60.0
	f1 := 0.45 * float64(sampleRate)
	k := math.Log(f1/f0) / duration
	for i := range signal {
		t := float64(i) / float64(sampleRate)
		phase := 2 * math.Pi * f0 * (math.Exp(k*t) - 1) / k
		env := 0.2 + 0.8*(0.5+0.5*math.Sin(2*math.Pi*0.41*t))
		val := 0.85 * env * math.Sin(phase)
		if i < int(0.005*float64(sampleRate)) {
			val *= float64(i) / (0.005 * float64(sampleRate))
		}
		signal[i] = val
	}
	return signal
}

func generateImpulseTrain(sampleRate, samples int) []float64 {
	signal := make([]float64, samples)
	period := max(int(0.0085*float64(sampleRate)), 4)
	decayT := 0.0035 * float64(sampleRate)
	for i := range signal {
		t := float64(i) / float64(sampleRate)
		pos := i % period
		val := 0.0
		if pos == 0 {
			val = 0.92
		}
		ring := math.Exp(-float64(pos)/decayT) * math.Sin(2*math.Pi*540*float64(pos)/float64(sampleRate))
		val += 0.75 * ring
		val += 0.02 * deterministicNoise(i, 17)
		env := 0.6 + 0.4*math.Sin(2*math.Pi*0.19*t)
		signal[i] = val * env
	}
	return signal
}

func generateSpeechLike(sampleRate, samples int) []float64 {
	signal := make([]float64, samples)
	var phase, prevNoise float64
	for i := range signal {
		t := float64(i) / float64(sampleRate)

		pitchHz := 115.0 + 28.0*math.Sin(2*math.Pi*0.63*t) + 16.0*math.Sin(2*math.Pi*0.17*t)
		phase += 2 * math.Pi * pitchHz / float64(sampleRate)
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
		voiced := math.Sin(phase) + 0.35*math.Sin(2*phase) + 0.2*math.Sin(3*phase)

		voicing := 0.5 + 0.5*math.Sin(2*math.Pi*0.78*t+0.25)
		syllable := 0.25 + 0.75*math.Pow(0.5+0.5*math.Sin(2*math.Pi*3.2*t), 2)

		noise := deterministicNoise(i, 71)
		high := noise - 0.86*prevNoise
		prevNoise = noise
		fric := 0.3 * float64(sampleRate)
		mix := voicing*voiced + (1.0-voicing)*(0.38*high+0.22*math.Sin(2*math.Pi*fric*t))

		signal[i] = 0.82 * syllable * mix
	}
	return signal
}

func deterministicNoise(sampleIdx, salt int) float64 {
	x := uint32(sampleIdx*1664525 + salt*2246822519)
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return float64(int32(x)) / 2147483647.0
}

func clipSample(v float64) float64 {
	if v > 0.98 {
		return 0.98
	}
	if v < -0.98 {
		return -0.98
	}
	return v
}
