package dsp

import (
	"math"
	"math/rand"
)

// NoiseColor selects the spectral tilt of generated noise.
type NoiseColor int

const (
	NoiseWhite NoiseColor = iota
	NoisePink
	NoiseBrown
)

func (c NoiseColor) String() string {
	switch c {
	case NoiseWhite:
		return "white"
	case NoisePink:
		return "pink"
	case NoiseBrown:
		return "brown"
	default:
		return "unknown"
	}
}

// ParseNoiseColor accepts "white", "pink" or "brown".
func ParseNoiseColor(s string) (NoiseColor, bool) {
	switch s {
	case "white":
		return NoiseWhite, true
	case "pink":
		return NoisePink, true
	case "brown":
		return NoiseBrown, true
	}
	return NoiseWhite, false
}

// FillNoise writes noise of the given color into buf.
func FillNoise(buf []float64, color NoiseColor, rng *rand.Rand) {
	switch color {
	case NoisePink:
		fillPink(buf, rng)
	case NoiseBrown:
		fillBrown(buf, rng)
	default:
		fillWhite(buf, rng)
	}
}

func fillWhite(buf []float64, rng *rand.Rand) {
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
}

// fillPink uses Paul Kellet's refined -3 dB/octave filter.
func fillPink(buf []float64, rng *rand.Rand) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range buf {
		white := rng.Float64()*2 - 1
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		buf[i] = 0.11 * (b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*0.5362)
		b6 = white * 0.115926
	}
}

// fillBrown is a leaky integrator with fixed make-up gain.
func fillBrown(buf []float64, rng *rand.Rand) {
	last := 0.0
	for i := range buf {
		white := rng.Float64()*2 - 1
		last = (last + 0.02*white) / 1.02
		buf[i] = last * 3.5
	}
}

// NormalizePeak scales buf so its largest magnitude sits just below peak.
func NormalizePeak(buf []float64, peak float64) {
	m := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	if m < 1e-12 {
		return
	}
	s := math.Abs(peak/m - 1e-12)
	for i := range buf {
		buf[i] *= s
	}
}
