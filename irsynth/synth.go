package irsynth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-monosynth/dsp"
)

// Config controls synthetic reverb IR generation. The IR is noise shaped by
// an exponential decay that reaches -60 dB after DecayS, with a power-law
// fade-in over the first FadeInS seconds:
//
//	ir[i] = noise[i] * base^i * (i/fadeFrames)^DecayRate   (i < fadeFrames)
//	base  = (1/1000)^(1/decayFrames)
type Config struct {
	SampleRate int
	DecayS     float64
	FadeInS    float64
	// LengthFactor scales DecayS into the total IR length.
	LengthFactor float64
	DecayRate    float64
	Seed         int64
	Color        dsp.NoiseColor

	// DampingHz low-passes the tail; 0 disables it.
	DampingHz   float64
	StereoWidth float64
	FadeOutS    float64

	// NormalizePeak rescales the IR to this peak; 0 keeps the raw level.
	NormalizePeak float64
}

const (
	MinDecayRate     = 0.0
	MaxDecayRate     = 4.0
	DefaultDecayRate = 1.0
)

func DefaultConfig() Config {
	return Config{
		SampleRate:   48000,
		DecayS:       1.0,
		FadeInS:      0.5,
		LengthFactor: 1.5,
		DecayRate:    DefaultDecayRate,
		Seed:         1,
		Color:        dsp.NoiseWhite,
		StereoWidth:  0.5,
	}
}

// DurationS is the total IR length in seconds.
func (c *Config) DurationS() float64 {
	return c.DecayS * c.LengthFactor
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DecayS <= 0 {
		return fmt.Errorf("decay must be > 0")
	}
	if c.FadeInS < 0 {
		return fmt.Errorf("fade-in must be >= 0")
	}
	if c.LengthFactor < 1 {
		return fmt.Errorf("length factor must be >= 1")
	}
	if c.DecayRate < MinDecayRate || c.DecayRate > MaxDecayRate {
		return fmt.Errorf("decay rate %g not in [%g, %g]", c.DecayRate, MinDecayRate, MaxDecayRate)
	}
	if c.Color < dsp.NoiseWhite || c.Color > dsp.NoiseBrown {
		return fmt.Errorf("unknown noise color %d", c.Color)
	}
	if c.DampingHz < 0 || c.DampingHz >= 0.5*float64(c.SampleRate) {
		return fmt.Errorf("damping must be in [0, nyquist)")
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0, 1]")
	}
	if c.FadeOutS < 0 {
		return fmt.Errorf("fade-out must be >= 0")
	}
	if c.NormalizePeak < 0 {
		return fmt.Errorf("normalize peak must be >= 0")
	}
	return nil
}

// Generate synthesizes a mono IR according to cfg.
func Generate(cfg Config) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buf := render(cfg, cfg.Seed)
	normalize(cfg.NormalizePeak, buf)
	return toFloat32(buf), nil
}

// GenerateStereo synthesizes two IRs from independent noise. StereoWidth
// blends from identical channels (0) to fully decorrelated ones (1).
func GenerateStereo(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	left := render(cfg, cfg.Seed)
	other := render(cfg, cfg.Seed+1)
	right := make([]float64, len(left))
	for i := range right {
		right[i] = (1-cfg.StereoWidth)*left[i] + cfg.StereoWidth*other[i]
	}
	normalize(cfg.NormalizePeak, left, right)
	return toFloat32(left), toFloat32(right), nil
}

func render(cfg Config, seed int64) []float64 {
	sr := float64(cfg.SampleRate)
	n := int(math.Round(cfg.DurationS() * sr))
	if n < 1 {
		n = 1
	}
	buf := make([]float64, n)
	dsp.FillNoise(buf, cfg.Color, rand.New(rand.NewSource(seed)))

	decayFrames := math.Round(cfg.DecayS * sr)
	base := math.Pow(1.0/1000.0, 1.0/decayFrames)
	env := 1.0
	for i := range buf {
		buf[i] *= env
		env *= base
	}

	fade := int(math.Round(cfg.FadeInS * sr))
	if fade > n {
		fade = n
	}
	for i := 0; i < fade; i++ {
		buf[i] *= math.Pow(float64(i)/float64(fade), cfg.DecayRate)
	}

	if cfg.DampingHz > 0 {
		s := biquad.NewSection(dsp.LowpassCoefficients(cfg.DampingHz, sr, math.Sqrt2/2))
		for i := range buf {
			buf[i] = s.ProcessSample(buf[i])
		}
	}
	highpassDC(buf, 0.995)
	applyFadeOut(buf, cfg.FadeOutS, cfg.SampleRate)
	return buf
}

func normalize(peak float64, chans ...[]float64) {
	if peak <= 0 {
		return
	}
	m := 0.0
	for _, c := range chans {
		if p := maxAbs(c); p > m {
			m = p
		}
	}
	if m < 1e-12 {
		return
	}
	s := peak / m
	for _, c := range chans {
		for i := range c {
			c[i] *= s
		}
	}
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

func highpassDC(x []float64, r float64) {
	prevIn, prevOut := 0.0, 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// applyFadeOut applies a cosine fade-out to the last fadeS seconds of buf.
func applyFadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fadeSamples := int(math.Round(fadeS * float64(sampleRate)))
	if fadeSamples > len(buf) {
		fadeSamples = len(buf)
	}
	start := len(buf) - fadeSamples
	for i := 0; i < fadeSamples; i++ {
		t := float64(i) / float64(fadeSamples)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}
