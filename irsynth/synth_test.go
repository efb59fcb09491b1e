package irsynth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
)

func TestGenerateLengthAndFinite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 16000
	cfg.NormalizePeak = 0.8

	ir, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := int(math.Round(1.5 * 16000))
	if len(ir) != want {
		t.Fatalf("unexpected length: got=%d want=%d", len(ir), want)
	}
	peak := 0.0
	for i, v := range ir {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.8) > 1e-4 {
		t.Fatalf("unexpected normalization peak: got=%f want=%f", peak, 0.8)
	}
}

func TestGenerateDecays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 16000
	cfg.DecayRate = 0

	ir, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	early := windowRMS(ir, 0, 1600)
	late := windowRMS(ir, 14400, 16000)
	// One second in, the envelope is down 60 dB.
	if late > early*0.01 {
		t.Fatalf("tail not decaying: early=%f late=%f", early, late)
	}
}

func TestFadeInShapesOnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 16000

	flat := cfg
	flat.DecayRate = 0
	steep := cfg
	steep.DecayRate = 4

	a, err := Generate(flat)
	if err != nil {
		t.Fatalf("Generate flat: %v", err)
	}
	b, err := Generate(steep)
	if err != nil {
		t.Fatalf("Generate steep: %v", err)
	}
	// Same seed, so only the fade-in differs.
	if windowRMS(b, 0, 800) >= windowRMS(a, 0, 800)*0.5 {
		t.Fatalf("steep fade-in should attenuate the onset: flat=%f steep=%f", windowRMS(a, 0, 800), windowRMS(b, 0, 800))
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Seed = 99
	cfg.Color = dsp.NoisePink
	cfg.DampingHz = 2000

	a, err := Generate(cfg)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}
}

func TestStereoWidthZeroIsMono(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.StereoWidth = 0

	l, r, err := GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("GenerateStereo: %v", err)
	}
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("channels differ at %d with zero width", i)
		}
	}

	cfg.StereoWidth = 1
	l, r, err = GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("GenerateStereo: %v", err)
	}
	same := true
	for i := range l {
		if l[i] != r[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected decorrelated channels at full width")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"sample rate", func(c *Config) { c.SampleRate = 100 }},
		{"decay", func(c *Config) { c.DecayS = 0 }},
		{"decay rate", func(c *Config) { c.DecayRate = 5 }},
		{"length factor", func(c *Config) { c.LengthFactor = 0.5 }},
		{"damping", func(c *Config) { c.DampingHz = 1e6 }},
		{"width", func(c *Config) { c.StereoWidth = 2 }},
		{"color", func(c *Config) { c.Color = dsp.NoiseColor(7) }},
	}
	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.mod(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func windowRMS(x []float32, from, to int) float64 {
	sum := 0.0
	for _, v := range x[from:to] {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(to-from))
}
