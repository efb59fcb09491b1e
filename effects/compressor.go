package effects

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-monosynth/dsp"
)

const (
	MinCompressorThreshold     = -100.0
	MaxCompressorThreshold     = 0.0
	DefaultCompressorThreshold = -24.0

	MinCompressorKnee     = 0.0
	MaxCompressorKnee     = 40.0
	DefaultCompressorKnee = 30.0

	MinCompressorRatio     = 1.0
	MaxCompressorRatio     = 20.0
	DefaultCompressorRatio = 12.0

	MinCompressorAttack     = 0.0
	MaxCompressorAttack     = 1.0
	DefaultCompressorAttack = 0.003

	MinCompressorRelease     = 0.0
	MaxCompressorRelease     = 1.0
	DefaultCompressorRelease = 0.25

	// Detector limits of the dynamics processor.
	procMaxKnee       = 24.0
	procMinAttackMs   = 0.1
	procMinReleaseMs  = 1.0
	makeupReductionFS = 0.6
)

// Compressor is a feed-forward peak compressor with a soft knee. Makeup gain
// is 0.6 times the static reduction at full scale. Knees wider than 24 dB
// and detector times shorter than the processor allows are clamped.
type Compressor struct {
	router
	proc *dynamics.Compressor

	threshold float64
	knee      float64
	ratio     float64
	attack    float64
	release   float64
}

func NewCompressor(ctx *dsp.Context) *Compressor {
	c := &Compressor{
		router:    newRouter(ctx, "compressor"),
		threshold: DefaultCompressorThreshold,
		knee:      DefaultCompressorKnee,
		ratio:     DefaultCompressorRatio,
		attack:    DefaultCompressorAttack,
		release:   DefaultCompressorRelease,
	}
	proc, err := dynamics.NewCompressor(float64(ctx.SampleRate()))
	if err != nil {
		ctx.Logger().Error("compressor unavailable", "err", err)
		return c
	}
	c.proc = proc
	if err := c.configure(); err != nil {
		ctx.Logger().Error("compressor defaults rejected", "err", err)
	}
	return c
}

func (c *Compressor) Process(x float64) float64 {
	return c.route(x, c.compress)
}

func (c *Compressor) compress(x float64) float64 {
	if c.proc == nil {
		return x
	}
	return dsp.FlushDenormals(c.proc.ProcessSample(x))
}

// configure pushes every setting into the processor and recomputes makeup.
func (c *Compressor) configure() error {
	if c.proc == nil {
		return nil
	}
	steps := []func() error{
		func() error { return c.proc.SetThreshold(c.threshold) },
		func() error { return c.proc.SetRatio(c.ratio) },
		func() error { return c.proc.SetKnee(math.Min(c.knee, procMaxKnee)) },
		func() error { return c.proc.SetAttack(math.Max(c.attack*1000, procMinAttackMs)) },
		func() error { return c.proc.SetRelease(math.Max(c.release*1000, procMinReleaseMs)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return c.proc.SetMakeupGain(-makeupReductionFS * c.staticGainDB(0))
}

// staticGainDB is the steady-state gain change for an input level in dBFS,
// excluding makeup.
func (c *Compressor) staticGainDB(in float64) float64 {
	if c.proc == nil {
		return 0
	}
	lin := math.Pow(10, in/20)
	return 20*math.Log10(c.proc.CalculateOutputLevel(lin)/lin) - c.proc.MakeupGain()
}

// Curve is the static input/output characteristic in dB, without makeup.
func (c *Compressor) Curve(in float64) float64 {
	return in + c.staticGainDB(in)
}

func (c *Compressor) set(op, name string, v, lo, hi float64, dst *float64) error {
	if err := checkRange(name, v, lo, hi); err != nil {
		return c.reject(op, err)
	}
	prev := *dst
	*dst = v
	if err := c.configure(); err != nil {
		*dst = prev
		_ = c.configure()
		return c.reject(op, err)
	}
	return nil
}

func (c *Compressor) SetThreshold(db float64) error {
	return c.set("SetThreshold", "compressor threshold", db, MinCompressorThreshold, MaxCompressorThreshold, &c.threshold)
}

func (c *Compressor) SetKnee(db float64) error {
	return c.set("SetKnee", "compressor knee", db, MinCompressorKnee, MaxCompressorKnee, &c.knee)
}

func (c *Compressor) SetRatio(ratio float64) error {
	return c.set("SetRatio", "compressor ratio", ratio, MinCompressorRatio, MaxCompressorRatio, &c.ratio)
}

func (c *Compressor) SetAttack(seconds float64) error {
	return c.set("SetAttack", "compressor attack", seconds, MinCompressorAttack, MaxCompressorAttack, &c.attack)
}

func (c *Compressor) SetRelease(seconds float64) error {
	return c.set("SetRelease", "compressor release", seconds, MinCompressorRelease, MaxCompressorRelease, &c.release)
}

func (c *Compressor) Threshold() float64 { return c.threshold }
func (c *Compressor) Knee() float64      { return c.knee }
func (c *Compressor) Ratio() float64     { return c.ratio }
func (c *Compressor) Attack() float64    { return c.attack }
func (c *Compressor) Release() float64   { return c.release }

// MakeupGain is the applied makeup in dB.
func (c *Compressor) MakeupGain() float64 {
	if c.proc == nil {
		return 0
	}
	return c.proc.MakeupGain()
}

// Reduction is the deepest gain reduction in dB (<= 0) since the last Reset.
func (c *Compressor) Reduction() float64 {
	if c.proc == nil {
		return 0
	}
	g := c.proc.GetMetrics().GainReduction
	if g <= 0 {
		return -180
	}
	return 20 * math.Log10(g)
}

func (c *Compressor) Reset() {
	if c.proc != nil {
		c.proc.Reset()
	}
}
