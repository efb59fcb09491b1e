package effects

import (
	"fmt"
	"math"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/irsynth"
)

const (
	// ReverbPartSize is the convolution block length and therefore the wet
	// path latency in samples.
	ReverbPartSize = 128

	MinReverbDecayRate     = irsynth.MinDecayRate
	MaxReverbDecayRate     = irsynth.MaxDecayRate
	DefaultReverbDecayRate = irsynth.DefaultDecayRate
)

// Reverb convolves with a generated decaying-noise IR, or one loaded from
// WAV. IRs are scaled to unit energy.
type Reverb struct {
	router
	cfg   irsynth.Config
	ola   *dspconv.StreamingOverlapAddT[float32, complex64]
	irLen int

	in   []float32
	out  []float32
	fill int
}

func NewReverb(ctx *dsp.Context) *Reverb {
	r := &Reverb{
		router: newRouter(ctx, "reverb"),
		cfg:    irsynth.DefaultConfig(),
		in:     make([]float32, ReverbPartSize),
		out:    make([]float32, ReverbPartSize),
	}
	r.cfg.SampleRate = ctx.SampleRate()
	if err := r.regenerate(); err != nil {
		ctx.Logger().Error("reverb impulse response unavailable", "err", err)
		r.SetIR([]float32{1})
	}
	return r
}

func (r *Reverb) Process(x float64) float64 {
	return r.route(x, r.convolve)
}

func (r *Reverb) convolve(x float64) float64 {
	r.in[r.fill] = float32(x)
	y := float64(r.out[r.fill])
	r.fill++
	if r.fill == ReverbPartSize {
		r.fill = 0
		if err := r.ola.ProcessBlockTo(r.out, r.in); err != nil {
			copy(r.out, r.in)
		}
	}
	return y
}

// SetDecayRate reshapes the IR fade-in exponent and regenerates the IR.
func (r *Reverb) SetDecayRate(rate float64) error {
	if err := checkRange("reverb decay rate", rate, MinReverbDecayRate, MaxReverbDecayRate); err != nil {
		return r.reject("SetDecayRate", err)
	}
	prev := r.cfg.DecayRate
	r.cfg.DecayRate = rate
	if err := r.regenerate(); err != nil {
		r.cfg.DecayRate = prev
		return r.reject("SetDecayRate", err)
	}
	return nil
}

func (r *Reverb) DecayRate() float64 { return r.cfg.DecayRate }

// IRLength is the active IR length in samples.
func (r *Reverb) IRLength() int { return r.irLen }

func (r *Reverb) regenerate() error {
	ir, err := irsynth.Generate(r.cfg)
	if err != nil {
		return err
	}
	r.SetIR(ir)
	return nil
}

// SetIR installs ir, scaled to unit energy. An empty IR becomes a unit
// impulse.
func (r *Reverb) SetIR(ir []float32) {
	if len(ir) == 0 {
		ir = []float32{1}
	}
	scaled := make([]float32, len(ir))
	energy := 0.0
	for _, v := range ir {
		energy += float64(v) * float64(v)
	}
	g := 1.0
	if energy > 1e-12 {
		g = 1 / math.Sqrt(energy)
	}
	for i, v := range ir {
		scaled[i] = float32(float64(v) * g)
	}
	ola, err := dspconv.NewStreamingOverlapAdd32(scaled, ReverbPartSize)
	if err != nil {
		r.ctx.Logger().Error("reverb convolver rejected impulse response", "err", err)
		return
	}
	r.ola = ola
	r.irLen = len(scaled)
	r.Reset()
}

// SetIRFromWAV loads the first channel of a WAV file, resampled to the
// context rate.
func (r *Reverb) SetIRFromWAV(path string) error {
	chans, rate, err := audioio.ReadWAV(path)
	if err != nil {
		return err
	}
	ir, err := audioio.ResampleFloat32(chans[0], rate, r.ctx.SampleRate())
	if err != nil {
		return fmt.Errorf("resample impulse response: %w", err)
	}
	r.SetIR(ir)
	return nil
}

func (r *Reverb) Reset() {
	if r.ola != nil {
		r.ola.Reset()
	}
	for i := range r.in {
		r.in[i] = 0
		r.out[i] = 0
	}
	r.fill = 0
}
