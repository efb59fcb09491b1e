package synth

import (
	"math/rand"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// NoiseOscillator loops a pre-rendered, peak-normalized noise buffer.
type NoiseOscillator struct {
	baseOscillator
	color  dsp.NoiseColor
	buffer []float64
	pos    int
}

// NewNoiseOscillator renders NoiseDuration seconds of noise from seed.
func NewNoiseOscillator(ctx *dsp.Context, color dsp.NoiseColor, gain float64, seed int64) *NoiseOscillator {
	n := int(NoiseDuration * float64(ctx.SampleRate()))
	buf := make([]float64, n)
	dsp.FillNoise(buf, color, rand.New(rand.NewSource(seed)))
	dsp.NormalizePeak(buf, 1)
	return &NoiseOscillator{
		baseOscillator: newBaseOscillator(ctx, gain),
		color:          color,
		buffer:         buf,
	}
}

func (o *NoiseOscillator) Color() dsp.NoiseColor { return o.color }

func (o *NoiseOscillator) Next() float64 {
	x := o.buffer[o.pos]
	o.pos++
	if o.pos == len(o.buffer) {
		o.pos = 0
	}
	return o.emit(x)
}

// MultiNoiseOscillator runs white, pink and brown generators side by side
// and passes exactly one of them. White is selected at construction.
type MultiNoiseOscillator struct {
	baseOscillator
	gens  [3]*NoiseOscillator
	gains [3]*dsp.Param
	color dsp.NoiseColor
}

func NewMultiNoiseOscillator(ctx *dsp.Context, gain float64, seed int64) *MultiNoiseOscillator {
	o := &MultiNoiseOscillator{baseOscillator: newBaseOscillator(ctx, gain)}
	for c := range o.gens {
		o.gens[c] = NewNoiseOscillator(ctx, dsp.NoiseColor(c), MaxOscGain, seed+int64(c))
		o.gains[c] = dsp.NewParam(ctx, MinOscGain)
	}
	_ = o.SetNoiseType(dsp.NoiseWhite)
	return o
}

// SetNoiseType selects which generator is audible.
func (o *MultiNoiseOscillator) SetNoiseType(color dsp.NoiseColor) error {
	if color < dsp.NoiseWhite || color > dsp.NoiseBrown {
		return rejected(o.ctx.Logger(), "MultiNoiseOscillator.SetNoiseType",
			checkIntRange("noise type", int(color), int(dsp.NoiseWhite), int(dsp.NoiseBrown)))
	}
	for c, g := range o.gains {
		v := MinOscGain
		if dsp.NoiseColor(c) == color {
			v = MaxOscGain
		}
		g.SetValueNow(v)
	}
	o.color = color
	o.ctx.Logger().Debug("noise type", "color", color.String())
	return nil
}

func (o *MultiNoiseOscillator) NoiseType() dsp.NoiseColor { return o.color }

// ColorOscillator exposes one of the inner generators, for its analyser.
func (o *MultiNoiseOscillator) ColorOscillator(color dsp.NoiseColor) *NoiseOscillator {
	if color < dsp.NoiseWhite || color > dsp.NoiseBrown {
		return nil
	}
	return o.gens[color]
}

func (o *MultiNoiseOscillator) Next() float64 {
	sum := 0.0
	for c, g := range o.gens {
		x := g.Next()
		if w := o.gains[c].Value(); w != 0 {
			sum += w * x
		}
	}
	return o.emit(sum)
}

func (o *MultiNoiseOscillator) ConnectAmplitudeModulator(m *ModulationManager) { o.connectAmplitude(m) }
