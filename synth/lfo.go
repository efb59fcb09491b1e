package synth

import (
	"fmt"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// FreqRange selects which frequency window an LFO accepts.
type FreqRange int

const (
	LfoRangeLow FreqRange = iota
	LfoRangeMid
	LfoRangeHigh
)

func (r FreqRange) String() string {
	switch r {
	case LfoRangeLow:
		return "low"
	case LfoRangeMid:
		return "mid"
	case LfoRangeHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseFreqRange accepts "low", "mid" or "high".
func ParseFreqRange(s string) (FreqRange, bool) {
	switch s {
	case "low":
		return LfoRangeLow, true
	case "mid":
		return LfoRangeMid, true
	case "high":
		return LfoRangeHigh, true
	}
	return LfoRangeLow, false
}

// FreqRangeLimits holds the [min,max] Hz window of each band.
type FreqRangeLimits struct {
	LowMin, LowMax   float64
	MidMin, MidMax   float64
	HighMin, HighMax float64
}

func DefaultFreqRangeLimits() FreqRangeLimits {
	return FreqRangeLimits{
		LowMin:  MinLfoLowFrequency,
		LowMax:  MaxLfoLowFrequency,
		MidMin:  MinLfoMidFrequency,
		MidMax:  MaxLfoMidFrequency,
		HighMin: MinLfoHighFrequency,
		HighMax: MaxLfoHighFrequency,
	}
}

// Window returns the limits of band r.
func (l FreqRangeLimits) Window(r FreqRange) (float64, float64) {
	switch r {
	case LfoRangeMid:
		return l.MidMin, l.MidMax
	case LfoRangeHigh:
		return l.HighMin, l.HighMax
	default:
		return l.LowMin, l.LowMax
	}
}

// Lfo is a unipolar modulation source in [0,1]. The owner of a pool calls
// Tick once per frame; Output may then be read any number of times.
type Lfo interface {
	dsp.Signal
	Tick()
	SetFrequency(hz float64) error
	Frequency() float64
	SetFrequencyRange(r FreqRange)
	FrequencyRange() FreqRange
	SetOutputGain(gain float64) error
	OutputGain() float64
}

// LfoOption customizes an LFO at construction.
type LfoOption func(*lfoBase)

// WithFrequencyRangeLimits replaces the default band windows.
func WithFrequencyRangeLimits(l FreqRangeLimits) LfoOption {
	return func(b *lfoBase) { b.limits = l }
}

// lfoBase owns band validation, the unipolar shift and the output gain.
// Concrete LFOs provide the bipolar source and the frequency application.
type lfoBase struct {
	ctx        *dsp.Context
	name       string
	limits     FreqRangeLimits
	freqRange  FreqRange
	frequency  float64
	outputGain *dsp.Param
	out        float64

	bipolar        Source
	applyFrequency func(hz float64)
}

func newLfoBase(ctx *dsp.Context, name string, opts []LfoOption) lfoBase {
	b := lfoBase{
		ctx:        ctx,
		name:       name,
		limits:     DefaultFreqRangeLimits(),
		freqRange:  LfoRangeLow,
		frequency:  DefaultLfoFrequency,
		outputGain: dsp.NewParam(ctx, MaxLfoGain),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *lfoBase) Tick() {
	b.out = (0.5*b.bipolar.Next() + 0.5) * b.outputGain.Value()
}

func (b *lfoBase) Output() float64 { return b.out }

func (b *lfoBase) SetFrequency(hz float64) error {
	lo, hi := b.limits.Window(b.freqRange)
	if err := checkRange(fmt.Sprintf("%s %s-band frequency", b.name, b.freqRange), hz, lo, hi); err != nil {
		return rejected(b.ctx.Logger(), "Lfo.SetFrequency", err)
	}
	b.frequency = hz
	b.applyFrequency(hz)
	return nil
}

func (b *lfoBase) Frequency() float64 { return b.frequency }

// SetFrequencyRange switches band. The running frequency is kept; the new
// window only applies to later SetFrequency calls.
func (b *lfoBase) SetFrequencyRange(r FreqRange) {
	b.freqRange = r
	b.ctx.Logger().Debug("lfo frequency range", "lfo", b.name, "range", r.String())
}

func (b *lfoBase) FrequencyRange() FreqRange { return b.freqRange }

// SetOutputGain scales the unipolar signal; gain must lie in [0,1].
func (b *lfoBase) SetOutputGain(gain float64) error {
	if err := checkRange("lfo output gain", gain, MinLfoGain, MaxLfoGain); err != nil {
		return rejected(b.ctx.Logger(), "Lfo.SetOutputGain", err)
	}
	b.outputGain.RampLinearTo(gain, b.ctx.CurrentTime())
	return nil
}

func (b *lfoBase) OutputGain() float64 { return b.outputGain.Value() }

// waveGen is a naive bipolar generator for sub-audio shapes.
type waveGen struct {
	ctx   *dsp.Context
	shape Waveform
	freq  *dsp.Param
	ph    phasor
}

func newWaveGen(ctx *dsp.Context, shape Waveform, hz float64) *waveGen {
	return &waveGen{ctx: ctx, shape: shape, freq: dsp.NewParam(ctx, hz)}
}

func (g *waveGen) Next() float64 {
	v := waveAt(g.shape, g.ph.phase)
	g.ph.advance(g.freq.Value(), float64(g.ctx.SampleRate()))
	return v
}

func (g *waveGen) setFrequency(hz float64) {
	g.freq.RampLinearTo(hz, g.ctx.CurrentTime())
}

// UnipolarLfo is a single-shape LFO. Triangle by default.
type UnipolarLfo struct {
	lfoBase
	gen *waveGen
}

func NewUnipolarLfo(ctx *dsp.Context, opts ...LfoOption) *UnipolarLfo {
	l := &UnipolarLfo{lfoBase: newLfoBase(ctx, "lfo", opts)}
	l.gen = newWaveGen(ctx, WaveTriangle, l.frequency)
	l.bipolar = l.gen
	l.applyFrequency = l.gen.setFrequency
	return l
}

func (l *UnipolarLfo) SetShape(shape Waveform) {
	l.gen.shape = shape
}

func (l *UnipolarLfo) Shape() Waveform { return l.gen.shape }

// multiShape holds one generator per waveform, indexed by Waveform.
type multiShape struct {
	gens [4]*waveGen
}

func newMultiShape(ctx *dsp.Context, hz float64) multiShape {
	var m multiShape
	for i := range m.gens {
		m.gens[i] = newWaveGen(ctx, Waveform(i), hz)
	}
	return m
}

func (m *multiShape) setFrequency(hz float64) {
	for _, g := range m.gens {
		g.setFrequency(hz)
	}
}

// ToggledMultiShapeLfo switches four waveforms on and off; the enabled ones
// are averaged. Sine is on by default.
type ToggledMultiShapeLfo struct {
	lfoBase
	shapes multiShape
	mixer  *ToggledInputsManager
}

func NewToggledMultiShapeLfo(ctx *dsp.Context, opts ...LfoOption) *ToggledMultiShapeLfo {
	l := &ToggledMultiShapeLfo{lfoBase: newLfoBase(ctx, "toggled-lfo", opts)}
	l.shapes = newMultiShape(ctx, l.frequency)
	l.mixer = NewToggledInputsManager(ctx)
	for _, g := range l.shapes.gens {
		l.mixer.ConnectInput(g)
	}
	_ = l.mixer.UnmuteInput(int(WaveSine))
	l.bipolar = l.mixer
	l.applyFrequency = l.shapes.setFrequency
	return l
}

func (l *ToggledMultiShapeLfo) ToggleSineWave(on bool) error     { return l.toggle(WaveSine, on) }
func (l *ToggledMultiShapeLfo) ToggleTriangleWave(on bool) error { return l.toggle(WaveTriangle, on) }
func (l *ToggledMultiShapeLfo) ToggleSawWave(on bool) error      { return l.toggle(WaveSaw, on) }
func (l *ToggledMultiShapeLfo) ToggleSquareWave(on bool) error   { return l.toggle(WaveSquare, on) }

func (l *ToggledMultiShapeLfo) toggle(w Waveform, on bool) error {
	if on {
		return l.mixer.UnmuteInput(int(w))
	}
	return l.mixer.MuteInput(int(w))
}

// IsShapeEnabled reports whether waveform w currently contributes.
func (l *ToggledMultiShapeLfo) IsShapeEnabled(w Waveform) bool {
	return l.mixer.IsEnabled(int(w))
}

// WeightedMultiShapeLfo blends four waveforms with independent weights.
// Sine starts at full weight, the rest at zero.
type WeightedMultiShapeLfo struct {
	lfoBase
	shapes multiShape
	mixer  *AdditiveInputsManager
}

func NewWeightedMultiShapeLfo(ctx *dsp.Context, opts ...LfoOption) *WeightedMultiShapeLfo {
	l := &WeightedMultiShapeLfo{lfoBase: newLfoBase(ctx, "weighted-lfo", opts)}
	l.shapes = newMultiShape(ctx, l.frequency)
	l.mixer = NewAdditiveInputsManager(ctx)
	for _, g := range l.shapes.gens {
		l.mixer.ConnectInput(g)
	}
	_ = l.mixer.SetInputGain(int(WaveSine), MaxOscGain)
	l.bipolar = l.mixer
	l.applyFrequency = l.shapes.setFrequency
	return l
}

func (l *WeightedMultiShapeLfo) SetSineGain(g float64) error     { return l.mixer.SetInputGain(int(WaveSine), g) }
func (l *WeightedMultiShapeLfo) SetTriangleGain(g float64) error { return l.mixer.SetInputGain(int(WaveTriangle), g) }
func (l *WeightedMultiShapeLfo) SetSawGain(g float64) error      { return l.mixer.SetInputGain(int(WaveSaw), g) }
func (l *WeightedMultiShapeLfo) SetSquareGain(g float64) error   { return l.mixer.SetInputGain(int(WaveSquare), g) }

// ShapeGain is the blend weight of waveform w.
func (l *WeightedMultiShapeLfo) ShapeGain(w Waveform) float64 {
	return l.mixer.InputGain(int(w))
}

// LfoPool owns a set of LFOs shared by many modulation managers. Consumers
// hold indices into the pool; the pool advances every LFO once per frame.
type LfoPool struct {
	lfos []Lfo
}

func NewLfoPool(lfos ...Lfo) *LfoPool {
	return &LfoPool{lfos: lfos}
}

// Add appends l and returns its index.
func (p *LfoPool) Add(l Lfo) int {
	p.lfos = append(p.lfos, l)
	return len(p.lfos) - 1
}

func (p *LfoPool) Len() int { return len(p.lfos) }

// At returns the LFO at idx, or nil for a bad index.
func (p *LfoPool) At(idx int) Lfo {
	if idx < 0 || idx >= len(p.lfos) {
		return nil
	}
	return p.lfos[idx]
}

// Tick advances every LFO by one frame.
func (p *LfoPool) Tick() {
	for _, l := range p.lfos {
		l.Tick()
	}
}

// Tap returns a read-only source following the LFO at idx.
func (p *LfoPool) Tap(idx int) Source {
	return lfoTap{pool: p, idx: idx}
}

type lfoTap struct {
	pool *LfoPool
	idx  int
}

func (t lfoTap) Next() float64 {
	return t.pool.lfos[t.idx].Output()
}
