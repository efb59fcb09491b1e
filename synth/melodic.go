package synth

import (
	"math"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// melodicBase drives a phase accumulator from a Note. The frequency
// parameter holds the note frequency in Hz and sums frequency modulation;
// the detune parameter holds unison detune in cents.
type melodicBase struct {
	baseOscillator
	note      *Note
	frequency *dsp.Param
	detune    *dsp.Param
	ph        phasor

	detuneManagers []*ModulationManager
}

func newMelodicBase(ctx *dsp.Context, gain float64) melodicBase {
	n := NewNote(ctx.Logger())
	return melodicBase{
		baseOscillator: newBaseOscillator(ctx, gain),
		note:           n,
		frequency:      dsp.NewParam(ctx, n.Freq()),
		detune:         dsp.NewParam(ctx, DefaultUnisonDetune),
	}
}

func (m *melodicBase) Note() *Note        { return m.note }
func (m *melodicBase) Frequency() float64 { return m.frequency.Value() }

func (m *melodicBase) SetNote(octaves, semitones int) error {
	return m.retune(m.note.SetOctavesAndSemitones(octaves, semitones))
}

func (m *melodicBase) SetOctavesOffset(offset int) error {
	return m.retune(m.note.SetOctavesOffset(offset))
}

func (m *melodicBase) SetSemitonesOffset(offset int) error {
	return m.retune(m.note.SetSemitonesOffset(offset))
}

func (m *melodicBase) SetCentsOffset(cents float64) error {
	return m.retune(m.note.SetCentsOffset(cents))
}

func (m *melodicBase) SetBeatOctavesOffset(offset int) error {
	return m.retune(m.note.SetBeatOctavesOffset(offset))
}

func (m *melodicBase) SetBeatSemitonesOffset(offset int) error {
	return m.retune(m.note.SetBeatSemitonesOffset(offset))
}

func (m *melodicBase) retune(err error) error {
	if err != nil {
		return err
	}
	m.frequency.SetValueNow(m.note.Freq())
	return nil
}

// UnisonDetune is the unmodulated detune in cents.
func (m *melodicBase) UnisonDetune() float64 { return m.detune.Value() }

func (m *melodicBase) setUnisonDetune(cents float64) error {
	if err := checkRange("unison detune", cents, MinUnisonDetune, MaxUnisonDetune); err != nil {
		return rejected(m.ctx.Logger(), "Oscillator.SetUnisonDetune", err)
	}
	m.detune.SetValueNow(cents)
	for _, mm := range m.detuneManagers {
		_ = mm.SetParameterCurrentValue(cents)
	}
	return nil
}

func (m *melodicBase) connectFrequency(mm *ModulationManager) {
	m.frequency.Connect(mm)
}

func (m *melodicBase) connectDetune(mm *ModulationManager) {
	m.detune.Connect(mm)
	m.detuneManagers = append(m.detuneManagers, mm)
	_ = mm.SetParameterCurrentValue(m.detune.Value())
}

// step returns the phase for this frame and the normalized increment, then
// advances the accumulator.
func (m *melodicBase) step() (phase, dt float64) {
	sr := float64(m.ctx.SampleRate())
	f := m.frequency.Output()
	if d := m.detune.Output(); d != 0 {
		f *= centsToRatio(d)
	}
	f = clamp(f, -0.5*sr, 0.5*sr)
	phase = m.ph.phase
	m.ph.advance(f, sr)
	return phase, math.Abs(f) / sr
}

// SineOscillator is a pure tone with amplitude and frequency sockets.
type SineOscillator struct {
	melodicBase
}

func NewSineOscillator(ctx *dsp.Context, gain float64) *SineOscillator {
	return &SineOscillator{melodicBase: newMelodicBase(ctx, gain)}
}

func (o *SineOscillator) Next() float64 {
	p, _ := o.step()
	return o.emit(waveAt(WaveSine, p))
}

func (o *SineOscillator) ConnectAmplitudeModulator(m *ModulationManager) { o.connectAmplitude(m) }
func (o *SineOscillator) ConnectFrequencyModulator(m *ModulationManager) { o.connectFrequency(m) }

// unisonOscillator adds the detune setter and socket to a melodic generator.
type unisonOscillator struct {
	melodicBase
}

func (o *unisonOscillator) SetUnisonDetune(cents float64) error               { return o.setUnisonDetune(cents) }
func (o *unisonOscillator) ConnectAmplitudeModulator(m *ModulationManager)    { o.connectAmplitude(m) }
func (o *unisonOscillator) ConnectFrequencyModulator(m *ModulationManager)    { o.connectFrequency(m) }
func (o *unisonOscillator) ConnectUnisonDetuneModulator(m *ModulationManager) { o.connectDetune(m) }

// SawOscillator is a polyBLEP sawtooth.
type SawOscillator struct {
	unisonOscillator
}

func NewSawOscillator(ctx *dsp.Context, gain float64) *SawOscillator {
	return &SawOscillator{unisonOscillator{newMelodicBase(ctx, gain)}}
}

func (o *SawOscillator) Next() float64 {
	p, dt := o.step()
	return o.emit(bandLimitedWaveAt(WaveSaw, p, dt))
}

// TriangleOscillator is a naive triangle; its harmonics fall at 12 dB/octave.
type TriangleOscillator struct {
	unisonOscillator
}

func NewTriangleOscillator(ctx *dsp.Context, gain float64) *TriangleOscillator {
	return &TriangleOscillator{unisonOscillator{newMelodicBase(ctx, gain)}}
}

func (o *TriangleOscillator) Next() float64 {
	p, _ := o.step()
	return o.emit(waveAt(WaveTriangle, p))
}

// PulseOscillator derives a pulse from a sawtooth: the saw is offset by the
// pulse width and fed through a comparator curve, so the threshold moves
// with the width and its modulation without retuning.
type PulseOscillator struct {
	unisonOscillator
	pulseWidth *dsp.Param
	comparator *dsp.WaveShaper

	widthManagers []*ModulationManager
}

func NewPulseOscillator(ctx *dsp.Context, gain float64) *PulseOscillator {
	return &PulseOscillator{
		unisonOscillator: unisonOscillator{newMelodicBase(ctx, gain)},
		pulseWidth:       dsp.NewParam(ctx, DefaultPulseWidth),
		comparator:       dsp.NewWaveShaper(squareCurve()),
	}
}

func (o *PulseOscillator) Next() float64 {
	p, dt := o.step()
	saw := bandLimitedWaveAt(WaveSaw, p, dt)
	return o.emit(o.comparator.Shape(saw + o.pulseWidth.Output()))
}

// SetPulseWidth sets the comparator offset in [0,1].
func (o *PulseOscillator) SetPulseWidth(width float64) error {
	if err := checkRange("pulse width", width, MinPulseWidth, MaxPulseWidth); err != nil {
		return rejected(o.ctx.Logger(), "PulseOscillator.SetPulseWidth", err)
	}
	o.pulseWidth.SetValueNow(width)
	for _, mm := range o.widthManagers {
		_ = mm.SetParameterCurrentValue(width)
	}
	return nil
}

func (o *PulseOscillator) PulseWidth() float64 { return o.pulseWidth.Value() }

func (o *PulseOscillator) ConnectPulseWidthModulator(m *ModulationManager) {
	o.pulseWidth.Connect(m)
	o.widthManagers = append(o.widthManagers, m)
	_ = m.SetParameterCurrentValue(o.pulseWidth.Value())
}

// squareCurve is -1 over the lower half of the input range and +1 above.
func squareCurve() []float64 {
	c := make([]float64, 256)
	for i := range c {
		if i < 128 {
			c[i] = -1
		} else {
			c[i] = 1
		}
	}
	return c
}
