package synth

import (
	"github.com/cwbudde/algo-monosynth/analysis"
	"github.com/cwbudde/algo-monosynth/dsp"
)

// Oscillator is any signal source the mixer can level.
type Oscillator interface {
	Source
	SetOutputGain(gain float64) error
	OutputGain() float64
	Analyser() *analysis.Analyser
}

// MelodicOscillator follows a Note.
type MelodicOscillator interface {
	Oscillator
	Note() *Note
	Frequency() float64
	SetNote(octaves, semitones int) error
	SetOctavesOffset(offset int) error
	SetSemitonesOffset(offset int) error
	SetCentsOffset(cents float64) error
	SetBeatOctavesOffset(offset int) error
	SetBeatSemitonesOffset(offset int) error
}

// Modulation sockets. A generator implements only the ones it supports.
type (
	AmplitudeModulatable interface {
		ConnectAmplitudeModulator(m *ModulationManager)
	}
	FrequencyModulatable interface {
		ConnectFrequencyModulator(m *ModulationManager)
	}
	PulseWidthModulatable interface {
		ConnectPulseWidthModulator(m *ModulationManager)
	}
	UnisonDetuneModulatable interface {
		ConnectUnisonDetuneModulator(m *ModulationManager)
	}
)

// baseOscillator carries the output gain and a passive analyser tap whose
// gain follows the amplitude modulation but not the mixer level.
type baseOscillator struct {
	ctx          *dsp.Context
	outputGain   *dsp.Param
	analyserGain *dsp.Param
	analyser     *analysis.Analyser

	ampManagers []*ModulationManager
}

func newBaseOscillator(ctx *dsp.Context, gain float64) baseOscillator {
	if err := checkRange("initial oscillator gain", gain, MinOscGain, MaxOscGain); err != nil {
		ctx.Logger().Warn("clamping oscillator gain", "err", err)
		gain = clamp(gain, MinOscGain, MaxOscGain)
	}
	return baseOscillator{
		ctx:          ctx,
		outputGain:   dsp.NewParam(ctx, gain),
		analyserGain: dsp.NewParam(ctx, 1),
	}
}

func (b *baseOscillator) SetOutputGain(gain float64) error {
	if err := checkRange("oscillator gain", gain, MinOscGain, MaxOscGain); err != nil {
		return rejected(b.ctx.Logger(), "Oscillator.SetOutputGain", err)
	}
	b.outputGain.RampLinearTo(gain, b.ctx.CurrentTime())
	for _, mm := range b.ampManagers {
		_ = mm.SetParameterCurrentValue(gain)
	}
	return nil
}

func (b *baseOscillator) OutputGain() float64 {
	return b.outputGain.Value()
}

// Analyser attaches the spectrum tap on first use.
func (b *baseOscillator) Analyser() *analysis.Analyser {
	if b.analyser == nil {
		a, err := analysis.NewAnalyser(b.ctx.SampleRate(), analysis.DefaultFFTSize)
		if err != nil {
			b.ctx.Logger().Error("analyser unavailable", "err", err)
			return nil
		}
		b.analyser = a
	}
	return b.analyser
}

// connectAmplitude sums m into the output gain. m tracks the unmodulated
// gain so the modulated gain stays inside [MinOscGain, MaxOscGain].
func (b *baseOscillator) connectAmplitude(m *ModulationManager) {
	b.outputGain.Connect(m)
	b.analyserGain.Connect(m)
	b.ampManagers = append(b.ampManagers, m)
	_ = m.SetParameterCurrentValue(b.outputGain.Value())
}

// emit feeds the tap and returns the leveled sample.
func (b *baseOscillator) emit(x float64) float64 {
	if b.analyser != nil {
		b.analyser.Write(x * b.analyserGain.Output())
	}
	return x * b.outputGain.Output()
}
