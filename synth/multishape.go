package synth

import (
	"github.com/cwbudde/algo-monosynth/dsp"
)

// MultiShapeOscillator averages any combination of a triangle, a saw and a
// pulse, all locked to one note. Only the triangle is on at construction.
type MultiShapeOscillator struct {
	baseOscillator
	triangle *TriangleOscillator
	saw      *SawOscillator
	pulse    *PulseOscillator
	shapes   *ToggledInputsManager
}

const (
	multiShapeTriangle = iota
	multiShapeSaw
	multiShapePulse
)

func NewMultiShapeOscillator(ctx *dsp.Context, gain float64) *MultiShapeOscillator {
	o := &MultiShapeOscillator{
		baseOscillator: newBaseOscillator(ctx, gain),
		triangle:       NewTriangleOscillator(ctx, MaxOscGain),
		saw:            NewSawOscillator(ctx, MaxOscGain),
		pulse:          NewPulseOscillator(ctx, MaxOscGain),
		shapes:         NewToggledInputsManager(ctx),
	}
	o.shapes.ConnectInput(o.triangle)
	o.shapes.ConnectInput(o.saw)
	o.shapes.ConnectInput(o.pulse)
	_ = o.shapes.UnmuteInput(multiShapeTriangle)
	return o
}

func (o *MultiShapeOscillator) Next() float64 {
	return o.emit(o.shapes.Next())
}

func (o *MultiShapeOscillator) EnableTriangleShape() error  { return o.shapes.UnmuteInput(multiShapeTriangle) }
func (o *MultiShapeOscillator) DisableTriangleShape() error { return o.shapes.MuteInput(multiShapeTriangle) }
func (o *MultiShapeOscillator) EnableSawShape() error       { return o.shapes.UnmuteInput(multiShapeSaw) }
func (o *MultiShapeOscillator) DisableSawShape() error      { return o.shapes.MuteInput(multiShapeSaw) }
func (o *MultiShapeOscillator) EnablePulseShape() error     { return o.shapes.UnmuteInput(multiShapePulse) }
func (o *MultiShapeOscillator) DisablePulseShape() error    { return o.shapes.MuteInput(multiShapePulse) }

func (o *MultiShapeOscillator) IsTriangleShapeEnabled() bool { return o.shapes.IsEnabled(multiShapeTriangle) }
func (o *MultiShapeOscillator) IsSawShapeEnabled() bool      { return o.shapes.IsEnabled(multiShapeSaw) }
func (o *MultiShapeOscillator) IsPulseShapeEnabled() bool    { return o.shapes.IsEnabled(multiShapePulse) }

// Note is the pitch shared by the three shapes.
func (o *MultiShapeOscillator) Note() *Note        { return o.triangle.Note() }
func (o *MultiShapeOscillator) Frequency() float64 { return o.triangle.Frequency() }

// each applies set to every shape. The triangle validates first, so a
// rejected value leaves all three untouched.
func (o *MultiShapeOscillator) each(set func(MelodicOscillator) error) error {
	if err := set(o.triangle); err != nil {
		return err
	}
	_ = set(o.saw)
	_ = set(o.pulse)
	return nil
}

func (o *MultiShapeOscillator) SetNote(octaves, semitones int) error {
	return o.each(func(m MelodicOscillator) error { return m.SetNote(octaves, semitones) })
}

func (o *MultiShapeOscillator) SetOctavesOffset(offset int) error {
	return o.each(func(m MelodicOscillator) error { return m.SetOctavesOffset(offset) })
}

func (o *MultiShapeOscillator) SetSemitonesOffset(offset int) error {
	return o.each(func(m MelodicOscillator) error { return m.SetSemitonesOffset(offset) })
}

func (o *MultiShapeOscillator) SetCentsOffset(cents float64) error {
	return o.each(func(m MelodicOscillator) error { return m.SetCentsOffset(cents) })
}

func (o *MultiShapeOscillator) SetBeatOctavesOffset(offset int) error {
	return o.each(func(m MelodicOscillator) error { return m.SetBeatOctavesOffset(offset) })
}

func (o *MultiShapeOscillator) SetBeatSemitonesOffset(offset int) error {
	return o.each(func(m MelodicOscillator) error { return m.SetBeatSemitonesOffset(offset) })
}

func (o *MultiShapeOscillator) SetUnisonDetune(cents float64) error {
	if err := o.triangle.SetUnisonDetune(cents); err != nil {
		return err
	}
	_ = o.saw.SetUnisonDetune(cents)
	_ = o.pulse.SetUnisonDetune(cents)
	return nil
}

func (o *MultiShapeOscillator) UnisonDetune() float64 { return o.triangle.UnisonDetune() }

func (o *MultiShapeOscillator) SetPulseWidth(width float64) error { return o.pulse.SetPulseWidth(width) }
func (o *MultiShapeOscillator) PulseWidth() float64               { return o.pulse.PulseWidth() }

func (o *MultiShapeOscillator) ConnectAmplitudeModulator(m *ModulationManager) {
	o.connectAmplitude(m)
}

func (o *MultiShapeOscillator) ConnectFrequencyModulator(m *ModulationManager) {
	o.triangle.ConnectFrequencyModulator(m)
	o.saw.ConnectFrequencyModulator(m)
	o.pulse.ConnectFrequencyModulator(m)
}

func (o *MultiShapeOscillator) ConnectPulseWidthModulator(m *ModulationManager) {
	o.pulse.ConnectPulseWidthModulator(m)
}

func (o *MultiShapeOscillator) ConnectUnisonDetuneModulator(m *ModulationManager) {
	o.triangle.ConnectUnisonDetuneModulator(m)
	o.saw.ConnectUnisonDetuneModulator(m)
	o.pulse.ConnectUnisonDetuneModulator(m)
}

// SubOscillator is a sine meant to sit below the main oscillators; the
// octave drop comes from its octave offset. It has its own output and tap
// gains so amplitude modulation does not reach the inner sine.
type SubOscillator struct {
	baseOscillator
	sine *SineOscillator
}

func NewSubOscillator(ctx *dsp.Context, gain float64) *SubOscillator {
	return &SubOscillator{
		baseOscillator: newBaseOscillator(ctx, gain),
		sine:           NewSineOscillator(ctx, MaxOscGain),
	}
}

func (o *SubOscillator) Next() float64 { return o.emit(o.sine.Next()) }

func (o *SubOscillator) Note() *Note        { return o.sine.Note() }
func (o *SubOscillator) Frequency() float64 { return o.sine.Frequency() }

func (o *SubOscillator) SetNote(octaves, semitones int) error { return o.sine.SetNote(octaves, semitones) }
func (o *SubOscillator) SetOctavesOffset(offset int) error    { return o.sine.SetOctavesOffset(offset) }
func (o *SubOscillator) SetSemitonesOffset(offset int) error  { return o.sine.SetSemitonesOffset(offset) }
func (o *SubOscillator) SetCentsOffset(cents float64) error   { return o.sine.SetCentsOffset(cents) }

func (o *SubOscillator) SetBeatOctavesOffset(offset int) error {
	return o.sine.SetBeatOctavesOffset(offset)
}

func (o *SubOscillator) SetBeatSemitonesOffset(offset int) error {
	return o.sine.SetBeatSemitonesOffset(offset)
}

func (o *SubOscillator) ConnectAmplitudeModulator(m *ModulationManager) { o.connectAmplitude(m) }
func (o *SubOscillator) ConnectFrequencyModulator(m *ModulationManager) {
	o.sine.ConnectFrequencyModulator(m)
}
