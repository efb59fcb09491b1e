package synth

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// Destination names one modulation target of a Voice.
type Destination string

const (
	DestOsc1Amplitude    Destination = "osc1.amplitude"
	DestOsc1Frequency    Destination = "osc1.frequency"
	DestOsc1PulseWidth   Destination = "osc1.pulse_width"
	DestOsc1UnisonDetune Destination = "osc1.unison_detune"
	DestOsc2Amplitude    Destination = "osc2.amplitude"
	DestOsc2Frequency    Destination = "osc2.frequency"
	DestOsc2PulseWidth   Destination = "osc2.pulse_width"
	DestOsc2UnisonDetune Destination = "osc2.unison_detune"
	DestSubAmplitude     Destination = "sub.amplitude"
	DestSubFrequency     Destination = "sub.frequency"
	DestFilterCutoff     Destination = "filter.cutoff"
	DestFilterResonance  Destination = "filter.resonance"
)

// Mixer slots, in the order the voice registers them.
const (
	MixerOsc1 = iota
	MixerOsc2
	MixerSub
	MixerNoise
)

// Voice is the monophonic signal graph:
//
//	osc1, osc2, noise -> filter -+
//	                             +-> envelope gain -> main gain
//	sub ---------- (direct) -----+
//
// It owns both LFO pools and every modulation manager.
type Voice struct {
	ctx *dsp.Context

	osc1  *MultiShapeOscillator
	osc2  *MultiShapeOscillator
	sub   *SubOscillator
	noise *MultiNoiseOscillator

	mixer    *OscillatorMixer
	filter   *Filter
	envelope *Envelope
	mainGain *dsp.Param

	lfos       *LfoPool
	fmRingLfos *LfoPool
	mods       map[Destination]*ModulationManager
}

// NewVoice builds the full graph on ctx. The noise generator is seeded with
// a fixed value so renders are reproducible.
func NewVoice(ctx *dsp.Context) *Voice {
	v := &Voice{
		ctx:        ctx,
		lfos:       NewLfoPool(),
		fmRingLfos: NewLfoPool(),
		mods:       make(map[Destination]*ModulationManager),
	}
	for i := 0; i < GeneralLfoCount; i++ {
		l := NewUnipolarLfo(ctx)
		_ = l.SetFrequency(DefaultLfoFrequency)
		v.lfos.Add(l)
	}
	for i := 0; i < FmRingLfoCount; i++ {
		l := NewToggledMultiShapeLfo(ctx)
		_ = l.SetFrequency(DefaultLfoFrequency)
		v.fmRingLfos.Add(l)
	}

	amplitude := LfoManagerConfig{LowerLimit: MinOscGain, UpperLimit: MaxOscGain, CurrentValue: MaxOscGain}
	width := LfoManagerConfig{LowerLimit: MinPulseWidth, UpperLimit: MaxPulseWidth, CurrentValue: DefaultPulseWidth}
	detune := LfoManagerConfig{LowerLimit: MinUnisonDetune, UpperLimit: MaxUnisonDetune, CurrentValue: DefaultUnisonDetune}
	fm := LfoManagerConfig{LowerLimit: -FrequencyModulationRange, UpperLimit: FrequencyModulationRange}

	for _, d := range []Destination{DestOsc1Amplitude, DestOsc2Amplitude, DestSubAmplitude} {
		v.mods[d] = NewModulationManager(ctx, v.lfos, amplitude)
	}
	for _, d := range []Destination{DestOsc1PulseWidth, DestOsc2PulseWidth} {
		v.mods[d] = NewModulationManager(ctx, v.lfos, width)
	}
	for _, d := range []Destination{DestOsc1UnisonDetune, DestOsc2UnisonDetune} {
		v.mods[d] = NewModulationManager(ctx, v.lfos, detune)
	}
	for _, d := range []Destination{DestOsc1Frequency, DestOsc2Frequency, DestSubFrequency} {
		v.mods[d] = NewModulationManager(ctx, v.fmRingLfos, fm)
	}

	v.osc1 = NewMultiShapeOscillator(ctx, MaxOscGain)
	v.osc2 = NewMultiShapeOscillator(ctx, MinOscGain)
	v.sub = NewSubOscillator(ctx, MinOscGain)
	v.noise = NewMultiNoiseOscillator(ctx, MinOscGain, 1)

	v.osc1.ConnectAmplitudeModulator(v.mods[DestOsc1Amplitude])
	v.osc1.ConnectFrequencyModulator(v.mods[DestOsc1Frequency])
	v.osc1.ConnectPulseWidthModulator(v.mods[DestOsc1PulseWidth])
	v.osc1.ConnectUnisonDetuneModulator(v.mods[DestOsc1UnisonDetune])
	v.osc2.ConnectAmplitudeModulator(v.mods[DestOsc2Amplitude])
	v.osc2.ConnectFrequencyModulator(v.mods[DestOsc2Frequency])
	v.osc2.ConnectPulseWidthModulator(v.mods[DestOsc2PulseWidth])
	v.osc2.ConnectUnisonDetuneModulator(v.mods[DestOsc2UnisonDetune])
	v.sub.ConnectAmplitudeModulator(v.mods[DestSubAmplitude])
	v.sub.ConnectFrequencyModulator(v.mods[DestSubFrequency])

	v.mixer = NewOscillatorMixer(ctx)
	v.mixer.AddFilteredOscillator(v.osc1)
	v.mixer.AddFilteredOscillator(v.osc2)
	v.mixer.AddNonFilteredOscillator(v.sub)
	v.mixer.AddFilteredOscillator(v.noise)

	v.filter = NewFilter(ctx, v.lfos)
	v.mods[DestFilterCutoff] = v.filter.CutoffModulation()
	v.mods[DestFilterResonance] = v.filter.ResonanceModulation()

	v.envelope = NewEnvelope(ctx)
	_ = v.envelope.SetAttack(DefaultVoiceAttack)
	_ = v.envelope.SetDecay(DefaultVoiceDecay)
	_ = v.envelope.SetSustain(DefaultVoiceSustain)
	_ = v.envelope.SetRelease(DefaultVoiceRelease)

	v.mainGain = dsp.NewParam(ctx, DefaultMainGain)
	return v
}

func (v *Voice) melodic() []MelodicOscillator {
	return []MelodicOscillator{v.osc1, v.osc2, v.sub}
}

func (v *Voice) setNote(octaves, semitones int) error {
	for _, o := range v.melodic() {
		if err := o.SetNote(octaves, semitones); err != nil {
			return err
		}
	}
	return nil
}

func (v *Voice) setBeatOffsets(octaves, semitones int) error {
	if err := checkIntRange("beat octaves offset", octaves, MinBeatOctavesOffset, MaxBeatOctavesOffset); err != nil {
		return rejected(v.ctx.Logger(), "Voice.setBeatOffsets", err)
	}
	if err := checkIntRange("beat semitones offset", semitones, MinBeatSemitonesOffset, MaxBeatSemitonesOffset); err != nil {
		return rejected(v.ctx.Logger(), "Voice.setBeatOffsets", err)
	}
	for _, o := range v.melodic() {
		_ = o.SetBeatOctavesOffset(octaves)
		_ = o.SetBeatSemitonesOffset(semitones)
	}
	return nil
}

// NoteOn retunes every melodic oscillator and starts both envelopes. An
// invalid note leaves the voice untouched.
func (v *Voice) NoteOn(octaves, semitones int) error {
	if err := v.setNote(octaves, semitones); err != nil {
		return err
	}
	v.ctx.Logger().Debug("note on", "octaves", octaves, "semitones", semitones)
	v.envelope.Start()
	v.filter.Envelope().Start()
	return nil
}

// NoteOff releases both envelopes.
func (v *Voice) NoteOff() {
	v.ctx.Logger().Debug("note off")
	v.envelope.Stop()
	v.filter.Envelope().Stop()
}

// PlayNote plays an absolute note for duration seconds.
func (v *Voice) PlayNote(octaves, semitones int, duration float64) error {
	if err := v.setNote(octaves, semitones); err != nil {
		return err
	}
	v.envelope.StartBeat(duration)
	v.filter.Envelope().StartBeat(duration)
	return nil
}

// PlaySequencerStep transposes the held note by the step offsets and plays
// it for stepDuration seconds.
func (v *Voice) PlaySequencerStep(beatOctaves, beatSemitones int, stepDuration float64) error {
	if err := v.setBeatOffsets(beatOctaves, beatSemitones); err != nil {
		return err
	}
	v.envelope.StartBeat(stepDuration)
	v.filter.Envelope().StartBeat(stepDuration)
	return nil
}

// ResetBeatOffsets clears the sequencer transposition.
func (v *Voice) ResetBeatOffsets() {
	_ = v.setBeatOffsets(0, 0)
}

// SetMainGain ramps the output level over MainGainRamp seconds.
func (v *Voice) SetMainGain(gain float64) error {
	if err := checkRange("main gain", gain, MinMainGain, MaxMainGain); err != nil {
		return rejected(v.ctx.Logger(), "Voice.SetMainGain", err)
	}
	now := v.ctx.CurrentTime()
	v.mainGain.CancelAndHold(now)
	v.mainGain.RampLinearTo(gain, now+MainGainRamp)
	return nil
}

func (v *Voice) MainGain() float64 { return v.mainGain.Value() }

// Modulation returns the manager bound to dest.
func (v *Voice) Modulation(dest Destination) (*ModulationManager, error) {
	m, ok := v.mods[dest]
	if !ok {
		return nil, fmt.Errorf("unknown modulation destination %q", dest)
	}
	return m, nil
}

// Destinations lists every modulation target, sorted.
func (v *Voice) Destinations() []Destination {
	out := make([]Destination, 0, len(v.mods))
	for d := range v.mods {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *Voice) Context() *dsp.Context        { return v.ctx }
func (v *Voice) Osc1() *MultiShapeOscillator  { return v.osc1 }
func (v *Voice) Osc2() *MultiShapeOscillator  { return v.osc2 }
func (v *Voice) Sub() *SubOscillator          { return v.sub }
func (v *Voice) Noise() *MultiNoiseOscillator { return v.noise }
func (v *Voice) Mixer() *OscillatorMixer      { return v.mixer }
func (v *Voice) Filter() *Filter              { return v.filter }
func (v *Voice) Envelope() *Envelope          { return v.envelope }
func (v *Voice) LfoPool() *LfoPool            { return v.lfos }
func (v *Voice) FmRingLfoPool() *LfoPool      { return v.fmRingLfos }

// Lfo returns general-purpose LFO idx, or nil.
func (v *Voice) Lfo(idx int) *UnipolarLfo {
	l, _ := v.lfos.At(idx).(*UnipolarLfo)
	return l
}

// FmRingLfo returns frequency-modulation LFO idx, or nil.
func (v *Voice) FmRingLfo(idx int) *ToggledMultiShapeLfo {
	l, _ := v.fmRingLfos.At(idx).(*ToggledMultiShapeLfo)
	return l
}

// next renders the sample for the current frame without advancing time.
func (v *Voice) next() float64 {
	v.lfos.Tick()
	v.fmRingLfos.Tick()
	filtered, direct := v.mixer.Process()
	y := v.filter.Process(filtered) + direct
	return y * v.envelope.Output() * v.mainGain.Value()
}

// Process renders numFrames samples and advances the clock.
func (v *Voice) Process(numFrames int) []float32 {
	out := make([]float32, numFrames)
	for i := range out {
		out[i] = float32(v.next())
		v.ctx.Advance()
	}
	return out
}
