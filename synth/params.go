package synth

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/effects"
)

// Params is a complete patch for a MonoSynth.
type Params struct {
	MainGain float64

	Osc1  OscParams
	Osc2  OscParams
	Sub   SubParams
	Noise NoiseParams

	Envelope EnvelopeParams
	Filter   FilterParams

	// Lfos configures the general pool; extra entries are an error.
	Lfos   []LfoParams
	Routes []ModRoute

	Distortion DistortionParams
	Delay      DelayParams
	Reverb     ReverbParams
	Compressor CompressorParams
}

// OscParams configures one multi-shape oscillator.
type OscParams struct {
	Level           float64
	Triangle        bool
	Saw             bool
	Pulse           bool
	PulseWidth      float64
	UnisonDetune    float64
	OctavesOffset   int
	SemitonesOffset int
	CentsOffset     float64
}

type SubParams struct {
	Level           float64
	OctavesOffset   int
	SemitonesOffset int
	CentsOffset     float64
}

type NoiseParams struct {
	Level float64
	Color dsp.NoiseColor
}

type EnvelopeParams struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

type FilterParams struct {
	Cutoff         float64
	Resonance      float64
	EnvelopeAmount float64
	Envelope       EnvelopeParams
}

type LfoParams struct {
	Shape     Waveform
	Range     FreqRange
	Frequency float64
	Gain      float64
}

// ModRoute enables LFOs of the destination's pool, by index, at a depth
// in [-1,1].
type ModRoute struct {
	Dest   Destination
	Lfos   []int
	Amount float64
}

// EffectParams is the on/off and wet/dry part shared by every effect.
type EffectParams struct {
	Enabled bool
	Amount  float64
}

type DistortionParams struct {
	EffectParams
	Drive    float64
	Angle    float64
	Constant float64
}

type DelayParams struct {
	EffectParams
	Time     float64
	Feedback float64
}

type ReverbParams struct {
	EffectParams
	DecayRate float64
	// IRWavPath replaces the generated IR when set.
	IRWavPath string
}

type CompressorParams struct {
	EffectParams
	Threshold float64
	Knee      float64
	Ratio     float64
	Attack    float64
	Release   float64
}

// NewDefaultParams mirrors the state of a freshly built MonoSynth.
func NewDefaultParams() *Params {
	lfos := make([]LfoParams, GeneralLfoCount)
	for i := range lfos {
		lfos[i] = LfoParams{
			Shape:     WaveTriangle,
			Range:     LfoRangeLow,
			Frequency: DefaultLfoFrequency,
			Gain:      MaxLfoGain,
		}
	}
	return &Params{
		MainGain: DefaultMainGain,
		Osc1: OscParams{
			Level:      MaxMixerLevel,
			Triangle:   true,
			PulseWidth: DefaultPulseWidth,
		},
		Osc2: OscParams{
			Level:      MinMixerLevel,
			Triangle:   true,
			PulseWidth: DefaultPulseWidth,
		},
		Noise: NoiseParams{Color: dsp.NoiseWhite},
		Envelope: EnvelopeParams{
			Attack:  DefaultVoiceAttack,
			Decay:   DefaultVoiceDecay,
			Sustain: DefaultVoiceSustain,
			Release: DefaultVoiceRelease,
		},
		Filter: FilterParams{
			Cutoff:         DefaultCutoff,
			Resonance:      DefaultResonance,
			EnvelopeAmount: DefaultEnvelopeAmount,
			Envelope: EnvelopeParams{
				Attack:  DefaultFilterAttack,
				Decay:   DefaultFilterDecay,
				Sustain: DefaultFilterSustain,
				Release: DefaultFilterRelease,
			},
		},
		Lfos: lfos,
		Distortion: DistortionParams{
			EffectParams: EffectParams{Amount: effects.DefaultEffectAmount},
			Drive:        effects.DefaultDistortionAmount,
			Angle:        effects.DefaultDistortionAngle,
			Constant:     effects.DefaultDistortionConstant,
		},
		Delay: DelayParams{
			EffectParams: EffectParams{Amount: effects.DefaultEffectAmount},
			Time:         effects.DefaultDelayTime,
			Feedback:     effects.DefaultDelayFeedback,
		},
		Reverb: ReverbParams{
			EffectParams: EffectParams{Amount: effects.DefaultEffectAmount},
			DecayRate:    effects.DefaultReverbDecayRate,
		},
		Compressor: CompressorParams{
			EffectParams: EffectParams{Amount: effects.DefaultEffectAmount},
			Threshold:    effects.DefaultCompressorThreshold,
			Knee:         effects.DefaultCompressorKnee,
			Ratio:        effects.DefaultCompressorRatio,
			Attack:       effects.DefaultCompressorAttack,
			Release:      effects.DefaultCompressorRelease,
		},
	}
}

// ApplyToVoice pushes every voice-level field onto v. Rejected fields are
// collected; accepted ones still take effect.
func (p *Params) ApplyToVoice(v *Voice) error {
	var errs []error
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	add("main_gain", v.SetMainGain(p.MainGain))

	for i, o := range []struct {
		name string
		osc  *MultiShapeOscillator
		cfg  OscParams
	}{
		{"osc1", v.osc1, p.Osc1},
		{"osc2", v.osc2, p.Osc2},
	} {
		add(o.name+".shapes", applyShapes(o.osc, o.cfg))
		add(o.name+".pulse_width", o.osc.SetPulseWidth(o.cfg.PulseWidth))
		add(o.name+".unison_detune", o.osc.SetUnisonDetune(o.cfg.UnisonDetune))
		add(o.name+".octaves_offset", o.osc.SetOctavesOffset(o.cfg.OctavesOffset))
		add(o.name+".semitones_offset", o.osc.SetSemitonesOffset(o.cfg.SemitonesOffset))
		add(o.name+".cents_offset", o.osc.SetCentsOffset(o.cfg.CentsOffset))
		add(o.name+".level", v.mixer.SetOscillatorLevel(MixerOsc1+i, o.cfg.Level))
	}

	add("sub.octaves_offset", v.sub.SetOctavesOffset(p.Sub.OctavesOffset))
	add("sub.semitones_offset", v.sub.SetSemitonesOffset(p.Sub.SemitonesOffset))
	add("sub.cents_offset", v.sub.SetCentsOffset(p.Sub.CentsOffset))
	add("sub.level", v.mixer.SetOscillatorLevel(MixerSub, p.Sub.Level))

	add("noise.color", v.noise.SetNoiseType(p.Noise.Color))
	add("noise.level", v.mixer.SetOscillatorLevel(MixerNoise, p.Noise.Level))

	add("envelope", p.Envelope.apply(v.envelope))
	add("filter.envelope", p.Filter.Envelope.apply(v.filter.Envelope()))
	add("filter.cutoff", v.filter.SetCutoffFrequency(p.Filter.Cutoff))
	add("filter.resonance", v.filter.SetResonance(p.Filter.Resonance))
	add("filter.envelope_amount", v.filter.SetEnvelopeAmount(p.Filter.EnvelopeAmount))

	if len(p.Lfos) > v.lfos.Len() {
		add("lfos", fmt.Errorf("%d lfos configured, pool has %d: %w", len(p.Lfos), v.lfos.Len(), ErrIndexOutOfRange))
	}
	for i, lp := range p.Lfos {
		l := v.Lfo(i)
		if l == nil {
			break
		}
		l.SetShape(lp.Shape)
		l.SetFrequencyRange(lp.Range)
		add(fmt.Sprintf("lfos[%d].frequency", i), l.SetFrequency(lp.Frequency))
		add(fmt.Sprintf("lfos[%d].gain", i), l.SetOutputGain(lp.Gain))
	}

	// Routes describe the whole modulation state: anything the patch does
	// not list is switched off first.
	listed := make(map[Destination]map[int]bool)
	for _, r := range p.Routes {
		if listed[r.Dest] == nil {
			listed[r.Dest] = make(map[int]bool)
		}
		for _, idx := range r.Lfos {
			listed[r.Dest][idx] = true
		}
	}
	for _, d := range v.Destinations() {
		m := v.mods[d]
		for i := 0; i < m.Pool().Len(); i++ {
			if !listed[d][i] {
				_ = m.DisableLfo(i)
			}
		}
		if listed[d] == nil {
			_ = m.SetLfosModulationAmount(0)
		}
	}

	for _, r := range p.Routes {
		m, err := v.Modulation(r.Dest)
		if err != nil {
			add("routes", err)
			continue
		}
		for _, idx := range r.Lfos {
			add(fmt.Sprintf("routes[%s].lfos", r.Dest), m.EnableLfo(idx))
		}
		add(fmt.Sprintf("routes[%s].amount", r.Dest), m.SetLfosModulationAmount(r.Amount))
	}
	return errors.Join(errs...)
}

// applyShapes enables before disabling so the oscillator is never silent
// in between.
func applyShapes(o *MultiShapeOscillator, cfg OscParams) error {
	if !cfg.Triangle && !cfg.Saw && !cfg.Pulse {
		return fmt.Errorf("at least one shape must be enabled: %w", ErrOutOfRange)
	}
	set := []struct {
		on      bool
		enable  func() error
		disable func() error
	}{
		{cfg.Triangle, o.EnableTriangleShape, o.DisableTriangleShape},
		{cfg.Saw, o.EnableSawShape, o.DisableSawShape},
		{cfg.Pulse, o.EnablePulseShape, o.DisablePulseShape},
	}
	for _, s := range set {
		if s.on {
			if err := s.enable(); err != nil {
				return err
			}
		}
	}
	for _, s := range set {
		if !s.on {
			if err := s.disable(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e EnvelopeParams) apply(env *Envelope) error {
	return errors.Join(
		env.SetAttack(e.Attack),
		env.SetDecay(e.Decay),
		env.SetSustain(e.Sustain),
		env.SetRelease(e.Release),
	)
}
