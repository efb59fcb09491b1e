package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

// File is the JSON schema for synth patches. Every field is optional; an
// absent field keeps the default.
type File struct {
	MainGain   *float64              `json:"main_gain"`
	Osc1       *OscSetting           `json:"osc1"`
	Osc2       *OscSetting           `json:"osc2"`
	Sub        *SubSetting           `json:"sub"`
	Noise      *NoiseSetting         `json:"noise"`
	Envelope   *EnvelopeSetting      `json:"envelope"`
	Filter     *FilterSetting        `json:"filter"`
	Lfos       map[string]LfoSetting `json:"lfos"`
	Routes     []RouteSetting        `json:"routes"`
	Distortion *DistortionSetting    `json:"distortion"`
	Delay      *DelaySetting         `json:"delay"`
	Reverb     *ReverbSetting        `json:"reverb"`
	Compressor *CompressorSetting    `json:"compressor"`
}

type OscSetting struct {
	Level           *float64 `json:"level"`
	Shapes          []string `json:"shapes"`
	PulseWidth      *float64 `json:"pulse_width"`
	UnisonDetune    *float64 `json:"unison_detune"`
	OctavesOffset   *int     `json:"octaves_offset"`
	SemitonesOffset *int     `json:"semitones_offset"`
	CentsOffset     *float64 `json:"cents_offset"`
}

type SubSetting struct {
	Level           *float64 `json:"level"`
	OctavesOffset   *int     `json:"octaves_offset"`
	SemitonesOffset *int     `json:"semitones_offset"`
	CentsOffset     *float64 `json:"cents_offset"`
}

type NoiseSetting struct {
	Level *float64 `json:"level"`
	Color string   `json:"color"`
}

type EnvelopeSetting struct {
	Attack  *float64 `json:"attack"`
	Decay   *float64 `json:"decay"`
	Sustain *float64 `json:"sustain"`
	Release *float64 `json:"release"`
}

type FilterSetting struct {
	Cutoff         *float64         `json:"cutoff"`
	Resonance      *float64         `json:"resonance"`
	EnvelopeAmount *float64         `json:"envelope_amount"`
	Envelope       *EnvelopeSetting `json:"envelope"`
}

// LfoSetting overrides one general-purpose LFO, keyed by pool index.
type LfoSetting struct {
	Shape     string   `json:"shape"`
	Range     string   `json:"range"`
	Frequency *float64 `json:"frequency"`
	Gain      *float64 `json:"gain"`
}

type RouteSetting struct {
	Dest   string  `json:"dest"`
	Lfos   []int   `json:"lfos"`
	Amount float64 `json:"amount"`
}

type EffectSetting struct {
	Enabled *bool    `json:"enabled"`
	Amount  *float64 `json:"amount"`
}

type DistortionSetting struct {
	EffectSetting
	Drive    *float64 `json:"drive"`
	Angle    *float64 `json:"angle"`
	Constant *float64 `json:"constant"`
}

type DelaySetting struct {
	EffectSetting
	Time     *float64 `json:"time"`
	Feedback *float64 `json:"feedback"`
}

type ReverbSetting struct {
	EffectSetting
	DecayRate *float64 `json:"decay_rate"`
	IRWavPath string   `json:"ir_wav_path"`
}

type CompressorSetting struct {
	EffectSetting
	Threshold *float64 `json:"threshold"`
	Knee      *float64 `json:"knee"`
	Ratio     *float64 `json:"ratio"`
	Attack    *float64 `json:"attack"`
	Release   *float64 `json:"release"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}

	if p.Reverb.IRWavPath != "" && !filepath.IsAbs(p.Reverb.IRWavPath) {
		base := filepath.Dir(path)
		p.Reverb.IRWavPath = filepath.Clean(filepath.Join(base, p.Reverb.IRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
// Names and indices are checked here; numeric windows are enforced when
// the params reach a MonoSynth.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.MainGain != nil {
		if *f.MainGain < synth.MinMainGain || *f.MainGain > synth.MaxMainGain {
			return fmt.Errorf("main_gain must be in [0,1]")
		}
		dst.MainGain = *f.MainGain
	}
	if err := applyOsc("osc1", &dst.Osc1, f.Osc1); err != nil {
		return err
	}
	if err := applyOsc("osc2", &dst.Osc2, f.Osc2); err != nil {
		return err
	}
	if s := f.Sub; s != nil {
		setFloat(&dst.Sub.Level, s.Level)
		setInt(&dst.Sub.OctavesOffset, s.OctavesOffset)
		setInt(&dst.Sub.SemitonesOffset, s.SemitonesOffset)
		setFloat(&dst.Sub.CentsOffset, s.CentsOffset)
	}
	if n := f.Noise; n != nil {
		setFloat(&dst.Noise.Level, n.Level)
		if n.Color != "" {
			c, ok := dsp.ParseNoiseColor(strings.ToLower(strings.TrimSpace(n.Color)))
			if !ok {
				return fmt.Errorf("invalid noise.color %q (expected white, pink or brown)", n.Color)
			}
			dst.Noise.Color = c
		}
	}
	applyEnvelope(&dst.Envelope, f.Envelope)
	if fl := f.Filter; fl != nil {
		setFloat(&dst.Filter.Cutoff, fl.Cutoff)
		setFloat(&dst.Filter.Resonance, fl.Resonance)
		setFloat(&dst.Filter.EnvelopeAmount, fl.EnvelopeAmount)
		applyEnvelope(&dst.Filter.Envelope, fl.Envelope)
	}
	if err := applyLfos(dst, f.Lfos); err != nil {
		return err
	}
	for i, r := range f.Routes {
		dest := synth.Destination(strings.TrimSpace(r.Dest))
		if dest == "" {
			return fmt.Errorf("routes[%d].dest is empty", i)
		}
		if r.Amount < synth.MinModulationAmount || r.Amount > synth.MaxModulationAmount {
			return fmt.Errorf("routes[%d].amount must be in [-1,1]", i)
		}
		dst.Routes = append(dst.Routes, synth.ModRoute{
			Dest:   dest,
			Lfos:   append([]int(nil), r.Lfos...),
			Amount: r.Amount,
		})
	}

	if d := f.Distortion; d != nil {
		applyEffect(&dst.Distortion.EffectParams, d.EffectSetting)
		setFloat(&dst.Distortion.Drive, d.Drive)
		setFloat(&dst.Distortion.Angle, d.Angle)
		setFloat(&dst.Distortion.Constant, d.Constant)
	}
	if d := f.Delay; d != nil {
		applyEffect(&dst.Delay.EffectParams, d.EffectSetting)
		setFloat(&dst.Delay.Time, d.Time)
		setFloat(&dst.Delay.Feedback, d.Feedback)
	}
	if r := f.Reverb; r != nil {
		applyEffect(&dst.Reverb.EffectParams, r.EffectSetting)
		setFloat(&dst.Reverb.DecayRate, r.DecayRate)
		if r.IRWavPath != "" {
			dst.Reverb.IRWavPath = strings.TrimSpace(r.IRWavPath)
		}
	}
	if c := f.Compressor; c != nil {
		applyEffect(&dst.Compressor.EffectParams, c.EffectSetting)
		setFloat(&dst.Compressor.Threshold, c.Threshold)
		setFloat(&dst.Compressor.Knee, c.Knee)
		setFloat(&dst.Compressor.Ratio, c.Ratio)
		setFloat(&dst.Compressor.Attack, c.Attack)
		setFloat(&dst.Compressor.Release, c.Release)
	}
	return nil
}

func applyOsc(name string, dst *synth.OscParams, s *OscSetting) error {
	if s == nil {
		return nil
	}
	if s.Level != nil {
		if *s.Level < synth.MinMixerLevel || *s.Level > synth.MaxMixerLevel {
			return fmt.Errorf("%s.level must be in [0,1]", name)
		}
		dst.Level = *s.Level
	}
	if s.Shapes != nil {
		tri, saw, pulse := false, false, false
		for _, sh := range s.Shapes {
			switch strings.ToLower(strings.TrimSpace(sh)) {
			case "triangle":
				tri = true
			case "saw":
				saw = true
			case "pulse":
				pulse = true
			default:
				return fmt.Errorf("invalid %s shape %q (expected triangle, saw or pulse)", name, sh)
			}
		}
		if !tri && !saw && !pulse {
			return fmt.Errorf("%s.shapes must name at least one shape", name)
		}
		dst.Triangle, dst.Saw, dst.Pulse = tri, saw, pulse
	}
	setFloat(&dst.PulseWidth, s.PulseWidth)
	setFloat(&dst.UnisonDetune, s.UnisonDetune)
	setInt(&dst.OctavesOffset, s.OctavesOffset)
	setInt(&dst.SemitonesOffset, s.SemitonesOffset)
	setFloat(&dst.CentsOffset, s.CentsOffset)
	return nil
}

func applyLfos(dst *synth.Params, lfos map[string]LfoSetting) error {
	if len(lfos) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lfos))
	for k := range lfos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= synth.GeneralLfoCount {
			return fmt.Errorf("invalid lfos key %q (expected 0..%d)", k, synth.GeneralLfoCount-1)
		}
		for len(dst.Lfos) <= idx {
			dst.Lfos = append(dst.Lfos, synth.NewDefaultParams().Lfos[0])
		}
		override := lfos[k]
		lp := &dst.Lfos[idx]
		if override.Shape != "" {
			w, ok := synth.ParseWaveform(strings.ToLower(strings.TrimSpace(override.Shape)))
			if !ok {
				return fmt.Errorf("lfos[%d].shape %q is not a waveform", idx, override.Shape)
			}
			lp.Shape = w
		}
		if override.Range != "" {
			r, ok := synth.ParseFreqRange(strings.ToLower(strings.TrimSpace(override.Range)))
			if !ok {
				return fmt.Errorf("lfos[%d].range %q (expected low, mid or high)", idx, override.Range)
			}
			lp.Range = r
		}
		if override.Frequency != nil {
			if *override.Frequency <= 0 {
				return fmt.Errorf("lfos[%d].frequency must be > 0", idx)
			}
			lp.Frequency = *override.Frequency
		}
		if override.Gain != nil {
			if *override.Gain < synth.MinLfoGain || *override.Gain > synth.MaxLfoGain {
				return fmt.Errorf("lfos[%d].gain must be in [0,1]", idx)
			}
			lp.Gain = *override.Gain
		}
	}
	return nil
}

func applyEnvelope(dst *synth.EnvelopeParams, s *EnvelopeSetting) {
	if s == nil {
		return
	}
	setFloat(&dst.Attack, s.Attack)
	setFloat(&dst.Decay, s.Decay)
	setFloat(&dst.Sustain, s.Sustain)
	setFloat(&dst.Release, s.Release)
}

func applyEffect(dst *synth.EffectParams, s EffectSetting) {
	if s.Enabled != nil {
		dst.Enabled = *s.Enabled
	}
	setFloat(&dst.Amount, s.Amount)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
