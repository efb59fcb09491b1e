package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

func TestLoadJSONAppliesPatch(t *testing.T) {
	dir := t.TempDir()
	irPath := filepath.Join(dir, "ir.wav")
	if err := os.WriteFile(irPath, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write ir: %v", err)
	}
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "main_gain": 0.7,
  "osc1": {"shapes": ["saw", "pulse"], "pulse_width": 0.25, "unison_detune": 7},
  "osc2": {"level": 0.5, "octaves_offset": -1},
  "noise": {"level": 0.1, "color": "pink"},
  "envelope": {"attack": 0.05, "release": 0.4},
  "filter": {"cutoff": 1200, "envelope_amount": 2400, "envelope": {"decay": 0.3, "sustain": 0.2}},
  "lfos": {"1": {"shape": "square", "range": "mid", "frequency": 8}},
  "routes": [{"dest": "filter.cutoff", "lfos": [1], "amount": 0.4}],
  "delay": {"enabled": true, "amount": 0.3, "time": 0.25, "feedback": 0.5},
  "reverb": {"enabled": true, "ir_wav_path": "ir.wav"}
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	p, err := LoadJSON(presetPath)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.MainGain != 0.7 {
		t.Fatalf("main_gain mismatch: %f", p.MainGain)
	}
	if p.Osc1.Triangle || !p.Osc1.Saw || !p.Osc1.Pulse || p.Osc1.PulseWidth != 0.25 || p.Osc1.UnisonDetune != 7 {
		t.Fatalf("osc1 mismatch: %+v", p.Osc1)
	}
	if p.Osc2.Level != 0.5 || p.Osc2.OctavesOffset != -1 || !p.Osc2.Triangle {
		t.Fatalf("osc2 mismatch: %+v", p.Osc2)
	}
	if p.Noise.Color != dsp.NoisePink || p.Noise.Level != 0.1 {
		t.Fatalf("noise mismatch: %+v", p.Noise)
	}
	if p.Envelope.Attack != 0.05 || p.Envelope.Release != 0.4 || p.Envelope.Sustain != synth.DefaultVoiceSustain {
		t.Fatalf("envelope mismatch: %+v", p.Envelope)
	}
	if p.Filter.Cutoff != 1200 || p.Filter.EnvelopeAmount != 2400 || p.Filter.Envelope.Sustain != 0.2 {
		t.Fatalf("filter mismatch: %+v", p.Filter)
	}
	if l := p.Lfos[1]; l.Shape != synth.WaveSquare || l.Range != synth.LfoRangeMid || l.Frequency != 8 {
		t.Fatalf("lfo 1 mismatch: %+v", l)
	}
	if len(p.Routes) != 1 || p.Routes[0].Dest != synth.DestFilterCutoff || p.Routes[0].Amount != 0.4 {
		t.Fatalf("routes mismatch: %+v", p.Routes)
	}
	if !p.Delay.Enabled || p.Delay.Amount != 0.3 || p.Delay.Time != 0.25 || p.Delay.Feedback != 0.5 {
		t.Fatalf("delay mismatch: %+v", p.Delay)
	}
	if p.Reverb.IRWavPath != irPath {
		t.Fatalf("ir path mismatch: got=%q want=%q", p.Reverb.IRWavPath, irPath)
	}
	if p.Distortion.Enabled || p.Compressor.Enabled {
		t.Fatal("unset effects switched on")
	}
}

func TestLoadedPatchDrivesSynth(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{"osc1": {"shapes": ["saw"]}, "filter": {"cutoff": 800}, "compressor": {"enabled": true}}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	p, err := LoadJSON(presetPath)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	s, err := synth.NewMonoSynth(dsp.NewContext(48000, nil), p)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !s.Voice().Osc1().IsSawShapeEnabled() || s.Voice().Osc1().IsTriangleShapeEnabled() {
		t.Fatal("shapes not applied")
	}
	if got := s.Voice().Filter().CutoffFrequency(); got != 800 {
		t.Fatalf("cutoff: got=%f want=%f", got, 800.0)
	}
	if !s.Compressor().Enabled() {
		t.Fatal("compressor not enabled")
	}
}

func TestLoadJSONRejectsInvalidLfoKey(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{"lfos": {"9": {"frequency": 2}}}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	if _, err := LoadJSON(presetPath); err == nil {
		t.Fatalf("expected error for invalid lfo key")
	}
}

func TestLoadJSONRejectsInvalidNames(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"shape", `{"osc1": {"shapes": ["sine"]}}`},
		{"no shapes", `{"osc2": {"shapes": []}}`},
		{"noise color", `{"noise": {"color": "blue"}}`},
		{"lfo range", `{"lfos": {"0": {"range": "ultra"}}}`},
		{"route amount", `{"routes": [{"dest": "osc1.amplitude", "amount": 2}]}`},
		{"main gain", `{"main_gain": 1.5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			presetPath := filepath.Join(dir, "preset.json")
			if err := os.WriteFile(presetPath, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write preset: %v", err)
			}
			if _, err := LoadJSON(presetPath); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}
