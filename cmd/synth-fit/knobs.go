package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

var validGroups = []string{"envelope", "filter", "mixer", "render"}

// parseOptimizeGroups parses a comma-separated string of group names.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	valid := make(map[string]bool, len(validGroups))
	for _, g := range validGroups {
		valid[g] = true
	}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(validGroups, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *synth.Params, baseReleaseAfter float64, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 24)
	vals := make([]float64, 0, 24)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["envelope"] {
		addKnob(knobDef{Name: "envelope.attack", Min: synth.MinAttack, Max: 1.0}, base.Envelope.Attack)
		addKnob(knobDef{Name: "envelope.decay", Min: synth.MinDecay, Max: 3.0}, base.Envelope.Decay)
		addKnob(knobDef{Name: "envelope.sustain", Min: synth.MinSustain, Max: synth.MaxSustain}, base.Envelope.Sustain)
		addKnob(knobDef{Name: "envelope.release", Min: synth.MinRelease, Max: 3.0}, base.Envelope.Release)
	}
	if groups["filter"] {
		addKnob(knobDef{Name: "filter.cutoff", Min: synth.MinCutoff, Max: synth.MaxCutoff}, base.Filter.Cutoff)
		addKnob(knobDef{Name: "filter.resonance", Min: synth.MinResonance, Max: 20}, base.Filter.Resonance)
		addKnob(knobDef{Name: "filter.envelope_amount", Min: synth.MinEnvelopeAmount, Max: synth.MaxEnvelopeAmount}, base.Filter.EnvelopeAmount)
		addKnob(knobDef{Name: "filter.envelope.attack", Min: synth.MinAttack, Max: 1.0}, base.Filter.Envelope.Attack)
		addKnob(knobDef{Name: "filter.envelope.decay", Min: synth.MinDecay, Max: 3.0}, base.Filter.Envelope.Decay)
		addKnob(knobDef{Name: "filter.envelope.sustain", Min: synth.MinSustain, Max: synth.MaxSustain}, base.Filter.Envelope.Sustain)
	}
	if groups["mixer"] {
		addKnob(knobDef{Name: "osc1.level", Min: synth.MinMixerLevel, Max: synth.MaxMixerLevel}, base.Osc1.Level)
		addKnob(knobDef{Name: "osc1.pulse_width", Min: synth.MinPulseWidth, Max: 0.95}, base.Osc1.PulseWidth)
		addKnob(knobDef{Name: "osc2.level", Min: synth.MinMixerLevel, Max: synth.MaxMixerLevel}, base.Osc2.Level)
		addKnob(knobDef{Name: "osc2.cents_offset", Min: synth.MinCentsOffset, Max: synth.MaxCentsOffset}, base.Osc2.CentsOffset)
		addKnob(knobDef{Name: "sub.level", Min: synth.MinMixerLevel, Max: synth.MaxMixerLevel}, base.Sub.Level)
		addKnob(knobDef{Name: "noise.level", Min: synth.MinMixerLevel, Max: synth.MaxMixerLevel}, base.Noise.Level)
	}
	if groups["render"] {
		addKnob(knobDef{Name: "render.release_after", Min: 0.05, Max: 4.0}, baseReleaseAfter)
	}

	for i := range vals {
		vals[i] = cliutil.Clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the knob values written in,
// and the release time to render with.
func applyCandidate(base *synth.Params, baseReleaseAfter float64, defs []knobDef, c candidate) (*synth.Params, float64) {
	params := cloneParams(base)
	releaseAfter := baseReleaseAfter

	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "envelope.attack":
			params.Envelope.Attack = v
		case "envelope.decay":
			params.Envelope.Decay = v
		case "envelope.sustain":
			params.Envelope.Sustain = v
		case "envelope.release":
			params.Envelope.Release = v
		case "filter.cutoff":
			params.Filter.Cutoff = v
		case "filter.resonance":
			params.Filter.Resonance = v
		case "filter.envelope_amount":
			params.Filter.EnvelopeAmount = v
		case "filter.envelope.attack":
			params.Filter.Envelope.Attack = v
		case "filter.envelope.decay":
			params.Filter.Envelope.Decay = v
		case "filter.envelope.sustain":
			params.Filter.Envelope.Sustain = v
		case "osc1.level":
			params.Osc1.Level = v
		case "osc1.pulse_width":
			params.Osc1.PulseWidth = v
		case "osc2.level":
			params.Osc2.Level = v
		case "osc2.cents_offset":
			params.Osc2.CentsOffset = v
		case "sub.level":
			params.Sub.Level = v
		case "noise.level":
			params.Noise.Level = v
		case "render.release_after":
			releaseAfter = v
		}
	}

	if releaseAfter < 0.05 {
		releaseAfter = 0.05
	}
	return params, releaseAfter
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = cliutil.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func cloneParams(src *synth.Params) *synth.Params {
	if src == nil {
		return synth.NewDefaultParams()
	}
	d := *src
	d.Lfos = append([]synth.LfoParams(nil), src.Lfos...)
	d.Routes = make([]synth.ModRoute, len(src.Routes))
	for i, r := range src.Routes {
		r.Lfos = append([]int(nil), r.Lfos...)
		d.Routes[i] = r
	}
	if src.Routes == nil {
		d.Routes = nil
	}
	return &d
}
