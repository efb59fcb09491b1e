package main

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-monosynth/synth"
)

func TestParseOptimizeGroups(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]bool
		wantErr bool
	}{
		{name: "single group", input: "filter", want: map[string]bool{"filter": true}},
		{name: "multiple groups", input: "envelope,mixer", want: map[string]bool{"envelope": true, "mixer": true}},
		{name: "with whitespace", input: " filter , render ", want: map[string]bool{"filter": true, "render": true}},
		{name: "invalid group", input: "filter,bogus", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "  ,  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptimizeGroups(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOptimizeGroups(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOptimizeGroups(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseOptimizeGroups(%q) returned %d groups, want %d", tt.input, len(got), len(tt.want))
			}
			for k := range tt.want {
				if !got[k] {
					t.Fatalf("parseOptimizeGroups(%q) missing group %q", tt.input, k)
				}
			}
		})
	}
}

func TestInitCandidateStartsFromBase(t *testing.T) {
	base := synth.NewDefaultParams()
	base.Filter.Cutoff = 1500
	defs, cand := initCandidate(base, 0.8, map[string]bool{"filter": true, "render": true})
	if len(defs) != 7 || len(cand.Vals) != 7 {
		t.Fatalf("knob count: got=%d want=%d", len(defs), 7)
	}
	want := map[string]float64{
		"filter.cutoff":          1500,
		"filter.resonance":       synth.DefaultResonance,
		"filter.envelope_amount": synth.DefaultEnvelopeAmount,
		"render.release_after":   0.8,
	}
	for i, d := range defs {
		if w, ok := want[d.Name]; ok && cand.Vals[i] != w {
			t.Fatalf("%s: got=%f want=%f", d.Name, cand.Vals[i], w)
		}
		if cand.Vals[i] < d.Min || cand.Vals[i] > d.Max {
			t.Fatalf("%s outside its range: %f", d.Name, cand.Vals[i])
		}
	}
}

func TestApplyCandidateLeavesBaseUntouched(t *testing.T) {
	base := synth.NewDefaultParams()
	base.Routes = []synth.ModRoute{{Dest: synth.DestFilterCutoff, Lfos: []int{0}, Amount: 0.5}}
	defs := []knobDef{
		{Name: "filter.cutoff", Min: 100, Max: 6000},
		{Name: "sub.level", Min: 0, Max: 1},
		{Name: "render.release_after", Min: 0.05, Max: 4},
	}
	params, release := applyCandidate(base, 1.0, defs, candidate{Vals: []float64{900, 0.7, 0.01}})
	if params.Filter.Cutoff != 900 || params.Sub.Level != 0.7 {
		t.Fatalf("knobs not applied: cutoff=%f sub=%f", params.Filter.Cutoff, params.Sub.Level)
	}
	if release != 0.05 {
		t.Fatalf("release floor: got=%f want=%f", release, 0.05)
	}
	if base.Filter.Cutoff != synth.DefaultCutoff || base.Sub.Level != 0 {
		t.Fatal("base params mutated")
	}
	params.Routes[0].Lfos[0] = 3
	if base.Routes[0].Lfos[0] != 0 {
		t.Fatal("routes share storage with base")
	}
}

func TestFromNormalizedMapsUnitCube(t *testing.T) {
	defs := []knobDef{
		{Name: "a", Min: 100, Max: 200},
		{Name: "b", Min: -1, Max: 1},
		{Name: "c", Min: 0, Max: 10, IsInt: true},
	}
	got := fromNormalized([]float64{-0.5, 1, 0.44}, defs)
	want := []float64{100, 1, 4}
	for i := range want {
		if math.Abs(got.Vals[i]-want[i]) > 1e-12 {
			t.Fatalf("%s: got=%f want=%f", defs[i].Name, got.Vals[i], want[i])
		}
	}
}
