package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

const testRate = 48000

type stepCall struct {
	frame     int64
	octaves   int
	semitones int
	duration  float64
}

type recorder struct {
	ctx    *dsp.Context
	steps  []stepCall
	notes  []stepCall
	resets int
}

func (r *recorder) PlaySequencerStep(o, s int, d float64) error {
	r.steps = append(r.steps, stepCall{r.ctx.Frame(), o, s, d})
	return nil
}

func (r *recorder) ResetBeatOffsets() { r.resets++ }

func (r *recorder) PlayNote(o, s int, d float64) error {
	r.notes = append(r.notes, stepCall{r.ctx.Frame(), o, s, d})
	return nil
}

func run(ctx *dsp.Context, t synth.Ticker, frames int) {
	for i := 0; i < frames; i++ {
		t.Tick(ctx)
		ctx.Advance()
	}
}

func TestParsePatternDefaultsTempo(t *testing.T) {
	p, err := ParsePattern([]byte(`
steps:
  - {enabled: true, note: 12}
  - {enabled: false, note: 0}
  - {enabled: true, note: 19, octave: -1}
`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Tempo != DefaultTempo {
		t.Fatalf("tempo: got=%f want=%f", p.Tempo, DefaultTempo)
	}
	if len(p.Steps) != 3 || p.Steps[2].Note != 19 || p.Steps[2].Octave != -1 || p.Steps[1].Enabled {
		t.Fatalf("steps mismatch: %+v", p.Steps)
	}
	if got := p.StepDuration(); got != 0.125 {
		t.Fatalf("step duration: got=%f want=%f", got, 0.125)
	}
}

func TestPatternValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"slow", "tempo: 10\nsteps: [{enabled: true, note: 12}]"},
		{"fast", "tempo: 250\nsteps: [{enabled: true, note: 12}]"},
		{"empty", "tempo: 120\nsteps: []"},
		{"note", "steps: [{enabled: true, note: 25}]"},
		{"octave", "steps: [{enabled: true, note: 12, octave: 2}]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePattern([]byte(tc.yaml)); !errors.Is(err, synth.ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
		})
	}
	long := DefaultPattern()
	long.Steps = append(long.Steps, Step{})
	if err := long.Validate(); err == nil {
		t.Fatal("17 steps accepted")
	}
}

func TestLoadPatternFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.yaml")
	if err := os.WriteFile(path, []byte("tempo: 90\nsteps: [{enabled: true, note: 7}]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPattern(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tempo != 90 || p.Steps[0].Note != 7 {
		t.Fatalf("pattern mismatch: %+v", p)
	}
}

func TestSequencerFiresOnSixteenths(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	rec := &recorder{ctx: ctx}
	p := &Pattern{Tempo: 120, Steps: []Step{
		{Enabled: true, Note: 14},
		{Enabled: false, Note: 12},
		{Enabled: true, Note: 0, Octave: 1},
	}}
	seq, err := New(rec, p)
	if err != nil {
		t.Fatal(err)
	}
	run(ctx, seq, 100)
	if len(rec.steps) != 0 {
		t.Fatal("sequencer played before start")
	}

	seq.Start(ctx)
	start := ctx.Frame()
	run(ctx, seq, 4*6000+1)

	// Step 1 is disabled; the fourth boundary wraps back to step 0.
	want := []stepCall{
		{start, 0, 2, 0.125},
		{start + 12000, 1, -12, 0.125},
		{start + 18000, 0, 2, 0.125},
	}
	if len(rec.steps) != len(want) {
		t.Fatalf("steps played: got=%d want=%d (%+v)", len(rec.steps), len(want), rec.steps)
	}
	for i, w := range want {
		if rec.steps[i] != w {
			t.Fatalf("step %d: got=%+v want=%+v", i, rec.steps[i], w)
		}
	}

	seq.Stop()
	if rec.resets != 1 || seq.Running() {
		t.Fatal("stop did not reset beat offsets")
	}
}

func TestSequencerTempoChange(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	rec := &recorder{ctx: ctx}
	seq, _ := New(rec, nil)
	seq.Start(ctx)
	run(ctx, seq, 1)
	if err := seq.SetTempo(60); err != nil {
		t.Fatal(err)
	}
	run(ctx, seq, 6000+12000)
	if len(rec.steps) != 3 {
		t.Fatalf("steps: got=%d want=%d", len(rec.steps), 3)
	}
	if got := rec.steps[2].frame - rec.steps[1].frame; got != 12000 {
		t.Fatalf("step spacing at 60 bpm: got=%d want=%d", got, 12000)
	}
	if err := seq.SetTempo(500); !errors.Is(err, synth.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestSequencerDrivesVoice(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	s, err := synth.NewMonoSynth(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := &Pattern{Tempo: 120, Steps: []Step{{Enabled: true, Note: 24, Octave: -1}}}
	seq, err := New(s.Voice(), p)
	if err != nil {
		t.Fatal(err)
	}
	s.AddTicker(seq)
	seq.Start(ctx)
	s.Process(64)
	if got := s.Voice().Osc1().Frequency(); got != 440 {
		t.Fatalf("step pitch: got=%f want=%f", got, 440.0)
	}
	if !s.Voice().Envelope().Active() {
		t.Fatal("step did not start the envelope")
	}
	seq.Stop()
	if got := s.Voice().Osc1().Note().BeatOctavesOffset(); got != 0 {
		t.Fatalf("beat offset after stop: got=%d", got)
	}
}
