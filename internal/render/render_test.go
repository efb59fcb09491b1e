package render

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

const testRate = 48000

func newTestSynth(t *testing.T) *synth.MonoSynth {
	t.Helper()
	s, err := synth.NewMonoSynth(dsp.NewContext(testRate, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRenderFixedDuration(t *testing.T) {
	s := newTestSynth(t)
	out, err := Render(s, Note(57), Options{
		Duration:     0.5,
		ReleaseAfter: 0.25,
		DecayDBFS:    math.Inf(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != testRate/2 {
		t.Fatalf("frames: got=%d want=%d", len(out), testRate/2)
	}
	if rms := BlockRMS(out[testRate/10 : testRate/5]); rms < 0.01 {
		t.Fatalf("held note too quiet: rms=%f", rms)
	}
}

type releaseRecorder struct{ releasedAt int64 }

func (r *releaseRecorder) Start(s *synth.MonoSynth) error { return s.NoteOnMidi(69) }
func (r *releaseRecorder) Release(s *synth.MonoSynth)     { r.releasedAt = s.Context().Frame() }

func TestRenderReleasesOnExactFrame(t *testing.T) {
	s := newTestSynth(t)
	// 1000 is not a multiple of the block size.
	const releaseFrame = 1000
	rec := &releaseRecorder{}
	if _, err := Render(s, rec, Options{
		Duration:     0.05,
		ReleaseAfter: float64(releaseFrame) / testRate,
		DecayDBFS:    math.Inf(1),
		BlockSize:    128,
	}); err != nil {
		t.Fatal(err)
	}
	if rec.releasedAt != releaseFrame {
		t.Fatalf("release frame: got=%d want=%d", rec.releasedAt, releaseFrame)
	}
}

func TestRenderAutoStopsAfterRelease(t *testing.T) {
	s := newTestSynth(t)
	out, err := Render(s, Note(57), Options{
		ReleaseAfter:    0.1,
		DecayDBFS:       -60,
		DecayHoldBlocks: 6,
		MinDuration:     0.2,
		MaxDuration:     5,
	})
	if err != nil {
		t.Fatal(err)
	}
	// The default release is 1 s.
	if len(out) < testRate || len(out) >= 5*testRate {
		t.Fatalf("auto-stop length: got=%d frames", len(out))
	}
}

func TestRenderRejectedNote(t *testing.T) {
	s := newTestSynth(t)
	if _, err := Render(s, Note(200), Options{Duration: 0.1, DecayDBFS: math.Inf(1)}); err == nil {
		t.Fatal("expected error for MIDI note 200")
	}
}
