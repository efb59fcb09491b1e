package sequencer

import (
	"fmt"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

// StepPlayer is the voice surface a Sequencer drives.
type StepPlayer interface {
	PlaySequencerStep(beatOctaves, beatSemitones int, stepDuration float64) error
	ResetBeatOffsets()
}

// Sequencer walks a Pattern on the sample clock. Register it as a ticker on
// the synth so every step starts on the exact frame of its 16th.
type Sequencer struct {
	player  StepPlayer
	pattern *Pattern
	running bool
	pos     int
	next    float64
}

func New(player StepPlayer, pattern *Pattern) (*Sequencer, error) {
	if pattern == nil {
		pattern = DefaultPattern()
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{player: player, pattern: pattern}, nil
}

// Start plays step 0 on the next tick.
func (s *Sequencer) Start(ctx *dsp.Context) {
	s.running = true
	s.pos = 0
	s.next = float64(ctx.Frame())
	ctx.Logger().Debug("sequencer start", "tempo", s.pattern.Tempo, "steps", len(s.pattern.Steps))
}

// Stop halts the pattern and clears the transposition it left behind.
func (s *Sequencer) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.player.ResetBeatOffsets()
}

func (s *Sequencer) Running() bool     { return s.running }
func (s *Sequencer) Pattern() *Pattern { return s.pattern }

// Position is the index of the step that plays next.
func (s *Sequencer) Position() int { return s.pos }

// SetPattern swaps the pattern; playback continues from the same position
// modulo the new length.
func (s *Sequencer) SetPattern(p *Pattern) error {
	if p == nil {
		return fmt.Errorf("nil pattern")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.pattern = p
	s.pos %= len(p.Steps)
	return nil
}

// SetTempo takes effect from the next step.
func (s *Sequencer) SetTempo(bpm float64) error {
	if bpm < MinTempo || bpm > MaxTempo {
		return fmt.Errorf("tempo %g not in [%g, %g]: %w", bpm, MinTempo, MaxTempo, synth.ErrOutOfRange)
	}
	s.pattern.Tempo = bpm
	return nil
}

// Tick fires the pending step once its frame is reached.
func (s *Sequencer) Tick(ctx *dsp.Context) {
	if !s.running || float64(ctx.Frame()) < s.next {
		return
	}
	dur := s.pattern.StepDuration()
	step := s.pattern.Steps[s.pos]
	if step.Enabled {
		if err := s.player.PlaySequencerStep(step.Octave, step.Note-CenterStepNote, dur); err != nil {
			ctx.Logger().Warn("sequencer step rejected", "step", s.pos, "err", err)
		}
	}
	s.pos = (s.pos + 1) % len(s.pattern.Steps)
	s.next += dur * float64(ctx.SampleRate())
}
