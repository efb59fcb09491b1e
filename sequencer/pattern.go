package sequencer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-monosynth/synth"
)

const (
	MinTempo     = 20.0
	MaxTempo     = 200.0
	DefaultTempo = 120.0

	MaxSteps = 16

	MinStepNote    = 0
	MaxStepNote    = 24
	CenterStepNote = 12

	MinStepOctave = -1
	MaxStepOctave = 1
)

// Step is one cell of a pattern. Note 12 plays the held note unchanged;
// every unit away from it is one semitone.
type Step struct {
	Enabled bool `yaml:"enabled"`
	Note    int  `yaml:"note"`
	Octave  int  `yaml:"octave"`
}

// Pattern is a looped run of 16th-note steps.
type Pattern struct {
	Tempo float64 `yaml:"tempo"`
	Steps []Step  `yaml:"steps"`
}

// DefaultPattern repeats the held note on every 16th.
func DefaultPattern() *Pattern {
	p := &Pattern{Tempo: DefaultTempo, Steps: make([]Step, MaxSteps)}
	for i := range p.Steps {
		p.Steps[i] = Step{Enabled: true, Note: CenterStepNote}
	}
	return p
}

// LoadPattern reads a YAML pattern file. An absent tempo means 120 BPM.
func LoadPattern(path string) (*Pattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePattern(b)
}

func ParsePattern(b []byte) (*Pattern, error) {
	p := &Pattern{Tempo: DefaultTempo}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("parse pattern: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the tempo and every step.
func (p *Pattern) Validate() error {
	if p.Tempo < MinTempo || p.Tempo > MaxTempo {
		return fmt.Errorf("tempo %g not in [%g, %g]: %w", p.Tempo, MinTempo, MaxTempo, synth.ErrOutOfRange)
	}
	if len(p.Steps) == 0 || len(p.Steps) > MaxSteps {
		return fmt.Errorf("pattern has %d steps, want 1..%d: %w", len(p.Steps), MaxSteps, synth.ErrOutOfRange)
	}
	for i, s := range p.Steps {
		if s.Note < MinStepNote || s.Note > MaxStepNote {
			return fmt.Errorf("steps[%d].note %d not in [%d, %d]: %w", i, s.Note, MinStepNote, MaxStepNote, synth.ErrOutOfRange)
		}
		if s.Octave < MinStepOctave || s.Octave > MaxStepOctave {
			return fmt.Errorf("steps[%d].octave %d not in [%d, %d]: %w", i, s.Octave, MinStepOctave, MaxStepOctave, synth.ErrOutOfRange)
		}
	}
	return nil
}

// StepDuration is one 16th note in seconds.
func (p *Pattern) StepDuration() float64 {
	return stepDuration(p.Tempo)
}

func stepDuration(bpm float64) float64 {
	return 60.0 / bpm / 4.0
}
