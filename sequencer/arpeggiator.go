package sequencer

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

const (
	MinArpTempo     = 20.0
	MaxArpTempo     = 300.0
	DefaultArpTempo = 120.0

	MinArpKeys = 1
	MaxArpKeys = 4

	MinArpOctaves = 1
	MaxArpOctaves = 4
)

// Mode is the direction an arpeggio walks its notes.
type Mode int

const (
	ModeUp Mode = iota
	ModeDown
	ModeUpDown
)

func (m Mode) String() string {
	switch m {
	case ModeUp:
		return "up"
	case ModeDown:
		return "down"
	case ModeUpDown:
		return "updown"
	default:
		return "unknown"
	}
}

// ParseMode accepts "up", "down" or "updown".
func ParseMode(s string) (Mode, bool) {
	for _, m := range []Mode{ModeUp, ModeDown, ModeUpDown} {
		if m.String() == s {
			return m, true
		}
	}
	return ModeUp, false
}

// NotePlayer is the voice surface an Arpeggiator drives.
type NotePlayer interface {
	PlayNote(octaves, semitones int, duration float64) error
}

// Arpeggiator cycles through the held MIDI keys, spread over one or more
// octaves, one 16th note at a time. It plays once MinKeys keys are held.
type Arpeggiator struct {
	player  NotePlayer
	tempo   float64
	octaves int
	minKeys int
	mode    Mode

	held    []int
	notes   []int
	pos     int
	next    float64
	playing bool
}

func NewArpeggiator(player NotePlayer) *Arpeggiator {
	return &Arpeggiator{
		player:  player,
		tempo:   DefaultArpTempo,
		octaves: MinArpOctaves,
		minKeys: MinArpKeys,
		mode:    ModeUp,
	}
}

func (a *Arpeggiator) SetTempo(bpm float64) error {
	if bpm < MinArpTempo || bpm > MaxArpTempo {
		return fmt.Errorf("arpeggiator tempo %g not in [%g, %g]: %w", bpm, MinArpTempo, MaxArpTempo, synth.ErrOutOfRange)
	}
	a.tempo = bpm
	return nil
}

func (a *Arpeggiator) SetOctaves(n int) error {
	if n < MinArpOctaves || n > MaxArpOctaves {
		return fmt.Errorf("arpeggiator octaves %d not in [%d, %d]: %w", n, MinArpOctaves, MaxArpOctaves, synth.ErrOutOfRange)
	}
	a.octaves = n
	a.rebuild()
	return nil
}

func (a *Arpeggiator) SetMinKeys(n int) error {
	if n < MinArpKeys || n > MaxArpKeys {
		return fmt.Errorf("arpeggiator keys %d not in [%d, %d]: %w", n, MinArpKeys, MaxArpKeys, synth.ErrOutOfRange)
	}
	a.minKeys = n
	return nil
}

func (a *Arpeggiator) SetMode(m Mode) {
	a.mode = m
	a.rebuild()
}

func (a *Arpeggiator) Tempo() float64 { return a.tempo }
func (a *Arpeggiator) Octaves() int   { return a.octaves }
func (a *Arpeggiator) MinKeys() int   { return a.minKeys }
func (a *Arpeggiator) Mode() Mode     { return a.mode }

// Notes is the MIDI sequence one cycle plays.
func (a *Arpeggiator) Notes() []int {
	return append([]int(nil), a.notes...)
}

// NoteOn adds a held key. A fifth key replaces the oldest one.
func (a *Arpeggiator) NoteOn(m int) error {
	if m < synth.MinMidiNote || m > synth.MaxMidiNote {
		return fmt.Errorf("midi note %d: %w", m, synth.ErrOutOfRange)
	}
	for _, k := range a.held {
		if k == m {
			return nil
		}
	}
	if len(a.held) == MaxArpKeys {
		a.held = a.held[1:]
	}
	a.held = append(a.held, m)
	a.rebuild()
	return nil
}

func (a *Arpeggiator) NoteOff(m int) {
	for i, k := range a.held {
		if k == m {
			a.held = append(a.held[:i], a.held[i+1:]...)
			a.rebuild()
			return
		}
	}
}

// HeldKeys returns the held keys in press order.
func (a *Arpeggiator) HeldKeys() []int {
	return append([]int(nil), a.held...)
}

func (a *Arpeggiator) rebuild() {
	keys := append([]int(nil), a.held...)
	sort.Ints(keys)
	up := make([]int, 0, len(keys)*a.octaves)
	for o := 0; o < a.octaves; o++ {
		for _, k := range keys {
			if n := k + 12*o; n <= synth.MaxMidiNote {
				up = append(up, n)
			}
		}
	}
	switch a.mode {
	case ModeDown:
		a.notes = reversed(up)
	case ModeUpDown:
		a.notes = up
		if len(up) > 2 {
			a.notes = append(a.notes, reversed(up[1:len(up)-1])...)
		}
	default:
		a.notes = up
	}
	if len(a.notes) > 0 {
		a.pos %= len(a.notes)
	}
}

func reversed(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Tick plays the next arpeggio note on 16th-note boundaries. Dropping
// below MinKeys held keys restarts the cycle.
func (a *Arpeggiator) Tick(ctx *dsp.Context) {
	if len(a.held) < a.minKeys || len(a.notes) == 0 {
		a.playing = false
		a.pos = 0
		return
	}
	now := float64(ctx.Frame())
	if !a.playing {
		a.playing = true
		a.next = now
	}
	if now < a.next {
		return
	}
	dur := stepDuration(a.tempo)
	note := a.notes[a.pos]
	oct, semi := synth.MidiToOctavesSemitones(note)
	if err := a.player.PlayNote(oct, semi, dur); err != nil {
		ctx.Logger().Warn("arpeggiator note rejected", "note", note, "err", err)
	}
	a.pos = (a.pos + 1) % len(a.notes)
	a.next += dur * float64(ctx.SampleRate())
}
