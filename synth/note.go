package synth

import (
	"log/slog"
	"math"
)

// Note is the pitch model of one melodic oscillator: a base octave and
// semitone, a user offset layer and a sequencer beat offset layer.
type Note struct {
	logger *slog.Logger

	octaves   int
	semitones int

	octavesOffset   int
	semitonesOffset int
	centsOffset     float64

	octavesBeatOffset   int
	semitonesBeatOffset int

	freq float64
}

// NewNote creates A4 with all offsets cleared.
func NewNote(logger *slog.Logger) *Note {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &Note{
		logger:    logger,
		octaves:   DefaultOctaves,
		semitones: DefaultSemitones,
	}
	n.computeFreq()
	return n
}

func (n *Note) Octaves() int             { return n.octaves }
func (n *Note) Semitones() int           { return n.semitones }
func (n *Note) OctavesOffset() int       { return n.octavesOffset }
func (n *Note) SemitonesOffset() int     { return n.semitonesOffset }
func (n *Note) CentsOffset() float64     { return n.centsOffset }
func (n *Note) BeatOctavesOffset() int   { return n.octavesBeatOffset }
func (n *Note) BeatSemitonesOffset() int { return n.semitonesBeatOffset }

// Freq is the frequency in Hz for the current layers.
func (n *Note) Freq() float64 { return n.freq }

func (n *Note) SetOctaves(octaves int) error {
	if err := checkIntRange("octaves", octaves, MinOctaves, MaxOctaves); err != nil {
		return rejected(n.logger, "Note.SetOctaves", err)
	}
	n.octaves = octaves
	n.computeFreq()
	return nil
}

func (n *Note) SetSemitones(semitones int) error {
	if err := checkIntRange("semitones", semitones, MinSemitones, MaxSemitones); err != nil {
		return rejected(n.logger, "Note.SetSemitones", err)
	}
	n.semitones = semitones
	n.computeFreq()
	return nil
}

// SetOctavesAndSemitones sets both base values or neither.
func (n *Note) SetOctavesAndSemitones(octaves, semitones int) error {
	if err := checkIntRange("octaves", octaves, MinOctaves, MaxOctaves); err != nil {
		return rejected(n.logger, "Note.SetOctavesAndSemitones", err)
	}
	if err := checkIntRange("semitones", semitones, MinSemitones, MaxSemitones); err != nil {
		return rejected(n.logger, "Note.SetOctavesAndSemitones", err)
	}
	n.octaves = octaves
	n.semitones = semitones
	n.computeFreq()
	return nil
}

func (n *Note) SetOctavesOffset(offset int) error {
	if err := checkIntRange("octaves offset", offset, MinOctavesOffset, MaxOctavesOffset); err != nil {
		return rejected(n.logger, "Note.SetOctavesOffset", err)
	}
	n.octavesOffset = offset
	n.computeFreq()
	return nil
}

func (n *Note) SetSemitonesOffset(offset int) error {
	if err := checkIntRange("semitones offset", offset, MinSemitonesOffset, MaxSemitonesOffset); err != nil {
		return rejected(n.logger, "Note.SetSemitonesOffset", err)
	}
	n.semitonesOffset = offset
	n.computeFreq()
	return nil
}

func (n *Note) SetCentsOffset(cents float64) error {
	if err := checkRange("cents offset", cents, MinCentsOffset, MaxCentsOffset); err != nil {
		return rejected(n.logger, "Note.SetCentsOffset", err)
	}
	n.centsOffset = cents
	n.computeFreq()
	return nil
}

func (n *Note) SetBeatOctavesOffset(offset int) error {
	if err := checkIntRange("beat octaves offset", offset, MinBeatOctavesOffset, MaxBeatOctavesOffset); err != nil {
		return rejected(n.logger, "Note.SetBeatOctavesOffset", err)
	}
	n.octavesBeatOffset = offset
	n.computeFreq()
	return nil
}

func (n *Note) SetBeatSemitonesOffset(offset int) error {
	if err := checkIntRange("beat semitones offset", offset, MinBeatSemitonesOffset, MaxBeatSemitonesOffset); err != nil {
		return rejected(n.logger, "Note.SetBeatSemitonesOffset", err)
	}
	n.semitonesBeatOffset = offset
	n.computeFreq()
	return nil
}

// SetFromMidiNoteNumber maps m to octave m/12-1 and semitone m%12.
// Notes whose octave falls outside the playable window are rejected.
func (n *Note) SetFromMidiNoteNumber(m int) error {
	if err := checkIntRange("midi note", m, MinMidiNote, MaxMidiNote); err != nil {
		return rejected(n.logger, "Note.SetFromMidiNoteNumber", err)
	}
	return n.SetOctavesAndSemitones(m/12-1, m%12)
}

// MidiNoteNumber ignores the offset layers.
func (n *Note) MidiNoteNumber() int {
	return (n.octaves+1)*12 + n.semitones
}

func (n *Note) computeFreq() {
	octaves := n.octaves + n.octavesOffset + n.octavesBeatOffset
	semitones := n.semitones + n.semitonesOffset + n.semitonesBeatOffset
	distance := float64((octaves-4)*12+semitones-9) + n.centsOffset/100.0
	n.freq = 440.0 * math.Pow(2, distance/12.0)
}

// MidiToOctavesSemitones splits a MIDI note number the way Note does.
func MidiToOctavesSemitones(m int) (octaves, semitones int) {
	return m/12 - 1, m % 12
}
