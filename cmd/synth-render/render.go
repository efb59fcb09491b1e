package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-monosynth/sequencer"
	"github.com/cwbudde/algo-monosynth/synth"
)

// patternPerformer plays a step pattern transposing one held note.
type patternPerformer struct {
	note int
	seq  *sequencer.Sequencer
}

func (p *patternPerformer) Start(s *synth.MonoSynth) error {
	if err := s.NoteOnMidi(p.note); err != nil {
		return err
	}
	s.AddTicker(p.seq)
	p.seq.Start(s.Context())
	return nil
}

func (p *patternPerformer) Release(s *synth.MonoSynth) {
	p.seq.Stop()
	s.NoteOff()
}

// arpPerformer holds keys on an arpeggiator until release.
type arpPerformer struct {
	arp  *sequencer.Arpeggiator
	keys []int
}

func (p *arpPerformer) Start(s *synth.MonoSynth) error {
	for _, k := range p.keys {
		if err := p.arp.NoteOn(k); err != nil {
			return err
		}
	}
	s.AddTicker(p.arp)
	return nil
}

func (p *arpPerformer) Release(s *synth.MonoSynth) {
	for _, k := range p.keys {
		p.arp.NoteOff(k)
	}
}

// parseKeys reads a comma-separated list of MIDI notes.
func parseKeys(raw string) ([]int, error) {
	var keys []int
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q", f)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys given")
	}
	if len(keys) > sequencer.MaxArpKeys {
		return nil, fmt.Errorf("%d keys given, at most %d are held", len(keys), sequencer.MaxArpKeys)
	}
	return keys, nil
}
