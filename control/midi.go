// Package control maps MIDI input onto a monophonic synth.
package control

import (
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

// AllNotesOff is the channel mode controller that silences every key.
const AllNotesOff = 123

// Omni accepts messages on every channel.
const Omni = -1

// Instrument is what a MidiController plays.
type Instrument interface {
	NoteOnMidi(m int) error
	NoteOff()
}

// MidiController tracks held keys with last-note priority: the newest key
// sounds, releasing it falls back to the newest key still down, and the
// voice is released only when no key is held.
type MidiController struct {
	inst    Instrument
	channel int
	held    []int
	logger  *slog.Logger
}

// NewMidiController listens on channel, or on every channel with Omni.
func NewMidiController(inst Instrument, channel int, logger *slog.Logger) *MidiController {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MidiController{inst: inst, channel: channel, logger: logger}
}

// Held returns the keys down, oldest first.
func (c *MidiController) Held() []int {
	return append([]int(nil), c.held...)
}

// Handle applies one message and reports whether it was used.
func (c *MidiController) Handle(msg midi.Message) bool {
	var ch, key, vel, ctl uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if !c.accepts(ch) {
			return false
		}
		c.NoteOn(int(key))
		return true
	case msg.GetNoteEnd(&ch, &key):
		if !c.accepts(ch) {
			return false
		}
		c.NoteOff(int(key))
		return true
	case msg.GetControlChange(&ch, &ctl, &vel):
		if !c.accepts(ch) || ctl != AllNotesOff {
			return false
		}
		c.AllOff()
		return true
	}
	c.logger.Debug("unhandled MIDI message", "msg", msg.String())
	return false
}

func (c *MidiController) accepts(ch uint8) bool {
	return c.channel == Omni || int(ch) == c.channel
}

// NoteOn makes key the sounding note.
func (c *MidiController) NoteOn(key int) {
	c.remove(key)
	c.held = append(c.held, key)
	if err := c.inst.NoteOnMidi(key); err != nil {
		c.logger.Warn("note on rejected", "key", key, "err", err)
	}
}

// NoteOff releases key. If it was sounding and other keys remain, the most
// recent of them takes over without a release.
func (c *MidiController) NoteOff(key int) {
	wasLast := len(c.held) > 0 && c.held[len(c.held)-1] == key
	if !c.remove(key) {
		return
	}
	if len(c.held) == 0 {
		c.inst.NoteOff()
		return
	}
	if wasLast {
		next := c.held[len(c.held)-1]
		if err := c.inst.NoteOnMidi(next); err != nil {
			c.logger.Warn("note on rejected", "key", next, "err", err)
		}
	}
}

// AllOff forgets every held key and releases the voice.
func (c *MidiController) AllOff() {
	c.held = c.held[:0]
	c.inst.NoteOff()
}

func (c *MidiController) remove(key int) bool {
	for i, k := range c.held {
		if k == key {
			c.held = append(c.held[:i], c.held[i+1:]...)
			return true
		}
	}
	return false
}

// Listener adapts the controller to midi.ListenTo. Every message is applied
// under mu, which must also guard rendering.
func (c *MidiController) Listener(mu sync.Locker) func(msg midi.Message, timestampms int32) {
	return func(msg midi.Message, timestampms int32) {
		mu.Lock()
		defer mu.Unlock()
		c.Handle(msg)
	}
}
