package synth

import (
	"github.com/cwbudde/algo-monosynth/dsp"
)

type mixerSlot struct {
	osc      Oscillator
	level    float64
	filtered bool
}

// OscillatorMixer levels its oscillators through their own output gains,
// each at level/N, and sums them onto a filtered and a direct bus. The first
// oscillator added starts at full level, every later one silent.
type OscillatorMixer struct {
	ctx   *dsp.Context
	slots []mixerSlot
}

func NewOscillatorMixer(ctx *dsp.Context) *OscillatorMixer {
	return &OscillatorMixer{ctx: ctx}
}

// AddFilteredOscillator routes osc to the bus that feeds the filter.
func (m *OscillatorMixer) AddFilteredOscillator(osc Oscillator) int {
	return m.add(osc, true)
}

// AddNonFilteredOscillator routes osc around the filter.
func (m *OscillatorMixer) AddNonFilteredOscillator(osc Oscillator) int {
	return m.add(osc, false)
}

func (m *OscillatorMixer) add(osc Oscillator, filtered bool) int {
	level := MinMixerLevel
	if len(m.slots) == 0 {
		level = MaxMixerLevel
	}
	m.slots = append(m.slots, mixerSlot{osc: osc, level: level, filtered: filtered})
	m.applyLevels()
	return len(m.slots) - 1
}

// SetOscillatorLevel sets the weight of oscillator idx in [0,1].
func (m *OscillatorMixer) SetOscillatorLevel(idx int, level float64) error {
	if err := checkIndex("oscillator", idx, len(m.slots)); err != nil {
		return rejected(m.ctx.Logger(), "OscillatorMixer.SetOscillatorLevel", err)
	}
	if err := checkRange("oscillator level", level, MinMixerLevel, MaxMixerLevel); err != nil {
		return rejected(m.ctx.Logger(), "OscillatorMixer.SetOscillatorLevel", err)
	}
	m.slots[idx].level = level
	m.applyLevels()
	return nil
}

// OscillatorLevel is the weight of oscillator idx, or 0 for a bad index.
func (m *OscillatorMixer) OscillatorLevel(idx int) float64 {
	if idx < 0 || idx >= len(m.slots) {
		return 0
	}
	return m.slots[idx].level
}

func (m *OscillatorMixer) Len() int { return len(m.slots) }

func (m *OscillatorMixer) applyLevels() {
	n := float64(len(m.slots))
	for _, s := range m.slots {
		_ = s.osc.SetOutputGain(s.level / n)
	}
}

// Process pulls every oscillator once and returns both bus sums.
func (m *OscillatorMixer) Process() (filtered, direct float64) {
	for _, s := range m.slots {
		x := s.osc.Next()
		if s.filtered {
			filtered += x
		} else {
			direct += x
		}
	}
	return filtered, direct
}
