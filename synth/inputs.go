package synth

import (
	"github.com/cwbudde/algo-monosynth/dsp"
)

// Source yields one sample per call. Generators advance on every call;
// taps into shared state just read it.
type Source interface {
	Next() float64
}

// SourceFunc adapts a function to Source.
type SourceFunc func() float64

func (f SourceFunc) Next() float64 { return f() }

// AdditiveInputsManager sums weighted inputs and scales the sum by 1/N so
// that N inputs at full weight cannot exceed unity together.
type AdditiveInputsManager struct {
	ctx        *dsp.Context
	inputs     []Source
	weights    []*dsp.Param
	outputGain *dsp.Param
}

func NewAdditiveInputsManager(ctx *dsp.Context) *AdditiveInputsManager {
	return &AdditiveInputsManager{
		ctx:        ctx,
		outputGain: dsp.NewParam(ctx, 0),
	}
}

// ConnectInput appends src at weight 0 and returns its index.
func (m *AdditiveInputsManager) ConnectInput(src Source) int {
	m.inputs = append(m.inputs, src)
	m.weights = append(m.weights, dsp.NewParam(m.ctx, 0))
	m.computeOutputGain()
	return len(m.inputs) - 1
}

// SetInputGain sets the weight of input idx in [0,1].
func (m *AdditiveInputsManager) SetInputGain(idx int, gain float64) error {
	if err := checkIndex("input", idx, len(m.inputs)); err != nil {
		return rejected(m.ctx.Logger(), "AdditiveInputsManager.SetInputGain", err)
	}
	if err := checkRange("input gain", gain, MinOscGain, MaxOscGain); err != nil {
		return rejected(m.ctx.Logger(), "AdditiveInputsManager.SetInputGain", err)
	}
	m.weights[idx].RampLinearTo(gain, m.ctx.CurrentTime())
	return nil
}

// InputGain is the scheduled weight of input idx, or 0 for a bad index.
func (m *AdditiveInputsManager) InputGain(idx int) float64 {
	if idx < 0 || idx >= len(m.weights) {
		return 0
	}
	return m.weights[idx].Value()
}

func (m *AdditiveInputsManager) Len() int { return len(m.inputs) }

// OutputGain is 1/N, or 0 with no inputs.
func (m *AdditiveInputsManager) OutputGain() float64 {
	return m.outputGain.Value()
}

// Next pulls every input once and returns the normalized weighted sum.
func (m *AdditiveInputsManager) Next() float64 {
	sum := 0.0
	for i, in := range m.inputs {
		x := in.Next()
		if w := m.weights[i].Value(); w != 0 {
			sum += w * x
		}
	}
	return sum * m.outputGain.Value()
}

func (m *AdditiveInputsManager) computeOutputGain() {
	g := 0.0
	if n := len(m.inputs); n > 0 {
		g = 1.0 / float64(n)
	}
	m.outputGain.RampLinearTo(g, m.ctx.CurrentTime())
}

// ToggledInputsManager sums the enabled inputs and scales the sum by
// 1/enabled, kept just below unity. Disabled inputs keep running silently.
type ToggledInputsManager struct {
	ctx        *dsp.Context
	inputs     []Source
	enabled    []bool
	count      int
	outputGain *dsp.Param
}

func NewToggledInputsManager(ctx *dsp.Context) *ToggledInputsManager {
	return &ToggledInputsManager{
		ctx:        ctx,
		outputGain: dsp.NewParam(ctx, 0),
	}
}

// ConnectInput appends src disabled and returns its index.
func (m *ToggledInputsManager) ConnectInput(src Source) int {
	m.inputs = append(m.inputs, src)
	m.enabled = append(m.enabled, false)
	m.computeOutputGain()
	return len(m.inputs) - 1
}

func (m *ToggledInputsManager) MuteInput(idx int) error {
	return m.toggle(idx, false, "ToggledInputsManager.MuteInput")
}

func (m *ToggledInputsManager) UnmuteInput(idx int) error {
	return m.toggle(idx, true, "ToggledInputsManager.UnmuteInput")
}

func (m *ToggledInputsManager) toggle(idx int, on bool, op string) error {
	if err := checkIndex("input", idx, len(m.inputs)); err != nil {
		return rejected(m.ctx.Logger(), op, err)
	}
	if m.enabled[idx] != on {
		m.enabled[idx] = on
		if on {
			m.count++
		} else {
			m.count--
		}
	}
	m.computeOutputGain()
	return nil
}

// IsEnabled reports whether input idx contributes; false for a bad index.
func (m *ToggledInputsManager) IsEnabled(idx int) bool {
	return idx >= 0 && idx < len(m.enabled) && m.enabled[idx]
}

func (m *ToggledInputsManager) EnabledCount() int { return m.count }

func (m *ToggledInputsManager) Len() int { return len(m.inputs) }

// OutputGain is 1/enabled minus a tiny epsilon, or 0 when nothing is enabled.
func (m *ToggledInputsManager) OutputGain() float64 {
	return m.outputGain.Value()
}

// Next pulls every input once and returns the normalized sum of the enabled ones.
func (m *ToggledInputsManager) Next() float64 {
	sum := 0.0
	for i, in := range m.inputs {
		x := in.Next()
		if m.enabled[i] {
			sum += x
		}
	}
	return sum * m.outputGain.Value()
}

func (m *ToggledInputsManager) computeOutputGain() {
	g := 0.0
	if m.count > 0 {
		g = 1.0/float64(m.count) - gainEpsilon
	}
	m.outputGain.RampLinearTo(g, m.ctx.CurrentTime())
}
