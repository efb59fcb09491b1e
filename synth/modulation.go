package synth

import (
	"github.com/cwbudde/algo-monosynth/dsp"
)

// LfoManagerConfig describes the destination a manager modulates.
type LfoManagerConfig struct {
	LowerLimit   float64
	UpperLimit   float64
	CurrentValue float64

	// FixedRanges prefers a flat excursion of UpperFixedRange above and
	// LowerFixedRange below the current value, falling back to the
	// variable policy for a sign whose flat window would cross a limit.
	FixedRanges     bool
	LowerFixedRange float64
	UpperFixedRange float64
}

// LfoManager turns a normalized depth in [-1,1] into an absolute excursion
// that keeps the destination inside its limits, and scales the average of
// its enabled LFOs by that excursion.
type LfoManager struct {
	ctx  *dsp.Context
	lfos *ToggledInputsManager
	gain *dsp.Param

	lower   float64
	upper   float64
	current float64

	fixedRanges bool
	lowerFixed  float64
	upperFixed  float64

	normalized float64
	absolute   float64
}

func NewLfoManager(ctx *dsp.Context, cfg LfoManagerConfig) *LfoManager {
	logger := ctx.Logger()
	lower, upper := cfg.LowerLimit, cfg.UpperLimit
	if lower >= upper {
		logger.Warn("lfo manager limits inverted, swapping", "lower", lower, "upper", upper)
		lower, upper = upper, lower
	}
	current := cfg.CurrentValue
	if current < lower || current > upper || !isFinite(current) {
		mid := lower + (upper-lower)/2
		logger.Warn("lfo manager current value outside limits, using midpoint", "value", current, "midpoint", mid)
		current = mid
	}
	return &LfoManager{
		ctx:         ctx,
		lfos:        NewToggledInputsManager(ctx),
		gain:        dsp.NewParam(ctx, MinLfoGain),
		lower:       lower,
		upper:       upper,
		current:     current,
		fixedRanges: cfg.FixedRanges,
		lowerFixed:  cfg.LowerFixedRange,
		upperFixed:  cfg.UpperFixedRange,
	}
}

// AddLfo registers src disabled and returns its index.
func (m *LfoManager) AddLfo(src Source) int {
	return m.lfos.ConnectInput(src)
}

func (m *LfoManager) EnableLfo(idx int) error {
	return m.lfos.UnmuteInput(idx)
}

func (m *LfoManager) DisableLfo(idx int) error {
	return m.lfos.MuteInput(idx)
}

func (m *LfoManager) IsLfoEnabled(idx int) bool {
	return m.lfos.IsEnabled(idx)
}

// SetNormalizedModulationAmount stores the depth and applies the matching
// absolute excursion.
func (m *LfoManager) SetNormalizedModulationAmount(amount float64) error {
	if err := checkRange("modulation amount", amount, MinModulationAmount, MaxModulationAmount); err != nil {
		return rejected(m.ctx.Logger(), "LfoManager.SetNormalizedModulationAmount", err)
	}
	m.normalized = amount
	m.apply()
	return nil
}

// SetParameterCurrentValue tracks the unmodulated value of the destination.
func (m *LfoManager) SetParameterCurrentValue(value float64) error {
	if err := checkRange("parameter current value", value, m.lower, m.upper); err != nil {
		return rejected(m.ctx.Logger(), "LfoManager.SetParameterCurrentValue", err)
	}
	m.current = value
	m.apply()
	return nil
}

func (m *LfoManager) NormalizedModulationAmount() float64 { return m.normalized }
func (m *LfoManager) AbsoluteModulationAmount() float64   { return m.absolute }
func (m *LfoManager) ParameterCurrentValue() float64      { return m.current }

// Limits returns the destination window after any constructor correction.
func (m *LfoManager) Limits() (float64, float64) { return m.lower, m.upper }

// MixerGain is the normalization gain applied to the enabled LFOs.
func (m *LfoManager) MixerGain() float64 { return m.lfos.OutputGain() }

// OutputGain is the scheduled modulation gain, equal to the absolute amount
// once applied.
func (m *LfoManager) OutputGain() float64 { return m.gain.Value() }

// Next pulls the LFO taps and returns the scaled modulation for this frame.
func (m *LfoManager) Next() float64 {
	return m.lfos.Next() * m.gain.Value()
}

func (m *LfoManager) apply() {
	if m.fixedRanges {
		m.absolute = m.fixedExcursion()
	} else {
		m.absolute = m.variableExcursion()
	}
	m.gain.RampLinearTo(m.absolute, m.ctx.CurrentTime())
	m.ctx.Logger().Debug("modulation amount", "normalized", m.normalized, "absolute", m.absolute, "current", m.current)
}

func (m *LfoManager) variableExcursion() float64 {
	if m.normalized >= 0 {
		return m.normalized * (m.upper - m.current)
	}
	return m.normalized * (m.current - m.lower)
}

func (m *LfoManager) fixedExcursion() float64 {
	if m.normalized >= 0 {
		if a := m.normalized * m.upperFixed; m.current+a <= m.upper {
			return a
		}
		return m.normalized * (m.upper - m.current)
	}
	if a := m.normalized * m.lowerFixed; m.current+a >= m.lower {
		return a
	}
	return m.normalized * (m.current - m.lower)
}

// ModulationManager binds a shared LFO pool to one destination. Its Output
// is meant to be connected into the destination parameter, where it adds
// to the base value.
type ModulationManager struct {
	ctx     *dsp.Context
	pool    *LfoPool
	manager *LfoManager

	frame int64
	value float64
}

// NewModulationManager registers every LFO of pool, all disabled.
func NewModulationManager(ctx *dsp.Context, pool *LfoPool, cfg LfoManagerConfig) *ModulationManager {
	m := &ModulationManager{
		ctx:     ctx,
		pool:    pool,
		manager: NewLfoManager(ctx, cfg),
		frame:   -1,
	}
	for i := 0; i < pool.Len(); i++ {
		m.manager.AddLfo(pool.Tap(i))
	}
	return m
}

func (m *ModulationManager) EnableLfo(idx int) error  { return m.manager.EnableLfo(idx) }
func (m *ModulationManager) DisableLfo(idx int) error { return m.manager.DisableLfo(idx) }

func (m *ModulationManager) SetLfosModulationAmount(amount float64) error {
	return m.manager.SetNormalizedModulationAmount(amount)
}

func (m *ModulationManager) SetParameterCurrentValue(value float64) error {
	return m.manager.SetParameterCurrentValue(value)
}

// LfoManager exposes the underlying amount engine.
func (m *ModulationManager) LfoManager() *LfoManager { return m.manager }

// Pool is the shared LFO pool this manager reads.
func (m *ModulationManager) Pool() *LfoPool { return m.pool }

// Output is the modulation for the current frame. Repeated reads within one
// frame return the same value.
func (m *ModulationManager) Output() float64 {
	if f := m.ctx.Frame(); f != m.frame {
		m.frame = f
		m.value = m.manager.Next()
	}
	return m.value
}
