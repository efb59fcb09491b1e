package synth

import (
	"math"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// Filter is a resonant lowpass. Its effective cutoff is the modulated
// cutoff in Hz, swept by the cutoff envelope scaled to cents:
//
//	fc = cutoff * 2^((envelope*amount)/1200)
//
// Resonance is a Q in dB, so 0 dB gives a Butterworth-like corner.
type Filter struct {
	ctx       *dsp.Context
	biquad    *dsp.Biquad
	cutoff    *dsp.Param
	resonance *dsp.Param
	amount    *dsp.Param
	envelope  *Envelope

	cutoffMod    *ModulationManager
	resonanceMod *ModulationManager

	lastFc, lastQ float64
}

// NewFilter wires cutoff and resonance managers to the general pool.
func NewFilter(ctx *dsp.Context, pool *LfoPool) *Filter {
	f := &Filter{
		ctx:       ctx,
		cutoff:    dsp.NewParam(ctx, DefaultCutoff),
		resonance: dsp.NewParam(ctx, DefaultResonance),
		amount:    dsp.NewParam(ctx, DefaultEnvelopeAmount),
		envelope:  NewEnvelope(ctx),
		cutoffMod: NewModulationManager(ctx, pool, LfoManagerConfig{
			LowerLimit:   MinCutoff,
			UpperLimit:   MaxCutoff,
			CurrentValue: DefaultCutoff,
		}),
		resonanceMod: NewModulationManager(ctx, pool, LfoManagerConfig{
			LowerLimit:   MinResonance,
			UpperLimit:   MaxResonance,
			CurrentValue: DefaultResonance,
		}),
	}
	_ = f.envelope.SetAttack(DefaultFilterAttack)
	_ = f.envelope.SetDecay(DefaultFilterDecay)
	_ = f.envelope.SetSustain(DefaultFilterSustain)
	_ = f.envelope.SetRelease(DefaultFilterRelease)
	f.cutoff.Connect(f.cutoffMod)
	f.resonance.Connect(f.resonanceMod)

	f.lastFc, f.lastQ = DefaultCutoff, DefaultResonance
	f.biquad = dsp.NewBiquad(lowpassDB(f.lastFc, float64(ctx.SampleRate()), f.lastQ))
	return f
}

func (f *Filter) SetCutoffFrequency(hz float64) error {
	if err := checkRange("cutoff frequency", hz, MinCutoff, MaxCutoff); err != nil {
		return rejected(f.ctx.Logger(), "Filter.SetCutoffFrequency", err)
	}
	f.cutoff.SetValueNow(hz)
	_ = f.cutoffMod.SetParameterCurrentValue(hz)
	return nil
}

func (f *Filter) CutoffFrequency() float64 { return f.cutoff.Value() }

func (f *Filter) SetResonance(q float64) error {
	if err := checkRange("resonance", q, MinResonance, MaxResonance); err != nil {
		return rejected(f.ctx.Logger(), "Filter.SetResonance", err)
	}
	f.resonance.SetValueNow(q)
	_ = f.resonanceMod.SetParameterCurrentValue(q)
	return nil
}

func (f *Filter) Resonance() float64 { return f.resonance.Value() }

// SetEnvelopeAmount sets the cutoff sweep at envelope peak, in cents.
func (f *Filter) SetEnvelopeAmount(cents float64) error {
	if err := checkRange("filter envelope amount", cents, MinEnvelopeAmount, MaxEnvelopeAmount); err != nil {
		return rejected(f.ctx.Logger(), "Filter.SetEnvelopeAmount", err)
	}
	f.amount.RampLinearTo(cents, f.ctx.CurrentTime())
	return nil
}

func (f *Filter) EnvelopeAmount() float64 { return f.amount.Value() }

func (f *Filter) Envelope() *Envelope                     { return f.envelope }
func (f *Filter) CutoffModulation() *ModulationManager    { return f.cutoffMod }
func (f *Filter) ResonanceModulation() *ModulationManager { return f.resonanceMod }

// EffectiveCutoff is the cutoff the filter runs at this frame.
func (f *Filter) EffectiveCutoff() float64 {
	fc := f.cutoff.Output()
	if sweep := f.envelope.Output() * f.amount.Value(); sweep != 0 {
		fc *= centsToRatio(sweep)
	}
	return clamp(fc, 10, 0.49*float64(f.ctx.SampleRate()))
}

// Process filters one sample, recomputing coefficients only when the
// cutoff or Q moved.
func (f *Filter) Process(x float64) float64 {
	fc := f.EffectiveCutoff()
	q := clamp(f.resonance.Output(), MinResonance, MaxResonance)
	if fc != f.lastFc || q != f.lastQ {
		f.lastFc, f.lastQ = fc, q
		f.biquad.SetCoefficients(lowpassDB(fc, float64(f.ctx.SampleRate()), q))
	}
	return f.biquad.Process(x)
}

func (f *Filter) Reset() {
	f.biquad.Reset()
}

// lowpassDB maps a dB resonance onto the linear q of the RBJ lowpass.
func lowpassDB(cutoff, sampleRate, qDB float64) dsp.Coefficients {
	return dsp.LowpassCoefficients(cutoff, sampleRate, math.Pow(10, qDB/20))
}
