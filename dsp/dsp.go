package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Coefficients is a normalized biquad transfer function (a0 = 1).
type Coefficients = biquad.Coefficients

// Biquad implements a second-order IIR filter whose coefficients may be
// replaced between samples without clearing history (no heap allocations in Process).
type Biquad struct {
	c biquad.Coefficients

	// State (previous samples)
	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(c biquad.Coefficients) *Biquad {
	return &Biquad{c: c}
}

// SetCoefficients swaps the transfer function, keeping the filter state.
func (b *Biquad) SetCoefficients(c biquad.Coefficients) {
	b.c = c
}

// Coefficients returns the active coefficient set.
func (b *Biquad) Coefficients() biquad.Coefficients {
	return b.c
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float64) float64 {
	// Direct Form I implementation
	output := b.c.B0*input + b.c.B1*b.x1 + b.c.B2*b.x2 - b.c.A1*b.y1 - b.c.A2*b.y2
	output = FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// LowpassCoefficients returns RBJ lowpass coefficients for a linear q.
func LowpassCoefficients(cutoff, sampleRate, q float64) biquad.Coefficients {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	// Normalize by a0
	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// HighpassCoefficients returns RBJ highpass coefficients for a linear q.
func HighpassCoefficients(cutoff, sampleRate, q float64) biquad.Coefficients {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	a0 := 1.0 + alpha
	return biquad.Coefficients{
		B0: (1.0 + cosw0) / 2.0 / a0,
		B1: -(1.0 + cosw0) / a0,
		B2: (1.0 + cosw0) / 2.0 / a0,
		A1: -2.0 * cosw0 / a0,
		A2: (1.0 - alpha) / a0,
	}
}

// WaveShaper maps input in [-1,1] onto a sampled transfer curve with linear
// interpolation between points. Inputs outside [-1,1] clamp to the end points.
type WaveShaper struct {
	curve []float64
}

// NewWaveShaper creates a shaper; an empty curve passes samples through.
func NewWaveShaper(curve []float64) *WaveShaper {
	w := &WaveShaper{}
	w.SetCurve(curve)
	return w
}

// SetCurve replaces the transfer curve. The slice is copied.
func (w *WaveShaper) SetCurve(curve []float64) {
	w.curve = append(w.curve[:0], curve...)
}

// Curve returns the transfer curve.
func (w *WaveShaper) Curve() []float64 {
	return w.curve
}

// Shape applies the transfer curve to x.
func (w *WaveShaper) Shape(x float64) float64 {
	n := len(w.curve)
	switch n {
	case 0:
		return x
	case 1:
		return w.curve[0]
	}
	v := float64(n-1) * (x + 1) / 2
	if v <= 0 {
		return w.curve[0]
	}
	if v >= float64(n-1) {
		return w.curve[n-1]
	}
	k := int(v)
	frac := v - float64(k)
	return w.curve[k] + frac*(w.curve[k+1]-w.curve[k])
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float64) float64 {
	return dspcore.FlushDenormals(x)
}
