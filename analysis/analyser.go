package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// Analyser is a passive tap that keeps the most recent fftSize samples of a
// signal and turns them into a smoothed magnitude spectrum on demand.
type Analyser struct {
	sampleRate int
	fftSize    int
	smoothing  float64

	ring []float64
	pos  int

	window   []float64
	frame    []float64
	spectrum []complex128
	smoothed []float64
	forward  func(dst []complex128, src []float64)
}

// NewAnalyser creates a tap; fftSize must be a power of two >= 32.
func NewAnalyser(sampleRate int, fftSize int) (*Analyser, error) {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 32, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, err
	}
	a := &Analyser{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		smoothing:  DefaultSmoothing,
		ring:       make([]float64, fftSize),
		window:     blackman(fftSize),
		frame:      make([]float64, fftSize),
		spectrum:   make([]complex128, fftSize/2+1),
		smoothed:   make([]float64, fftSize/2),
		forward: func(dst []complex128, src []float64) {
			plan.Forward(dst, src)
		},
	}
	return a, nil
}

func (a *Analyser) FFTSize() int    { return a.fftSize }
func (a *Analyser) SampleRate() int { return a.sampleRate }

// SetSmoothing sets the averaging constant in [0,1) applied between spectra.
func (a *Analyser) SetSmoothing(s float64) error {
	if s < 0 || s >= 1 || math.IsNaN(s) {
		return fmt.Errorf("smoothing must be in [0,1), got %f", s)
	}
	a.smoothing = s
	return nil
}

// Write appends one sample.
func (a *Analyser) Write(x float64) {
	a.ring[a.pos] = x
	a.pos++
	if a.pos == a.fftSize {
		a.pos = 0
	}
}

// TimeDomainData copies the buffered samples, oldest first, into dst.
func (a *Analyser) TimeDomainData(dst []float64) []float64 {
	if cap(dst) < a.fftSize {
		dst = make([]float64, a.fftSize)
	}
	dst = dst[:a.fftSize]
	n := copy(dst, a.ring[a.pos:])
	copy(dst[n:], a.ring[:a.pos])
	return dst
}

// FrequencyData returns the smoothed magnitude per bin in dBFS.
// Bin k covers k*SampleRate/FFTSize Hz.
func (a *Analyser) FrequencyData() []float64 {
	a.frame = a.TimeDomainData(a.frame)
	for i := range a.frame {
		a.frame[i] *= a.window[i]
	}
	a.forward(a.spectrum, a.frame)

	scale := 1.0 / float64(a.fftSize)
	out := make([]float64, len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplx.Abs(a.spectrum[k]) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		out[k] = linToDB(a.smoothed[k])
	}
	return out
}

// PeakFrequency is the centre of the loudest bin above DC, in Hz.
func (a *Analyser) PeakFrequency() float64 {
	db := a.FrequencyData()
	best := 1
	for k := 2; k < len(db); k++ {
		if db[k] > db[best] {
			best = k
		}
	}
	return float64(best) * float64(a.sampleRate) / float64(a.fftSize)
}

// Reset clears buffered samples and smoothing history.
func (a *Analyser) Reset() {
	for i := range a.ring {
		a.ring[i] = 0
	}
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
	a.pos = 0
}

func blackman(n int) []float64 {
	const alpha = 0.16
	a0 := 0.5 * (1 - alpha)
	a1 := 0.5
	a2 := 0.5 * alpha
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}
