package synth

import "math"

// Waveform is a basic periodic shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveTriangle:
		return "triangle"
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	default:
		return "unknown"
	}
}

// ParseWaveform accepts the names produced by String.
func ParseWaveform(s string) (Waveform, bool) {
	for _, w := range []Waveform{WaveSine, WaveTriangle, WaveSaw, WaveSquare} {
		if w.String() == s {
			return w, true
		}
	}
	return WaveSine, false
}

// waveAt evaluates a naive bipolar shape at phase p in [0,1). Every shape
// starts at 0 (square at +1) and rises, so all four stay phase aligned.
func waveAt(w Waveform, p float64) float64 {
	switch w {
	case WaveTriangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	case WaveSaw:
		return 2*wrap01(p+0.5) - 1
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(twoPi * p)
	}
}

// polyBLEP returns the residual that smooths a unit step at phase t.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// bandLimitedWaveAt is waveAt with polyBLEP correction on the saw and square edges.
func bandLimitedWaveAt(w Waveform, p, dt float64) float64 {
	switch w {
	case WaveSaw:
		t := wrap01(p + 0.5)
		return 2*t - 1 - polyBLEP(t, dt)
	case WaveSquare:
		v := waveAt(WaveSquare, p)
		v += polyBLEP(p, dt)
		v -= polyBLEP(wrap01(p+0.5), dt)
		return v
	default:
		return waveAt(w, p)
	}
}

func wrap01(p float64) float64 {
	return p - math.Floor(p)
}

// phasor is a normalized phase accumulator.
type phasor struct {
	phase float64
}

func (ph *phasor) advance(freq, sampleRate float64) {
	ph.phase = wrap01(ph.phase + freq/sampleRate)
}
