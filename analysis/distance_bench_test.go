package analysis

import (
	"math"
	"testing"
)

func BenchmarkTrackerAnalyse(b *testing.B) {
	tr, err := newTracker(48000)
	if err != nil {
		b.Fatalf("newTracker: %v", err)
	}
	x, _ := benchmarkSignals(48000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.analyse(x)
	}
}

func BenchmarkCompare(b *testing.B) {
	const n = 48000 * 3
	ref, cand := benchmarkSignals(n)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, cand, 48000)
	}
}

func BenchmarkAnalyserFrequencyData(b *testing.B) {
	a, err := NewAnalyser(48000, DefaultFFTSize)
	if err != nil {
		b.Fatalf("NewAnalyser: %v", err)
	}
	x, _ := benchmarkSignals(DefaultFFTSize)
	for _, v := range x {
		a.Write(v)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.FrequencyData()
	}
}

func benchmarkSignals(n int) ([]float64, []float64) {
	a := make([]float64, n)
	c := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		a[i] = 0.7*math.Sin(2*math.Pi*57*t) + 0.25*math.Sin(2*math.Pi*311*t)
		c[i] = 0.68*math.Sin(2*math.Pi*57*t+0.05) + 0.27*math.Sin(2*math.Pi*320*t)
	}
	return a, c
}
