package synth

import (
	"math"

	"github.com/cwbudde/algo-monosynth/dsp"
)

const testRate = 48000

func newTestContext() *dsp.Context {
	return dsp.NewContext(testRate, nil)
}

func measureFundamentalFreq(samples []float32, sampleRate float32) float32 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float32(len(samples)-startIdx) / sampleRate
	return float32(crossings) / (2.0 * duration)
}

func windowRMS(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// pull renders n samples from src, advancing ctx after each one.
func pull(ctx *dsp.Context, src Source, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(src.Next())
		ctx.Advance()
	}
	return out
}

// constSource always yields v.
type constSource float64

func (c constSource) Next() float64 { return float64(c) }

func futureEvents(p *dsp.Param, now float64) []dsp.Event {
	var out []dsp.Event
	for _, e := range p.Events() {
		if e.Time > now {
			out = append(out, e)
		}
	}
	return out
}
