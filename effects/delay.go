package effects

import (
	"math"

	fx "github.com/cwbudde/algo-dsp/dsp/effects"
	"github.com/cwbudde/algo-monosynth/dsp"
)

const (
	MinDelayTime     = 0.0
	MaxDelayTime     = 2.0
	DefaultDelayTime = 0.0

	MinDelayFeedback     = 0.0
	MaxDelayFeedback     = 0.9
	DefaultDelayFeedback = 0.0

	// ShortestDelay is the loop length used for any time below it.
	ShortestDelay = 0.001

	// delayTimeLead postpones delay-time changes to avoid zipper steps.
	delayTimeLead = 0.02
)

// Delay is a feedback delay. Time changes land delayTimeLead after the call
// and then glide to the new length.
type Delay struct {
	router
	line     *fx.Delay
	time     *dsp.Param
	applied  float64
	feedback float64
}

func NewDelay(ctx *dsp.Context) *Delay {
	d := &Delay{
		router:   newRouter(ctx, "delay"),
		time:     dsp.NewParam(ctx, DefaultDelayTime),
		applied:  DefaultDelayTime,
		feedback: DefaultDelayFeedback,
	}
	line, err := fx.NewDelay(float64(ctx.SampleRate()))
	if err != nil {
		ctx.Logger().Error("delay unavailable", "err", err)
		return d
	}
	for _, step := range []func() error{
		func() error { return line.SetMix(1) },
		func() error { return line.SetFeedback(d.feedback) },
		func() error { return line.SetTime(loopTime(d.applied)) },
	} {
		if err := step(); err != nil {
			ctx.Logger().Error("delay defaults rejected", "err", err)
			return d
		}
	}
	d.line = line
	return d
}

func loopTime(seconds float64) float64 {
	return math.Max(seconds, ShortestDelay)
}

func (d *Delay) Process(x float64) float64 {
	return d.route(x, d.tap)
}

func (d *Delay) tap(in float64) float64 {
	if d.line == nil {
		return 0
	}
	if t := d.time.Value(); t != d.applied {
		if err := d.line.SetTargetTime(loopTime(t)); err != nil {
			d.ctx.Logger().Warn("delay time rejected", "time", t, "err", err)
		}
		d.applied = t
	}
	return dsp.FlushDenormals(d.line.ProcessSample(in))
}

// SetDelayTime schedules the new time in seconds shortly after now.
func (d *Delay) SetDelayTime(seconds float64) error {
	if err := checkRange("delay time", seconds, MinDelayTime, MaxDelayTime); err != nil {
		return d.reject("SetDelayTime", err)
	}
	d.time.SetValueAtTime(seconds, d.ctx.CurrentTime()+delayTimeLead)
	return nil
}

func (d *Delay) SetFeedback(level float64) error {
	if err := checkRange("delay feedback", level, MinDelayFeedback, MaxDelayFeedback); err != nil {
		return d.reject("SetFeedback", err)
	}
	if d.line != nil {
		if err := d.line.SetFeedback(level); err != nil {
			return d.reject("SetFeedback", err)
		}
	}
	d.feedback = level
	return nil
}

func (d *Delay) DelayTime() float64 { return d.time.Value() }
func (d *Delay) Feedback() float64  { return d.feedback }

func (d *Delay) Reset() {
	if d.line != nil {
		d.line.Reset()
	}
}
