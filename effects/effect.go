// Package effects implements the post-voice processors. Every effect shares
// one routing contract:
//
//	out = x*bypass + (x*on)*dry + fx(x*on)*wet
//
// Toggle crossfades bypass and on over ToggleRamp seconds. SetEffectAmount
// sets wet=a and dry=1-a. Effects start switched off.
package effects

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-monosynth/dsp"
)

// ErrOutOfRange reports a setter argument outside its window.
var ErrOutOfRange = errors.New("value outside bounds")

const (
	ToggleRamp = 0.05

	MinEffectAmount     = 0.0
	MaxEffectAmount     = 1.0
	DefaultEffectAmount = 0.5
)

// Effect is one processor in the post-voice chain.
type Effect interface {
	Name() string
	Process(x float64) float64
	Toggle()
	Enabled() bool
	SetEffectAmount(amount float64) error
	EffectAmount() float64
	Reset()
}

// router holds the four gains of the routing contract.
type router struct {
	ctx     *dsp.Context
	name    string
	enabled bool

	bypass *dsp.Param
	on     *dsp.Param
	dry    *dsp.Param
	wet    *dsp.Param
}

func newRouter(ctx *dsp.Context, name string) router {
	return router{
		ctx:    ctx,
		name:   name,
		bypass: dsp.NewParam(ctx, 1),
		on:     dsp.NewParam(ctx, 0),
		dry:    dsp.NewParam(ctx, MaxEffectAmount-DefaultEffectAmount),
		wet:    dsp.NewParam(ctx, DefaultEffectAmount),
	}
}

func (r *router) Name() string  { return r.name }
func (r *router) Enabled() bool { return r.enabled }

// Toggle flips the effect and crossfades into the new routing.
func (r *router) Toggle() {
	r.enabled = !r.enabled
	end := r.ctx.CurrentTime() + ToggleRamp
	if r.enabled {
		r.bypass.RampLinearTo(0, end)
		r.on.RampLinearTo(1, end)
	} else {
		r.bypass.RampLinearTo(1, end)
		r.on.RampLinearTo(0, end)
	}
	r.ctx.Logger().Debug("effect toggled", "effect", r.name, "enabled", r.enabled)
}

func (r *router) SetEffectAmount(amount float64) error {
	if err := checkRange(r.name+" effect amount", amount, MinEffectAmount, MaxEffectAmount); err != nil {
		return r.reject("SetEffectAmount", err)
	}
	now := r.ctx.CurrentTime()
	r.dry.RampLinearTo(MaxEffectAmount-amount, now)
	r.wet.RampLinearTo(amount, now)
	return nil
}

func (r *router) EffectAmount() float64 { return r.wet.Value() }

// route applies the contract around fx. fx runs every frame, so tails keep
// evolving while the effect is off.
func (r *router) route(x float64, fx func(float64) float64) float64 {
	in := x * r.on.Value()
	return x*r.bypass.Value() + in*r.dry.Value() + fx(in)*r.wet.Value()
}

func (r *router) reject(op string, err error) error {
	r.ctx.Logger().Warn("rejected", "op", r.name+"."+op, "err", err)
	return err
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s %g not in [%g, %g]: %w", name, v, lo, hi, ErrOutOfRange)
	}
	return nil
}

// Chain runs effects in series.
type Chain struct {
	effects []Effect
}

func NewChain(effects ...Effect) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Append(e Effect) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Effects() []Effect { return c.effects }

// Get returns the first effect called name, or nil.
func (c *Chain) Get(name string) Effect {
	for _, e := range c.effects {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (c *Chain) Process(x float64) float64 {
	for _, e := range c.effects {
		x = e.Process(x)
	}
	return x
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}
