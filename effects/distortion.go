package effects

import (
	"math"

	fx "github.com/cwbudde/algo-dsp/dsp/effects"
	"github.com/cwbudde/algo-monosynth/dsp"
)

const (
	MinDistortionAmount     = 0.0
	MaxDistortionAmount     = 20.0
	DefaultDistortionAmount = 10.0

	MinDistortionAngle     = 1.0
	MaxDistortionAngle     = 90.0
	DefaultDistortionAngle = 20.0

	MinDistortionConstant     = 0.01
	MaxDistortionConstant     = math.Pi / 4
	DefaultDistortionConstant = 0.01

	// MaxShaperDrive is the steepest pre-gain the shaper accepts.
	MaxShaperDrive = 20.0
)

// Distortion shapes with
//
//	f(x) = ((k+amount) * x * angle) / (k + amount*|x|)
//
// with angle in radians. Steepness amount/k above MaxShaperDrive keeps
// f(1) = angle but saturates at the shaper's drive limit. It starts fully
// dry.
type Distortion struct {
	router
	shaper   *fx.Distortion
	amount   float64
	angle    float64
	constant float64
}

func NewDistortion(ctx *dsp.Context) *Distortion {
	d := &Distortion{
		router:   newRouter(ctx, "distortion"),
		amount:   DefaultDistortionAmount,
		angle:    DefaultDistortionAngle,
		constant: DefaultDistortionConstant,
	}
	d.dry.SetValueNow(1)
	d.wet.SetValueNow(0)

	shaper, err := fx.NewDistortion(float64(ctx.SampleRate()),
		fx.WithDistortionMode(fx.DistortionModeWaveshaper1),
		fx.WithDistortionMix(1),
	)
	if err != nil {
		ctx.Logger().Error("distortion unavailable", "err", err)
		return d
	}
	d.shaper = shaper
	if err := d.reshape(); err != nil {
		ctx.Logger().Error("distortion defaults rejected", "err", err)
	}
	return d
}

// shaperSettings maps the curve onto drive D, shape s and level L of
// L * Dx / (1 + s*D*|x|).
func shaperSettings(amount, angle, constant float64) (drive, shape, level float64) {
	rad := angle * math.Pi / 180
	r := amount / constant
	if r <= 1 {
		return 1, r, rad * (1 + r)
	}
	drive = math.Min(r, MaxShaperDrive)
	return drive, 1, rad * (1 + drive) / drive
}

func (d *Distortion) reshape() error {
	if d.shaper == nil {
		return nil
	}
	drive, shape, level := shaperSettings(d.amount, d.angle, d.constant)
	if err := d.shaper.SetDrive(drive); err != nil {
		return err
	}
	if err := d.shaper.SetShape(shape); err != nil {
		return err
	}
	return d.shaper.SetOutputLevel(level)
}

func (d *Distortion) Process(x float64) float64 {
	return d.route(x, d.shape)
}

func (d *Distortion) shape(x float64) float64 {
	if d.shaper == nil {
		return x
	}
	return d.shaper.ProcessSample(x)
}

func (d *Distortion) set(op, name string, v, lo, hi float64, dst *float64) error {
	if err := checkRange(name, v, lo, hi); err != nil {
		return d.reject(op, err)
	}
	prev := *dst
	*dst = v
	if err := d.reshape(); err != nil {
		*dst = prev
		_ = d.reshape()
		return d.reject(op, err)
	}
	return nil
}

func (d *Distortion) SetAmount(amount float64) error {
	return d.set("SetAmount", "distortion amount", amount, MinDistortionAmount, MaxDistortionAmount, &d.amount)
}

// SetCurveAngle sets the slope angle in degrees.
func (d *Distortion) SetCurveAngle(deg float64) error {
	return d.set("SetCurveAngle", "distortion angle", deg, MinDistortionAngle, MaxDistortionAngle, &d.angle)
}

func (d *Distortion) SetCurveConstant(k float64) error {
	return d.set("SetCurveConstant", "distortion constant", k, MinDistortionConstant, MaxDistortionConstant, &d.constant)
}

func (d *Distortion) Amount() float64        { return d.amount }
func (d *Distortion) CurveAngle() float64    { return d.angle }
func (d *Distortion) CurveConstant() float64 { return d.constant }

func (d *Distortion) Reset() {
	if d.shaper != nil {
		d.shaper.Reset()
	}
}
