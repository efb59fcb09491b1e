package effects

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
)

const testRate = 48000

// settle runs silence through e until the toggle ramp has finished.
func settle(ctx *dsp.Context, e Effect) {
	n := int(2 * ToggleRamp * testRate)
	for i := 0; i < n; i++ {
		e.Process(0)
		ctx.Advance()
	}
}

// glide runs silence until a scheduled delay time has settled.
func glide(ctx *dsp.Context, d *Delay) {
	render(ctx, d, make([]float64, 3*testRate/10))
}

func render(ctx *dsp.Context, e Effect, in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = e.Process(x)
		ctx.Advance()
	}
	return out
}

func impulse(n, at int) []float64 {
	x := make([]float64, n)
	x[at] = 1
	return x
}

func TestEffectsStartBypassed(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	fx := []Effect{NewDistortion(ctx), NewDelay(ctx), NewReverb(ctx), NewCompressor(ctx)}
	for _, e := range fx {
		if e.Enabled() {
			t.Fatalf("%s starts enabled", e.Name())
		}
		for _, x := range []float64{0.25, -0.7, 0.9} {
			if got := e.Process(x); math.Abs(got-x) > 1e-12 {
				t.Fatalf("%s bypass mismatch: got=%f want=%f", e.Name(), got, x)
			}
		}
	}
}

func TestToggleCrossfadesOverRamp(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDelay(ctx)
	d.Toggle()
	if !d.Enabled() {
		t.Fatal("toggle did not enable")
	}

	half := int(0.5 * ToggleRamp * testRate)
	ctx.AdvanceFrames(half)
	if got := d.bypass.Value(); math.Abs(got-0.5) > 1e-3 {
		t.Fatalf("bypass halfway through ramp: got=%f want=%f", got, 0.5)
	}
	ctx.AdvanceFrames(half + 1)
	if got := d.on.Value(); got != 1 {
		t.Fatalf("on gain after ramp: got=%f want=%f", got, 1.0)
	}

	d.Toggle()
	ctx.AdvanceFrames(int(ToggleRamp*testRate) + 1)
	if got := d.bypass.Value(); got != 1 {
		t.Fatalf("bypass after second toggle: got=%f want=%f", got, 1.0)
	}
}

func TestEffectAmountSplitsDryWet(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	r := NewReverb(ctx)
	if err := r.SetEffectAmount(0.3); err != nil {
		t.Fatalf("SetEffectAmount: %v", err)
	}
	if got := r.wet.Value(); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("wet: got=%f want=%f", got, 0.3)
	}
	if got := r.dry.Value(); math.Abs(got-0.7) > 1e-12 {
		t.Fatalf("dry: got=%f want=%f", got, 0.7)
	}
	if err := r.SetEffectAmount(1.2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if got := r.EffectAmount(); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("rejected amount changed state: got=%f", got)
	}
}

func TestDistortionTransfer(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDistortion(ctx)
	d.Toggle()
	if err := d.SetEffectAmount(1); err != nil {
		t.Fatal(err)
	}
	settle(ctx, d)

	rad := DefaultDistortionAngle * math.Pi / 180
	k := DefaultDistortionConstant
	for _, amt := range []float64{0, 0.005, 0.1, 0.2} {
		if err := d.SetAmount(amt); err != nil {
			t.Fatalf("SetAmount(%f): %v", amt, err)
		}
		for _, x := range []float64{-1, -0.5, 0.2, 0.9} {
			want := ((k + amt) * x * rad) / (k + amt*math.Abs(x))
			if got := d.Process(x); math.Abs(got-want) > 1e-9 {
				t.Fatalf("amount %f at x=%f: got=%f want=%f", amt, x, got, want)
			}
		}
	}
}

func TestDistortionSteepCurveKeepsEndpoint(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDistortion(ctx)
	d.Toggle()
	_ = d.SetEffectAmount(1)
	settle(ctx, d)

	rad := DefaultDistortionAngle * math.Pi / 180
	if got := d.Process(1); math.Abs(got-rad) > 1e-9 {
		t.Fatalf("f(1): got=%f want=%f", got, rad)
	}
	if got := d.Process(-1); math.Abs(got+rad) > 1e-9 {
		t.Fatalf("f(-1): got=%f want=%f", got, -rad)
	}
	prev := d.Process(-1)
	for i := 1; i <= 40; i++ {
		y := d.Process(-1 + float64(i)/20)
		if y < prev {
			t.Fatalf("transfer not monotonic at step %d", i)
		}
		prev = y
	}
	if err := d.SetCurveAngle(0.5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected angle below 1 degree rejected, got %v", err)
	}
	if got := d.CurveAngle(); got != DefaultDistortionAngle {
		t.Fatalf("rejected angle changed state: got=%f", got)
	}
}

func TestDistortionStartsDry(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDistortion(ctx)
	d.Toggle()
	settle(ctx, d)
	for _, x := range []float64{0.1, -0.4} {
		if got := d.Process(x); math.Abs(got-x) > 1e-12 {
			t.Fatalf("dry distortion: got=%f want=%f", got, x)
		}
	}
}

func TestDelayEchoTiming(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDelay(ctx)
	d.Toggle()
	if err := d.SetEffectAmount(1); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDelayTime(0.01); err != nil {
		t.Fatal(err)
	}
	settle(ctx, d)
	glide(ctx, d)

	out := render(ctx, d, impulse(1024, 10))
	want := 10 + int(0.01*testRate)
	peak := 0
	for i := range out {
		if math.Abs(out[i]) > math.Abs(out[peak]) {
			peak = i
		}
	}
	if peak != want {
		t.Fatalf("echo position: got=%d want=%d", peak, want)
	}
	if math.Abs(out[peak]-1) > 1e-6 {
		t.Fatalf("echo level: got=%f want=%f", out[peak], 1.0)
	}
}

func TestDelayFeedbackRepeats(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDelay(ctx)
	d.Toggle()
	_ = d.SetEffectAmount(1)
	_ = d.SetDelayTime(0.005)
	if err := d.SetFeedback(0.5); err != nil {
		t.Fatal(err)
	}
	settle(ctx, d)
	glide(ctx, d)

	step := int(0.005 * testRate)
	out := render(ctx, d, impulse(4*step, 0))
	if got := out[2*step]; math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("second repeat: got=%f want=%f", got, 0.5)
	}
	if err := d.SetFeedback(0.95); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected feedback 0.95 rejected, got %v", err)
	}
}

func TestDelayShortestLoop(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDelay(ctx)
	d.Toggle()
	_ = d.SetEffectAmount(1)
	settle(ctx, d)

	out := render(ctx, d, impulse(64, 2))
	at := 2 + int(ShortestDelay*testRate)
	for i, v := range out {
		want := 0.0
		if i == at {
			want = 1
		}
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("zero delay time at %d: got=%f want=%f", i, v, want)
		}
	}
}

func TestReverbLatencyWithUnitIR(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	r := NewReverb(ctx)
	r.SetIR([]float32{1})
	r.Toggle()
	_ = r.SetEffectAmount(1)
	settle(ctx, r)

	out := render(ctx, r, impulse(512, 37))
	want := 37 + ReverbPartSize
	for i, v := range out {
		if i == want {
			if math.Abs(v-1) > 1e-4 {
				t.Fatalf("delayed impulse: got=%f want=%f", v, 1.0)
			}
			continue
		}
		if math.Abs(v) > 1e-4 {
			t.Fatalf("unexpected output at %d: %f", i, v)
		}
	}
}

func TestReverbIRIsUnitEnergy(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	r := NewReverb(ctx)
	if got, want := r.IRLength(), int(1.5*testRate); got != want {
		t.Fatalf("IR length: got=%d want=%d", got, want)
	}
	r.SetIR([]float32{2, 0, 0})
	r.Toggle()
	_ = r.SetEffectAmount(1)
	settle(ctx, r)
	out := render(ctx, r, impulse(256, 0))
	if got := out[ReverbPartSize]; math.Abs(got-1) > 1e-4 {
		t.Fatalf("scaled IR tap: got=%f want=%f", got, 1.0)
	}
}

func TestReverbDecayRate(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	r := NewReverb(ctx)
	if err := r.SetDecayRate(2.5); err != nil {
		t.Fatalf("SetDecayRate: %v", err)
	}
	if got := r.DecayRate(); got != 2.5 {
		t.Fatalf("decay rate: got=%f want=%f", got, 2.5)
	}
	if err := r.SetDecayRate(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if got := r.DecayRate(); got != 2.5 {
		t.Fatalf("rejected decay rate changed state: got=%f", got)
	}
}

func TestCompressorStaticCurve(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	c := NewCompressor(ctx)

	if got := c.Curve(-60); math.Abs(got+60) > 1e-9 {
		t.Fatalf("below knee: got=%f want=%f", got, -60.0)
	}
	want := DefaultCompressorThreshold + 24.0/DefaultCompressorRatio
	if got := c.Curve(0); math.Abs(got-want) > 1e-9 {
		t.Fatalf("above knee: got=%f want=%f", got, want)
	}
	if got := c.MakeupGain(); math.Abs(got-(-0.6*want)) > 1e-9 {
		t.Fatalf("makeup: got=%f want=%f", got, -0.6*want)
	}

	if err := c.SetKnee(12); err != nil {
		t.Fatal(err)
	}
	// The knee joins both segments continuously.
	w := 6.0
	lo := c.Curve(DefaultCompressorThreshold - w)
	if math.Abs(lo-(DefaultCompressorThreshold-w)) > 1e-6 {
		t.Fatalf("knee start: got=%f want=%f", lo, DefaultCompressorThreshold-w)
	}
	hi := c.Curve(DefaultCompressorThreshold + w)
	if math.Abs(hi-(DefaultCompressorThreshold+w/DefaultCompressorRatio)) > 1e-6 {
		t.Fatalf("knee end: got=%f want=%f", hi, DefaultCompressorThreshold+w/DefaultCompressorRatio)
	}
	mid := c.Curve(DefaultCompressorThreshold)
	if mid >= DefaultCompressorThreshold || mid <= DefaultCompressorThreshold-w {
		t.Fatalf("knee midpoint outside segments: got=%f", mid)
	}
}

func TestCompressorReduction(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	c := NewCompressor(ctx)
	c.Toggle()
	_ = c.SetEffectAmount(1)
	settle(ctx, c)

	in := make([]float64, testRate/2)
	for i := range in {
		in[i] = 1
	}
	out := render(ctx, c, in)
	want := c.Curve(0)
	if got := c.Reduction(); math.Abs(got-want) > 0.01 {
		t.Fatalf("steady reduction: got=%f want=%f", got, want)
	}
	gain := 20 * math.Log10(out[len(out)-1])
	wantGain := want + c.MakeupGain()
	if math.Abs(gain-wantGain) > 0.01 {
		t.Fatalf("output level: got=%f want=%f", gain, wantGain)
	}

	c.Reset()
	if got := c.Reduction(); got != 0 {
		t.Fatalf("reduction after reset: got=%f want=%f", got, 0.0)
	}
	quiet := make([]float64, testRate/10)
	for i := range quiet {
		quiet[i] = 0.001
	}
	render(ctx, c, quiet)
	if got := c.Reduction(); got < -1e-9 {
		t.Fatalf("reduction below knee: got=%f want=%f", got, 0.0)
	}
}

func TestCompressorRejectsOutOfRange(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	c := NewCompressor(ctx)
	cases := []struct {
		name string
		set  func() error
	}{
		{"threshold", func() error { return c.SetThreshold(3) }},
		{"knee", func() error { return c.SetKnee(-1) }},
		{"ratio", func() error { return c.SetRatio(0.5) }},
		{"attack", func() error { return c.SetAttack(2) }},
		{"release", func() error { return c.SetRelease(math.NaN()) }},
	}
	for _, tc := range cases {
		if err := tc.set(); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s: expected ErrOutOfRange, got %v", tc.name, err)
		}
	}
	if c.Threshold() != DefaultCompressorThreshold || c.Ratio() != DefaultCompressorRatio {
		t.Fatal("rejected setters changed state")
	}
}

func TestChainOrderAndLookup(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	d := NewDelay(ctx)
	r := NewReverb(ctx)
	ch := NewChain(d, r)
	ch.Append(NewCompressor(ctx))
	if len(ch.Effects()) != 3 {
		t.Fatalf("chain length: got=%d want=%d", len(ch.Effects()), 3)
	}
	if ch.Get("reverb") != Effect(r) {
		t.Fatal("Get(reverb) returned wrong effect")
	}
	if ch.Get("chorus") != nil {
		t.Fatal("Get of unknown name should be nil")
	}
	if got := ch.Process(0.5); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("bypassed chain: got=%f want=%f", got, 0.5)
	}
}
