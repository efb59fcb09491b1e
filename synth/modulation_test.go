package synth

import (
	"errors"
	"math"
	"testing"
)

func TestAdditiveInputsNormalization(t *testing.T) {
	for n := 1; n <= 4; n++ {
		ctx := newTestContext()
		m := NewAdditiveInputsManager(ctx)
		for i := 0; i < n; i++ {
			m.ConnectInput(constSource(1))
		}
		want := 1.0 / float64(n)
		if got := m.OutputGain(); math.Abs(got-want) > 1e-15 {
			t.Fatalf("N=%d: got=%f want=%f", n, got, want)
		}
	}
}

func TestAdditiveInputsWeightedSum(t *testing.T) {
	ctx := newTestContext()
	m := NewAdditiveInputsManager(ctx)
	a := m.ConnectInput(constSource(1))
	b := m.ConnectInput(constSource(-0.5))
	_ = m.SetInputGain(a, 1)
	_ = m.SetInputGain(b, 0.5)
	want := (1 - 0.25) / 2
	if got := m.Next(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("weighted sum: got=%f want=%f", got, want)
	}
	if err := m.SetInputGain(2, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.SetInputGain(a, 1.5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestToggledInputsNormalization(t *testing.T) {
	const n = 4
	for k := 0; k <= n; k++ {
		ctx := newTestContext()
		m := NewToggledInputsManager(ctx)
		for i := 0; i < n; i++ {
			m.ConnectInput(constSource(1))
		}
		for i := 0; i < k; i++ {
			if err := m.UnmuteInput(i); err != nil {
				t.Fatal(err)
			}
		}
		want := 0.0
		if k > 0 {
			want = 1 / float64(k)
		}
		got := m.OutputGain()
		if math.Abs(got-want) > 1e-9 || got > want {
			t.Fatalf("k=%d: got=%.15f want just below %f", k, got, want)
		}
		if k > 0 && m.Next() >= 1 {
			t.Fatalf("k=%d: normalized sum reached unity", k)
		}
	}
}

func TestToggledInputsRepeatedToggle(t *testing.T) {
	ctx := newTestContext()
	m := NewToggledInputsManager(ctx)
	m.ConnectInput(constSource(1))
	m.ConnectInput(constSource(1))
	_ = m.UnmuteInput(0)
	_ = m.UnmuteInput(0)
	if m.EnabledCount() != 1 {
		t.Fatalf("double unmute: got=%d want=%d", m.EnabledCount(), 1)
	}
	_ = m.MuteInput(1)
	if m.EnabledCount() != 1 {
		t.Fatalf("mute of disabled input: got=%d want=%d", m.EnabledCount(), 1)
	}
	if err := m.MuteInput(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestLfoManagerVariableRangeStaysInBounds(t *testing.T) {
	ctx := newTestContext()
	m := NewLfoManager(ctx, LfoManagerConfig{LowerLimit: 0, UpperLimit: 100, CurrentValue: 90})
	if err := m.SetNormalizedModulationAmount(1); err != nil {
		t.Fatal(err)
	}
	if got := m.AbsoluteModulationAmount(); got != 10 {
		t.Fatalf("positive excursion: got=%f want=%f", got, 10.0)
	}
	if err := m.SetParameterCurrentValue(10); err != nil {
		t.Fatal(err)
	}
	if err := m.SetNormalizedModulationAmount(-1); err != nil {
		t.Fatal(err)
	}
	if got := m.AbsoluteModulationAmount(); got != -10 {
		t.Fatalf("negative excursion: got=%f want=%f", got, -10.0)
	}
	if got := m.OutputGain(); got != -10 {
		t.Fatalf("output gain: got=%f want=%f", got, -10.0)
	}
}

func TestLfoManagerFixedRanges(t *testing.T) {
	ctx := newTestContext()
	m := NewLfoManager(ctx, LfoManagerConfig{
		LowerLimit:      0,
		UpperLimit:      100,
		CurrentValue:    50,
		FixedRanges:     true,
		LowerFixedRange: 20,
		UpperFixedRange: 30,
	})
	_ = m.SetNormalizedModulationAmount(1)
	if got := m.AbsoluteModulationAmount(); got != 30 {
		t.Fatalf("fixed upper: got=%f want=%f", got, 30.0)
	}
	_ = m.SetParameterCurrentValue(90)
	if got := m.AbsoluteModulationAmount(); got != 10 {
		t.Fatalf("fixed upper clipped to variable: got=%f want=%f", got, 10.0)
	}
	_ = m.SetNormalizedModulationAmount(-0.5)
	if got := m.AbsoluteModulationAmount(); got != -10 {
		t.Fatalf("fixed lower: got=%f want=%f", got, -10.0)
	}
}

func TestLfoManagerConstructionCorrections(t *testing.T) {
	ctx := newTestContext()
	m := NewLfoManager(ctx, LfoManagerConfig{LowerLimit: 100, UpperLimit: 0, CurrentValue: 250})
	lo, hi := m.Limits()
	if lo != 0 || hi != 100 {
		t.Fatalf("limits: got=[%f,%f] want=[0,100]", lo, hi)
	}
	if got := m.ParameterCurrentValue(); got != 50 {
		t.Fatalf("midpoint fallback: got=%f want=%f", got, 50.0)
	}
	if got := m.OutputGain(); got != 0 {
		t.Fatalf("initial gain: got=%f want=%f", got, 0.0)
	}
}

func TestLfoManagerRejections(t *testing.T) {
	ctx := newTestContext()
	m := NewLfoManager(ctx, LfoManagerConfig{LowerLimit: 0, UpperLimit: 1, CurrentValue: 0.5})
	_ = m.SetNormalizedModulationAmount(0.5)
	if err := m.SetNormalizedModulationAmount(1.5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.SetParameterCurrentValue(2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if m.NormalizedModulationAmount() != 0.5 || m.ParameterCurrentValue() != 0.5 || m.AbsoluteModulationAmount() != 0.25 {
		t.Fatal("rejected calls changed the manager")
	}
}

func TestModulationToggleKeepsDepth(t *testing.T) {
	ctx := newTestContext()
	pool := NewLfoPool()
	for i := 0; i < GeneralLfoCount; i++ {
		pool.Add(NewUnipolarLfo(ctx))
	}
	mm := NewModulationManager(ctx, pool, LfoManagerConfig{LowerLimit: 0, UpperLimit: 1, CurrentValue: 0.5})
	_ = mm.EnableLfo(0)
	_ = mm.EnableLfo(3)
	if err := mm.SetLfosModulationAmount(0.5); err != nil {
		t.Fatal(err)
	}
	lm := mm.LfoManager()
	abs := lm.AbsoluteModulationAmount()
	if got := lm.MixerGain(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("mixer gain with two lfos: got=%f want=%f", got, 0.5)
	}

	_ = mm.DisableLfo(3)
	if got := lm.MixerGain(); math.Abs(got-1) > 1e-9 {
		t.Fatalf("mixer gain with one lfo: got=%f want=%f", got, 1.0)
	}
	if got := lm.AbsoluteModulationAmount(); got != abs {
		t.Fatalf("absolute amount moved on toggle: got=%f want=%f", got, abs)
	}
	if err := mm.EnableLfo(GeneralLfoCount); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestModulationManagerOutputIsStablePerFrame(t *testing.T) {
	ctx := newTestContext()
	l := NewUnipolarLfo(ctx)
	_ = l.SetFrequency(5)
	pool := NewLfoPool(l)
	mm := NewModulationManager(ctx, pool, LfoManagerConfig{LowerLimit: 0, UpperLimit: 1, CurrentValue: 0})
	_ = mm.EnableLfo(0)
	_ = mm.SetLfosModulationAmount(1)

	for i := 0; i < 1000; i++ {
		pool.Tick()
		a := mm.Output()
		b := mm.Output()
		if a != b {
			t.Fatalf("frame %d: repeated reads differ: %f vs %f", i, a, b)
		}
		if a < 0 || a > 1 {
			t.Fatalf("frame %d: modulation left destination window: %f", i, a)
		}
		ctx.Advance()
	}
}
