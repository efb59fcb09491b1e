package synth

import (
	"github.com/cwbudde/algo-monosynth/dsp"
)

// Stage is the envelope phase at the current transport time.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

type envelopeMode int

const (
	modeIdle envelopeMode = iota
	modeHeld
	modeReleased
	modeBeat
)

// Envelope is a linear ADSR built from two automated gains: a shape layer
// that never drops below MinSustain and a hard gate that reaches exactly 0.
// Every trigger cancels and holds the pending schedule before adding its own.
type Envelope struct {
	ctx *dsp.Context

	shape *dsp.Param
	gate  *dsp.Param

	attack  float64
	decay   float64
	sustain float64
	release float64

	mode         envelopeMode
	onTime       float64
	attackStart  float64
	attackEnd    float64
	decayEnd     float64
	releaseStart float64
	releaseEnd   float64
	offTime      float64
}

// NewEnvelope creates an idle envelope with the generic defaults.
func NewEnvelope(ctx *dsp.Context) *Envelope {
	return &Envelope{
		ctx:     ctx,
		shape:   dsp.NewParam(ctx, MinSustain),
		gate:    dsp.NewParam(ctx, envelopeOff),
		attack:  DefaultAttack,
		decay:   DefaultDecay,
		sustain: DefaultSustain,
		release: DefaultRelease,
	}
}

func (e *Envelope) Attack() float64  { return e.attack }
func (e *Envelope) Decay() float64   { return e.decay }
func (e *Envelope) Sustain() float64 { return e.sustain }
func (e *Envelope) Release() float64 { return e.release }

func (e *Envelope) SetAttack(seconds float64) error {
	if err := checkRange("attack", seconds, MinAttack, MaxAttack); err != nil {
		return rejected(e.ctx.Logger(), "Envelope.SetAttack", err)
	}
	e.attack = seconds
	return nil
}

func (e *Envelope) SetDecay(seconds float64) error {
	if err := checkRange("decay", seconds, MinDecay, MaxDecay); err != nil {
		return rejected(e.ctx.Logger(), "Envelope.SetDecay", err)
	}
	e.decay = seconds
	return nil
}

func (e *Envelope) SetSustain(level float64) error {
	if err := checkRange("sustain", level, MinSustain, MaxSustain); err != nil {
		return rejected(e.ctx.Logger(), "Envelope.SetSustain", err)
	}
	e.sustain = level
	return nil
}

func (e *Envelope) SetRelease(seconds float64) error {
	if err := checkRange("release", seconds, MinRelease, MaxRelease); err != nil {
		return rejected(e.ctx.Logger(), "Envelope.SetRelease", err)
	}
	e.release = seconds
	return nil
}

// Start opens the gate and runs attack and decay into the sustain level.
func (e *Envelope) Start() {
	now := e.ctx.CurrentTime()
	e.shape.CancelAndHold(now)
	e.gate.CancelAndHold(now)

	e.onTime = now + EnvelopeSafety
	e.attackStart = e.onTime + EnvelopeSafety
	e.attackEnd = e.attackStart + e.attack
	e.decayEnd = e.attackEnd + e.decay
	e.mode = modeHeld

	e.gate.RampLinearTo(envelopeOn, e.onTime)
	e.shape.RampLinearTo(MaxSustain, e.attackEnd)
	e.shape.RampLinearTo(e.sustain, e.decayEnd)
	e.ctx.Logger().Debug("envelope start", "at", now, "attack_end", e.attackEnd, "decay_end", e.decayEnd)
}

// Stop releases from wherever the shape currently is and closes the gate
// one safety interval after the release ends.
func (e *Envelope) Stop() {
	now := e.ctx.CurrentTime()
	e.shape.CancelAndHold(now)
	e.gate.CancelAndHold(now)

	e.releaseStart = now
	e.releaseEnd = now + e.release
	e.offTime = e.releaseEnd + EnvelopeSafety
	e.mode = modeReleased

	e.shape.RampLinearTo(MinSustain, e.releaseEnd)
	e.gate.RampLinearTo(envelopeOff, e.offTime)
	e.ctx.Logger().Debug("envelope stop", "at", now, "release_end", e.releaseEnd, "off", e.offTime)
}

// StartBeat plays one self-terminating step: attack and decay from now,
// sustain until now+duration, then release. A non-positive duration falls
// back to a 16th note at 120 BPM.
func (e *Envelope) StartBeat(duration float64) {
	if duration <= 0 {
		duration = DefaultStepDuration
	}
	now := e.ctx.CurrentTime()
	e.shape.CancelAndHold(now)
	e.gate.CancelAndHold(now)

	e.onTime = now
	e.attackStart = now
	e.attackEnd = now + e.attack
	e.decayEnd = e.attackEnd + e.decay
	e.releaseStart = now + duration
	e.releaseEnd = e.releaseStart + e.release
	e.offTime = e.releaseEnd + EnvelopeSafety
	e.mode = modeBeat

	e.gate.RampLinearTo(envelopeOn, now+EnvelopeSafety)
	e.gate.RampLinearTo(envelopeOn, e.releaseEnd)
	e.shape.RampLinearTo(MaxSustain, e.attackEnd)
	e.shape.RampLinearTo(e.sustain, e.decayEnd)
	if e.releaseStart > e.decayEnd {
		e.shape.RampLinearTo(e.sustain, e.releaseStart)
	}
	e.shape.RampLinearTo(MinSustain, e.releaseEnd)
	e.gate.RampLinearTo(envelopeOff, e.offTime)
}

// Output is the envelope value at the current transport time.
func (e *Envelope) Output() float64 {
	return e.shape.Value() * e.gate.Value()
}

// Stage reports the phase at the current transport time.
func (e *Envelope) Stage() Stage {
	now := e.ctx.CurrentTime()
	switch e.mode {
	case modeHeld:
		switch {
		case now < e.attackEnd:
			return StageAttack
		case now < e.decayEnd:
			return StageDecay
		default:
			return StageSustain
		}
	case modeReleased:
		if now < e.offTime {
			return StageRelease
		}
	case modeBeat:
		switch {
		case now < e.attackEnd:
			return StageAttack
		case now < e.decayEnd && now < e.releaseStart:
			return StageDecay
		case now < e.releaseStart:
			return StageSustain
		case now < e.offTime:
			return StageRelease
		}
	}
	return StageIdle
}

// Active is true until the gate has fully closed after a release.
func (e *Envelope) Active() bool {
	return e.Stage() != StageIdle
}

// ShapeParam and GateParam expose the two automated layers for inspection.
func (e *Envelope) ShapeParam() *dsp.Param { return e.shape }
func (e *Envelope) GateParam() *dsp.Param  { return e.gate }

// Times returns the timestamps of the most recent trigger.
func (e *Envelope) Times() EnvelopeTimes {
	return EnvelopeTimes{
		On:           e.onTime,
		AttackStart:  e.attackStart,
		AttackEnd:    e.attackEnd,
		DecayEnd:     e.decayEnd,
		ReleaseStart: e.releaseStart,
		ReleaseEnd:   e.releaseEnd,
		Off:          e.offTime,
	}
}

// EnvelopeTimes are absolute transport times in seconds.
type EnvelopeTimes struct {
	On           float64
	AttackStart  float64
	AttackEnd    float64
	DecayEnd     float64
	ReleaseStart float64
	ReleaseEnd   float64
	Off          float64
}
