package dsp

import "sort"

// EventKind tells how a scheduled point is reached.
type EventKind int

const (
	// EventSet jumps to the value at the event time.
	EventSet EventKind = iota
	// EventLinearRamp ramps linearly from the previous event to the value.
	EventLinearRamp
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventLinearRamp:
		return "ramp"
	default:
		return "unknown"
	}
}

// Event is one scheduled automation point.
type Event struct {
	Kind  EventKind
	Time  float64
	Value float64
}

// Signal is a per-frame value source. Reading it must not advance any state.
type Signal interface {
	Output() float64
}

// Automatable is the scheduling surface components rely on.
type Automatable interface {
	SetValueNow(v float64)
	RampLinearTo(v float64, atTime float64)
	CancelAndHold(atTime float64)
	Value() float64
}

// Param is an automatable scalar with a time-ordered event schedule.
// Connected signals are summed on top of the scheduled value by Output.
type Param struct {
	ctx    *Context
	base   float64
	events []Event
	inputs []Signal
}

// NewParam creates a parameter holding initial until something is scheduled.
func NewParam(ctx *Context, initial float64) *Param {
	return &Param{
		ctx:  ctx,
		base: initial,
	}
}

// SetValueAtTime schedules a jump to v at t.
func (p *Param) SetValueAtTime(v float64, t float64) {
	p.insert(Event{Kind: EventSet, Time: t, Value: v})
}

// SetValueNow jumps to v at the current transport time.
func (p *Param) SetValueNow(v float64) {
	p.SetValueAtTime(v, p.ctx.CurrentTime())
}

// RampLinearTo schedules a linear ramp reaching v at atTime. The ramp starts
// at the previous event; when every scheduled event already lies in the past
// the ramp starts from the value held now.
func (p *Param) RampLinearTo(v float64, atTime float64) {
	now := p.ctx.CurrentTime()
	if n := len(p.events); n == 0 || p.events[n-1].Time < now {
		p.events = append(p.events, Event{Kind: EventSet, Time: now, Value: p.ValueAt(now)})
	}
	if atTime < now {
		atTime = now
	}
	p.insert(Event{Kind: EventLinearRamp, Time: atTime, Value: v})
}

// CancelAndHold drops every event at or after atTime and holds the value the
// schedule had reached at atTime, including the point inside a running ramp.
func (p *Param) CancelAndHold(atTime float64) {
	held := p.ValueAt(atTime)
	keep := p.events[:0]
	for _, e := range p.events {
		if e.Time < atTime {
			keep = append(keep, e)
		}
	}
	p.events = append(keep, Event{Kind: EventSet, Time: atTime, Value: held})
}

// ValueAt evaluates the schedule at time t, ignoring connected signals.
func (p *Param) ValueAt(t float64) float64 {
	v := p.base
	prevT := 0.0
	for _, e := range p.events {
		if e.Time <= t {
			v = e.Value
			prevT = e.Time
			continue
		}
		if e.Kind == EventLinearRamp {
			span := e.Time - prevT
			if span <= 0 {
				return e.Value
			}
			return v + (e.Value-v)*(t-prevT)/span
		}
		return v
	}
	return v
}

// Value is the scheduled value at the current transport time. Events that can
// no longer affect the future are released.
func (p *Param) Value() float64 {
	now := p.ctx.CurrentTime()
	p.prune(now)
	return p.ValueAt(now)
}

// Output is the scheduled value plus every connected signal.
func (p *Param) Output() float64 {
	v := p.Value()
	for _, in := range p.inputs {
		v += in.Output()
	}
	return v
}

// Connect sums s into Output. Connections are never removed.
func (p *Param) Connect(s Signal) {
	p.inputs = append(p.inputs, s)
}

// Events returns a copy of the pending schedule.
func (p *Param) Events() []Event {
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Param) insert(e Event) {
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Time > e.Time
	})
	p.events = append(p.events, Event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// prune keeps the last event at or before now as the anchor for later ramps.
func (p *Param) prune(now float64) {
	last := -1
	for i, e := range p.events {
		if e.Time > now {
			break
		}
		last = i
	}
	if last <= 0 {
		return
	}
	p.base = p.events[last].Value
	p.events = append(p.events[:0], p.events[last:]...)
}
