package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/effects"
)

// DCBlockerHz is the corner of the output highpass.
const DCBlockerHz = 10.0

// Ticker runs once per frame before the voice renders, on the frame clock
// of the synth. Sequencers use it to fire steps sample-accurately.
type Ticker interface {
	Tick(ctx *dsp.Context)
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(ctx *dsp.Context)

func (f TickerFunc) Tick(ctx *dsp.Context) { f(ctx) }

// MonoSynth is the full instrument:
//
//	voice -> distortion -> delay -> reverb -> compressor -> DC blocker
type MonoSynth struct {
	ctx        *dsp.Context
	voice      *Voice
	distortion *effects.Distortion
	delay      *effects.Delay
	reverb     *effects.Reverb
	compressor *effects.Compressor
	chain      *effects.Chain
	dcBlocker  *biquad.Section
	tickers    []Ticker
	params     *Params
}

// NewMonoSynth builds the instrument on ctx and applies params. A nil params
// keeps the built-in defaults. Rejected fields are returned together; the
// synth is usable either way.
func NewMonoSynth(ctx *dsp.Context, params *Params) (*MonoSynth, error) {
	s := &MonoSynth{
		ctx:        ctx,
		voice:      NewVoice(ctx),
		distortion: effects.NewDistortion(ctx),
		delay:      effects.NewDelay(ctx),
		reverb:     effects.NewReverb(ctx),
		compressor: effects.NewCompressor(ctx),
		dcBlocker:  biquad.NewSection(dsp.HighpassCoefficients(DCBlockerHz, float64(ctx.SampleRate()), math.Sqrt2/2)),
	}
	s.chain = effects.NewChain(s.distortion, s.delay, s.reverb, s.compressor)
	if params == nil {
		s.params = NewDefaultParams()
		return s, nil
	}
	return s, s.Apply(params)
}

// Apply pushes a full patch onto the voice and the effects chain.
func (s *MonoSynth) Apply(p *Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	s.params = p
	var errs []error
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	errs = append(errs, p.ApplyToVoice(s.voice))

	add("distortion.drive", s.distortion.SetAmount(p.Distortion.Drive))
	add("distortion.angle", s.distortion.SetCurveAngle(p.Distortion.Angle))
	add("distortion.constant", s.distortion.SetCurveConstant(p.Distortion.Constant))
	add("delay.time", s.delay.SetDelayTime(p.Delay.Time))
	add("delay.feedback", s.delay.SetFeedback(p.Delay.Feedback))
	if p.Reverb.IRWavPath != "" {
		add("reverb.ir_wav_path", s.reverb.SetIRFromWAV(p.Reverb.IRWavPath))
	} else {
		add("reverb.decay_rate", s.reverb.SetDecayRate(p.Reverb.DecayRate))
	}
	add("compressor.threshold", s.compressor.SetThreshold(p.Compressor.Threshold))
	add("compressor.knee", s.compressor.SetKnee(p.Compressor.Knee))
	add("compressor.ratio", s.compressor.SetRatio(p.Compressor.Ratio))
	add("compressor.attack", s.compressor.SetAttack(p.Compressor.Attack))
	add("compressor.release", s.compressor.SetRelease(p.Compressor.Release))

	for _, e := range []struct {
		name string
		fx   effects.Effect
		cfg  EffectParams
	}{
		{"distortion", s.distortion, p.Distortion.EffectParams},
		{"delay", s.delay, p.Delay.EffectParams},
		{"reverb", s.reverb, p.Reverb.EffectParams},
		{"compressor", s.compressor, p.Compressor.EffectParams},
	} {
		add(e.name+".amount", e.fx.SetEffectAmount(e.cfg.Amount))
		if e.fx.Enabled() != e.cfg.Enabled {
			e.fx.Toggle()
		}
	}
	return errors.Join(errs...)
}

// Params is the last applied patch.
func (s *MonoSynth) Params() *Params { return s.params }

// AddTicker registers t to run at the start of every frame.
func (s *MonoSynth) AddTicker(t Ticker) {
	s.tickers = append(s.tickers, t)
}

func (s *MonoSynth) NoteOn(octaves, semitones int) error { return s.voice.NoteOn(octaves, semitones) }
func (s *MonoSynth) NoteOff()                            { s.voice.NoteOff() }

// NoteOnMidi plays MIDI note m.
func (s *MonoSynth) NoteOnMidi(m int) error {
	if err := checkIntRange("midi note", m, MinMidiNote, MaxMidiNote); err != nil {
		return rejected(s.ctx.Logger(), "MonoSynth.NoteOnMidi", err)
	}
	return s.voice.NoteOn(MidiToOctavesSemitones(m))
}

func (s *MonoSynth) Context() *dsp.Context           { return s.ctx }
func (s *MonoSynth) Voice() *Voice                   { return s.voice }
func (s *MonoSynth) Distortion() *effects.Distortion { return s.distortion }
func (s *MonoSynth) Delay() *effects.Delay           { return s.delay }
func (s *MonoSynth) Reverb() *effects.Reverb         { return s.reverb }
func (s *MonoSynth) Compressor() *effects.Compressor { return s.compressor }
func (s *MonoSynth) Effects() *effects.Chain         { return s.chain }

// Process renders numFrames mono samples and advances the clock.
func (s *MonoSynth) Process(numFrames int) []float32 {
	out := make([]float32, numFrames)
	s.ProcessInto(out)
	return out
}

// ProcessInto renders len(out) samples into out.
func (s *MonoSynth) ProcessInto(out []float32) {
	for i := range out {
		for _, t := range s.tickers {
			t.Tick(s.ctx)
		}
		y := s.chain.Process(s.voice.next())
		y = s.dcBlocker.ProcessSample(y)
		out[i] = float32(dsp.FlushDenormals(y))
		s.ctx.Advance()
	}
}

// Reset clears effect tails and the DC blocker. Schedules are kept.
func (s *MonoSynth) Reset() {
	s.chain.Reset()
	s.dcBlocker.Reset()
	s.voice.filter.Reset()
}
