package synth

import "math"

// Parameter windows and defaults shared by the voice components.
const (
	MinOctaves         = 1
	MaxOctaves         = 7
	MinSemitones       = 0
	MaxSemitones       = 11
	MinOctavesOffset   = -2
	MaxOctavesOffset   = 2
	MinSemitonesOffset = -12
	MaxSemitonesOffset = 12
	MinCentsOffset     = -100.0
	MaxCentsOffset     = 100.0

	MinBeatOctavesOffset   = -1
	MaxBeatOctavesOffset   = 1
	MinBeatSemitonesOffset = -12
	MaxBeatSemitonesOffset = 13

	DefaultOctaves   = 4
	DefaultSemitones = 9

	MinMidiNote = 0
	MaxMidiNote = 127
)

const (
	MinAttack  = 0.0
	MaxAttack  = 8.0
	MinDecay   = 0.0
	MaxDecay   = 8.0
	MinSustain = 0.0001
	MaxSustain = 1.0
	MinRelease = 0.02
	MaxRelease = 8.0

	DefaultAttack  = 0.01
	DefaultDecay   = 0.3
	DefaultSustain = 0.5
	DefaultRelease = 1.0

	DefaultVoiceAttack  = 0.01
	DefaultVoiceDecay   = 1.0
	DefaultVoiceSustain = 0.8
	DefaultVoiceRelease = 1.0

	DefaultFilterAttack  = 0.0
	DefaultFilterDecay   = 0.0
	DefaultFilterSustain = 1.0
	DefaultFilterRelease = MinRelease

	// EnvelopeSafety separates cancel, gate and attack so no two events
	// of one trigger share a timestamp.
	EnvelopeSafety = 0.01

	envelopeOff = 0.0
	envelopeOn  = 1.0

	// DefaultStepDuration is a 16th note at 120 BPM.
	DefaultStepDuration = (60.0 / 120.0) / 4.0
)

const (
	MinLfoLowFrequency  = 0.1
	MaxLfoLowFrequency  = 5.0
	MinLfoMidFrequency  = 5.0
	MaxLfoMidFrequency  = 50.0
	MinLfoHighFrequency = 50.0
	MaxLfoHighFrequency = 2000.0
	DefaultLfoFrequency = 1.0

	MinLfoGain = 0.0
	MaxLfoGain = 1.0

	MinModulationAmount = -1.0
	MaxModulationAmount = 1.0

	// GeneralLfoCount and FmRingLfoCount size the two shared LFO pools.
	GeneralLfoCount = 5
	FmRingLfoCount  = 3
)

const (
	MinOscGain = 0.0
	MaxOscGain = 1.0

	MinPulseWidth     = 0.0
	MaxPulseWidth     = 1.0
	DefaultPulseWidth = 0.5

	MinUnisonDetune     = -25.0
	MaxUnisonDetune     = 25.0
	DefaultUnisonDetune = 0.0

	// FrequencyModulationRange bounds the Hz excursion of oscillator FM.
	FrequencyModulationRange = 400.0

	NoiseDuration = 2.0

	MinMixerLevel = 0.0
	MaxMixerLevel = 1.0
)

const (
	MinCutoff     = 100.0
	MaxCutoff     = 6000.0
	DefaultCutoff = MaxCutoff

	MinResonance     = 0.0001
	MaxResonance     = 50.0
	DefaultResonance = 1.0

	MinEnvelopeAmount     = -4800.0
	MaxEnvelopeAmount     = 4800.0
	DefaultEnvelopeAmount = 0.0

	MinMainGain     = 0.0
	MaxMainGain     = 1.0
	DefaultMainGain = 1.0
	MainGainRamp    = 0.1
)

// gainEpsilon keeps a normalized sum just under unity.
const gainEpsilon = 1e-12

var twoPi = 2 * math.Pi
