// Package render drives a MonoSynth offline in fixed blocks.
package render

import (
	"math"

	"github.com/cwbudde/algo-monosynth/synth"
)

// DefaultBlockSize is the block size when Options leaves it unset.
const DefaultBlockSize = 128

type Options struct {
	// Duration is the render length without auto-stop.
	Duration     float64
	ReleaseAfter float64

	// A finite DecayDBFS enables auto-stop: once the note is released and
	// MinDuration has passed, rendering ends after DecayHoldBlocks blocks
	// below the threshold, or at MaxDuration.
	DecayDBFS       float64
	DecayHoldBlocks int
	MinDuration     float64
	MaxDuration     float64

	BlockSize int
}

// Performer starts and releases whatever drives the voice.
type Performer interface {
	Start(s *synth.MonoSynth) error
	Release(s *synth.MonoSynth)
}

// Note holds one MIDI note.
type Note int

func (n Note) Start(s *synth.MonoSynth) error { return s.NoteOnMidi(int(n)) }
func (n Note) Release(s *synth.MonoSynth)     { s.NoteOff() }

// Render plays p on s and returns the mono output. Release lands on the
// exact frame of ReleaseAfter regardless of the block size.
func Render(s *synth.MonoSynth, p Performer, opt Options) ([]float32, error) {
	sr := float64(s.Context().SampleRate())
	blockSize := opt.BlockSize
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	autoStop := !math.IsInf(opt.DecayDBFS, 1)

	maxFrames := int(sr * opt.Duration)
	minFrames := 0
	if autoStop {
		minFrames = int(sr * max(opt.MinDuration, 0))
		maxFrames = max(int(sr*opt.MaxDuration), minFrames)
	}
	if maxFrames < 1 {
		maxFrames = 1
	}
	releaseAtFrame := max(int(sr*opt.ReleaseAfter), 0)
	holdBlocks := max(opt.DecayHoldBlocks, 1)
	thresholdLin := math.Pow(10.0, opt.DecayDBFS/20.0)

	if err := p.Start(s); err != nil {
		return nil, err
	}

	samples := make([]float32, 0, maxFrames)
	block := make([]float32, blockSize)
	released := false
	belowCount := 0
	rendered := 0
	for rendered < maxFrames {
		n := min(blockSize, maxFrames-rendered)
		if !released && rendered+n > releaseAtFrame {
			if head := releaseAtFrame - rendered; head > 0 {
				n = head
			} else {
				p.Release(s)
				released = true
			}
		}

		s.ProcessInto(block[:n])
		samples = append(samples, block[:n]...)
		rendered += n

		if autoStop && released && rendered >= minFrames {
			if BlockRMS(block[:n]) < thresholdLin {
				belowCount++
				if belowCount >= holdBlocks {
					break
				}
			} else {
				belowCount = 0
			}
		}
	}
	return samples, nil
}

func BlockRMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}
