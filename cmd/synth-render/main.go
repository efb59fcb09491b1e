package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/internal/render"
	"github.com/cwbudde/algo-monosynth/preset"
	"github.com/cwbudde/algo-monosynth/sequencer"
	"github.com/cwbudde/algo-monosynth/synth"
)

func main() {
	note := flag.Int("note", 57, "MIDI note number (57 = A3 = 220 Hz)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff (or stop the pattern) after this many seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS after release (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional, defaults to the built-in patch)")
	irPath := flag.String("ir", "", "Reverb IR WAV path override (optional)")
	patternPath := flag.String("pattern", "", "Sequencer pattern YAML; steps transpose -note")
	arpKeys := flag.String("arp", "", "Comma-separated MIDI keys to arpeggiate instead of a single note")
	arpMode := flag.String("arp-mode", "up", "Arpeggio mode: up, down or updown")
	arpOctaves := flag.Int("arp-octaves", 1, "Octaves the arpeggio spans (1-4)")
	arpTempo := flag.Float64("arp-tempo", sequencer.DefaultArpTempo, "Arpeggio tempo in BPM")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		die("invalid -log-level: %v", err)
	}
	if *patternPath != "" && *arpKeys != "" {
		die("-pattern and -arp are mutually exclusive")
	}

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		params, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
	}
	if *irPath != "" {
		params.Reverb.IRWavPath = *irPath
	}

	ctx := dsp.NewContext(*sampleRate, logger)
	s, err := synth.NewMonoSynth(ctx, params)
	if err != nil {
		die("Error applying preset: %v", err)
	}

	var p render.Performer
	switch {
	case *patternPath != "":
		pat, err := sequencer.LoadPattern(*patternPath)
		if err != nil {
			die("Error loading pattern %q: %v", *patternPath, err)
		}
		seq, err := sequencer.New(s.Voice(), pat)
		if err != nil {
			die("Error building sequencer: %v", err)
		}
		p = &patternPerformer{note: *note, seq: seq}
	case *arpKeys != "":
		keys, err := parseKeys(*arpKeys)
		if err != nil {
			die("invalid -arp: %v", err)
		}
		mode, ok := sequencer.ParseMode(*arpMode)
		if !ok {
			die("invalid -arp-mode %q", *arpMode)
		}
		arp := sequencer.NewArpeggiator(s.Voice())
		arp.SetMode(mode)
		if err := arp.SetOctaves(*arpOctaves); err != nil {
			die("invalid -arp-octaves: %v", err)
		}
		if err := arp.SetTempo(*arpTempo); err != nil {
			die("invalid -arp-tempo: %v", err)
		}
		p = &arpPerformer{arp: arp, keys: keys}
	default:
		p = render.Note(*note)
	}

	fmt.Printf("Rendering for %.2f seconds at %d Hz (preset: %s)...\n", *duration, *sampleRate, *presetPath)

	samples, err := render.Render(s, p, render.Options{
		Duration:        *duration,
		ReleaseAfter:    *releaseAfter,
		DecayDBFS:       *decayDBFS,
		DecayHoldBlocks: *decayHoldBlocks,
		MinDuration:     *minDuration,
		MaxDuration:     *maxDuration,
		BlockSize:       render.DefaultBlockSize,
	})
	if err != nil {
		die("Error rendering: %v", err)
	}

	if err := audioio.WriteMonoWAV(*output, samples, *sampleRate); err != nil {
		die("Error writing WAV: %v", err)
	}

	peak, rms := audioio.Stats(samples)
	fmt.Printf("Wrote %s (%d frames, %.3fs)\n", *output, len(samples), float64(len(samples))/float64(*sampleRate))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
