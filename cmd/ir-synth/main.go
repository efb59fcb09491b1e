package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/irsynth"
)

func main() {
	cfg := irsynth.DefaultConfig()

	output := flag.String("output", "assets/ir/reverb_48k.wav", "Output WAV path")
	stereo := flag.Bool("stereo", false, "Write a decorrelated stereo pair")
	color := flag.String("color", cfg.Color.String(), "Noise color: white, pink or brown")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DecayS, "decay", cfg.DecayS, "Time to fall 60 dB (s)")
	flag.Float64Var(&cfg.FadeInS, "fade-in", cfg.FadeInS, "Onset fade length (s)")
	flag.Float64Var(&cfg.LengthFactor, "length-factor", cfg.LengthFactor, "IR length as a multiple of -decay")
	flag.Float64Var(&cfg.DecayRate, "decay-rate", cfg.DecayRate, "Onset fade exponent [0,4]")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.DampingHz, "damping", cfg.DampingHz, "Tail lowpass corner in Hz (0 = off)")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo decorrelation width")
	flag.Float64Var(&cfg.FadeOutS, "fade-out", cfg.FadeOutS, "Tail fade length (s)")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target (0 = raw)")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	c, ok := dsp.ParseNoiseColor(*color)
	if !ok {
		fmt.Fprintf(os.Stderr, "ir-synth error: unknown color %q\n", *color)
		os.Exit(1)
	}
	cfg.Color = c
	logger.Debug("ir config", "sample_rate", cfg.SampleRate, "decay", cfg.DecayS, "color", cfg.Color, "seed", cfg.Seed, "stereo", *stereo)

	var left []float32
	if *stereo {
		l, r, err := irsynth.GenerateStereo(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
			os.Exit(1)
		}
		if err := audioio.WriteStereoWAVLR(*output, l, r, cfg.SampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
			os.Exit(1)
		}
		left = l
	} else {
		ir, err := irsynth.Generate(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
			os.Exit(1)
		}
		if err := audioio.WriteMonoWAV(*output, ir, cfg.SampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
			os.Exit(1)
		}
		left = ir
	}

	peak, rms := audioio.Stats(left)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS(), len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}
