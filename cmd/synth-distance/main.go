package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-monosynth/analysis"
	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/internal/render"
	"github.com/cwbudde/algo-monosynth/preset"
	"github.com/cwbudde/algo-monosynth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a3.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render candidate from the synth")
	presetPath := flag.String("preset", "", "Preset JSON path for rendered candidate (optional)")
	note := flag.Int("note", 57, "MIDI note for rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS for rendered candidate")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required for stop")
	minDuration := flag.Float64("min-duration", 1.0, "Minimum rendered duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum rendered duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Note hold time before NoteOff for rendered candidate")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		die("invalid -log-level: %v", err)
	}

	refRaw, refSR, err := audioio.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := audioio.ResampleIfNeeded(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		candRaw, candSR, err := audioio.ReadWAVMono(*candidatePath)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
		cand, err = audioio.ResampleIfNeeded(candRaw, candSR, *sampleRate)
		if err != nil {
			die("failed to resample candidate: %v", err)
		}
	} else {
		params := synth.NewDefaultParams()
		if *presetPath != "" {
			params, err = preset.LoadJSON(*presetPath)
			if err != nil {
				die("failed to load preset: %v", err)
			}
		}
		s, err := synth.NewMonoSynth(dsp.NewContext(*sampleRate, logger), params)
		if err != nil {
			die("failed to apply preset: %v", err)
		}
		mono, err := render.Render(s, render.Note(*note), render.Options{
			ReleaseAfter:    *releaseAfter,
			DecayDBFS:       *decayDBFS,
			DecayHoldBlocks: *decayHoldBlocks,
			MinDuration:     *minDuration,
			MaxDuration:     *maxDuration,
		})
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		if *writeCandidate != "" {
			if err := audioio.WriteMonoWAV(*writeCandidate, mono, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
		cand = audioio.ToFloat64(mono)
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	printMetrics(os.Stdout, metrics)
}

func printMetrics(w io.Writer, m analysis.Metrics) {
	lagMS := 0.0
	if m.SampleRate > 0 {
		lagMS = 1000.0 * float64(m.LagSamples) / float64(m.SampleRate)
	}
	fmt.Fprintf(w, "Reference frames: %d\n", m.ReferenceFrames)
	fmt.Fprintf(w, "Candidate frames: %d\n", m.CandidateFrames)
	fmt.Fprintf(w, "Aligned frames:   %d\n", m.AlignedFrames)
	fmt.Fprintf(w, "Lag:              %d samples (%.3f ms)\n", m.LagSamples, lagMS)
	fmt.Fprintf(w, "Envelope RMSE:    %.2f dB\n", m.EnvelopeRMSEDB)
	fmt.Fprintf(w, "Spectral RMSE:    %.2f dB\n", m.SpectralRMSEDB)
	fmt.Fprintf(w, "Centroid RMSE:    %.1f cents\n", m.CentroidRMSECents)
	fmt.Fprintf(w, "Pitch:            ref=%.2f Hz cand=%.2f Hz (RMSE %.1f cents)\n", m.RefPitchHz, m.CandPitchHz, m.PitchRMSECents)
	fmt.Fprintf(w, "Attack:           ref=%.3f s cand=%.3f s (diff %.3f)\n", m.RefAttackS, m.CandAttackS, m.AttackDiffS)
	fmt.Fprintf(w, "Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Fprintf(w, "Similarity:       %.2f%%\n", m.Similarity*100.0)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
