package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/preset"
	"github.com/cwbudde/algo-monosynth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a3.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional, defaults to the built-in patch)")
	reportPath := flag.String("report", "assets/fit/report.json", "Path to write the fit report JSON")
	optimize := flag.String("optimize", "envelope,filter", "Comma-separated knob groups to optimize: envelope, filter, mixer, render")
	note := flag.Int("note", 57, "MIDI note to fit")
	releaseAfter := flag.Float64("release-after", 1.0, "Seconds before NoteOff for each evaluation render")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Log progress every N evaluations")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 1.0, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 8.0, "Maximum render duration in seconds")
	renderBlockSize := flag.Int("render-block-size", 128, "Audio render block size for candidate evaluation")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		die("invalid -log-level: %v", err)
	}
	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if *reportPath == "" {
		die("report must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *releaseAfter < 0.05 {
		*releaseAfter = 0.05
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	if *maxDuration < *minDuration {
		*maxDuration = *minDuration
	}
	if *renderBlockSize < 16 {
		*renderBlockSize = 16
	}
	parsedWorkers, err := cliutil.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := synth.NewDefaultParams()
	if *presetPath != "" {
		baseParams, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}

	refRaw, refSR, err := audioio.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := audioio.ResampleIfNeeded(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(baseParams, *releaseAfter, groups)
	paths := outputPaths{
		reference: *referencePath,
		preset:    *presetPath,
		report:    *reportPath,
	}
	variant := strings.ToLower(*mayflyVariant)

	cfg := &optimizationConfig{
		reference:        ref,
		baseParams:       baseParams,
		defs:             defs,
		initCandidate:    initCand,
		note:             *note,
		baseReleaseAfter: *releaseAfter,
		sampleRate:       *sampleRate,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		decayDBFS:        *decayDBFS,
		decayHoldBlocks:  *decayHoldBlocks,
		minDuration:      *minDuration,
		maxDuration:      *maxDuration,
		renderBlockSize:  *renderBlockSize,
		mayflyVariant:    variant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
		logger:           logger,
	}
	cfg.onImprove = func(evals int, best optimizationEval, cand candidate, top []topCandidate) {
		if err := writeReport(paths, *sampleRate, *note, best.releaseAfter, 0, evals, variant, defs, cand, best.metrics, top); err != nil {
			logger.Warn("checkpoint write failed", "err", err)
		}
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	if err := writeReport(
		paths,
		*sampleRate,
		*note,
		result.bestReleaseAfter,
		result.elapsed,
		result.evals,
		variant,
		defs,
		result.best,
		result.bestMetrics,
		result.top,
	); err != nil {
		die("failed to write report: %v", err)
	}

	fmt.Printf("Done evals=%d improves=%d elapsed=%.1fs\n", result.evals, result.improves, result.elapsed)
	fmt.Printf("Score %.4f -> %.4f (similarity %.2f%%)\n", result.initialScore, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0)
	fmt.Printf("Wrote %s\n", paths.report)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
