package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-monosynth/analysis"
	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/audioio"
	"github.com/cwbudde/algo-monosynth/internal/render"
	"github.com/cwbudde/algo-monosynth/synth"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	baseParams       *synth.Params
	defs             []knobDef
	initCandidate    candidate
	note             int
	baseReleaseAfter float64
	sampleRate       int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	decayDBFS        float64
	decayHoldBlocks  int
	minDuration      float64
	maxDuration      float64
	renderBlockSize  int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
	logger           *slog.Logger

	// onImprove runs for every new best, outside the state lock.
	onImprove func(evals int, best optimizationEval, cand candidate, top []topCandidate)
}

type optimizationEval struct {
	metrics      analysis.Metrics
	params       *synth.Params
	releaseAfter float64
}

type optimizationResult struct {
	best             candidate
	bestMetrics      analysis.Metrics
	bestParams       *synth.Params
	bestReleaseAfter float64
	initialScore     float64
	top              []topCandidate
	evals            int
	improves         int
	elapsed          float64
}

type optimizationState struct {
	mu       sync.Mutex
	best     candidate
	bestEval optimizationEval
	top      []topCandidate
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)
	if _, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), 1); err != nil {
		return nil, err
	}

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	logger.Info("start", "score", initialEval.metrics.Score, "similarity", initialEval.metrics.Similarity)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}

				round := int(atomic.AddInt64(&rounds, 1))
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					logger.Error("mayfly round setup failed", "round", round, "err", err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					evalRes, err := evaluateCandidate(cfg, cand)
					if err != nil {
						logger.Debug("candidate rejected", "eval", evalNum, "err", err)
						return currentBestScore(state) + 0.8
					}

					improved := false
					var bestSnapshot candidate
					var topSnapshot []topCandidate

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), evalRes.metrics, cfg.defs, cand)
					if evalRes.metrics.Score < state.bestEval.metrics.Score {
						state.best = cloneCandidate(cand)
						state.bestEval = evalRes
						improved = true
						bestSnapshot = cloneCandidate(cand)
						topSnapshot = cloneTopCandidates(state.top)
					}
					bestScore := state.bestEval.metrics.Score
					state.mu.Unlock()

					if improved {
						n := atomic.AddInt64(&improves, 1)
						logger.Info("improved", "n", n, "eval", evalNum, "score", evalRes.metrics.Score, "similarity", evalRes.metrics.Similarity)
						if cfg.onImprove != nil {
							outputMu.Lock()
							cfg.onImprove(int(evalNum), evalRes, bestSnapshot, topSnapshot)
							outputMu.Unlock()
						}
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						logger.Info("progress", "eval", evalNum, "max_evals", cfg.maxEvals, "elapsed", time.Since(start).Seconds(), "best", bestScore)
					}
					return evalRes.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					logger.Error("mayfly round failed", "round", round, "err", err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:             cloneCandidate(state.best),
		bestMetrics:      state.bestEval.metrics,
		bestParams:       state.bestEval.params,
		bestReleaseAfter: state.bestEval.releaseAfter,
		initialScore:     initialEval.metrics.Score,
		top:              cloneTopCandidates(state.top),
		evals:            int(atomic.LoadInt64(&evals)),
		improves:         int(atomic.LoadInt64(&improves)),
		elapsed:          time.Since(start).Seconds(),
	}, nil
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate) (optimizationEval, error) {
	params, releaseAfter := applyCandidate(cfg.baseParams, cfg.baseReleaseAfter, cfg.defs, cand)
	mono, err := renderCandidate(
		params,
		cfg.note,
		cfg.sampleRate,
		cfg.decayDBFS,
		cfg.decayHoldBlocks,
		cfg.minDuration,
		cfg.maxDuration,
		cfg.renderBlockSize,
		releaseAfter,
	)
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics:      analysis.Compare(cfg.reference, mono, cfg.sampleRate),
		params:       params,
		releaseAfter: releaseAfter,
	}, nil
}

// renderCandidate plays note on a fresh synth and stops once the output has
// stayed below decayDBFS for decayHoldBlocks blocks past minDuration.
func renderCandidate(
	params *synth.Params,
	note int,
	sampleRate int,
	decayDBFS float64,
	decayHoldBlocks int,
	minDuration float64,
	maxDuration float64,
	blockSize int,
	releaseAfter float64,
) ([]float64, error) {
	if params == nil {
		return nil, errors.New("nil params")
	}
	if maxDuration*float64(sampleRate) < 1 {
		return nil, errors.New("max duration too small")
	}
	s, err := synth.NewMonoSynth(dsp.NewContext(sampleRate, nil), params)
	if err != nil {
		return nil, err
	}
	out, err := render.Render(s, render.Note(note), render.Options{
		ReleaseAfter:    releaseAfter,
		DecayDBFS:       decayDBFS,
		DecayHoldBlocks: decayHoldBlocks,
		MinDuration:     minDuration,
		MaxDuration:     maxDuration,
		BlockSize:       blockSize,
	})
	if err != nil {
		return nil, err
	}
	return audioio.ToFloat64(out), nil
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i := range in {
		entry := in[i]
		entry.Knobs = make(map[string]float64, len(in[i].Knobs))
		for k, v := range in[i].Knobs {
			entry.Knobs[k] = v
		}
		out[i] = entry
	}
	return out
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestEval.metrics.Score
	state.mu.Unlock()
	return score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}
