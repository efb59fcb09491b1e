package analysis

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	// TrackFrame and TrackHop set the short-time analysis grid.
	TrackFrame = 2048
	TrackHop   = 512

	floorDB    = -100.0
	onsetDB    = -40.0
	activeDB   = -50.0
	minPitchHz = 60.0
	maxPitchHz = 2000.0
	voicedCorr = 0.5

	maxCompareSeconds = 12
)

// Metrics compares a rendered note against a reference note. Both are
// aligned on their onsets and RMS-normalised before tracking.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	EnvelopeRMSEDB    float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB    float64 `json:"spectral_rmse_db"`
	CentroidRMSECents float64 `json:"centroid_rmse_cents"`
	PitchRMSECents    float64 `json:"pitch_rmse_cents"`
	RefPitchHz        float64 `json:"ref_pitch_hz"`
	CandPitchHz       float64 `json:"cand_pitch_hz"`
	RefAttackS        float64 `json:"ref_attack_s"`
	CandAttackS       float64 `json:"cand_attack_s"`
	AttackDiffS       float64 `json:"attack_diff_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare tracks level, spectrum, brightness and pitch of both notes frame
// by frame and folds the differences into a score in [0,1], 0 being equal.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	worst := func() Metrics {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	if sampleRate <= 0 {
		return worst()
	}

	refOn := onset(reference)
	candOn := onset(candidate)
	if refOn < 0 || candOn < 0 {
		return worst()
	}
	m.LagSamples = candOn - refOn

	ref := normalizeRMS(reference[refOn:], 0.1)
	cand := normalizeRMS(candidate[candOn:], 0.1)
	n := min(len(ref), len(cand), sampleRate*maxCompareSeconds)
	if n < TrackFrame {
		return worst()
	}
	m.AlignedFrames = n

	tr, err := newTracker(sampleRate)
	if err != nil {
		return worst()
	}
	rt := tr.analyse(ref[:n])
	ct := tr.analyse(cand[:n])

	m.EnvelopeRMSEDB = envelopeDistance(rt, ct)
	m.SpectralRMSEDB = spectralDistance(rt, ct)
	m.CentroidRMSECents = centroidDistance(rt, ct)
	m.PitchRMSECents = pitchDistance(rt, ct)
	m.RefPitchHz = median(voiced(rt.pitch))
	m.CandPitchHz = median(voiced(ct.pitch))

	center := float64(TrackFrame/2) / float64(sampleRate)
	m.RefAttackS = float64(rt.peak*TrackHop)/float64(sampleRate) + center
	m.CandAttackS = float64(ct.peak*TrackHop)/float64(sampleRate) + center
	m.AttackDiffS = math.Abs(m.RefAttackS - m.CandAttackS)

	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	centNorm := clamp01(m.CentroidRMSECents / 1200.0)
	pitchNorm := clamp01(m.PitchRMSECents / 1200.0)
	attNorm := clamp01(m.AttackDiffS / 0.5)
	m.Score = clamp01(0.25*envNorm + 0.25*specNorm + 0.20*centNorm + 0.20*pitchNorm + 0.10*attNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	return m
}

// track holds per-frame features of one signal.
type track struct {
	levelDB  []float64
	spectrum [][]float64
	centroid []float64
	pitch    []float64 // 0 when unvoiced
	peak     int
}

func (t track) active(i int) bool {
	return t.levelDB[i] > t.levelDB[t.peak]+activeDB
}

type tracker struct {
	sampleRate int
	window     []float64

	spec    *algofft.PlanRealT[float64, complex128]
	acf     *algofft.PlanRealT[float64, complex128]
	frame   []float64
	bins    []complex128
	padded  []float64
	acfBins []complex128
	lags    []float64

	windowACF []float64
}

func newTracker(sampleRate int) (*tracker, error) {
	spec, err := algofft.NewPlanReal64(TrackFrame)
	if err != nil {
		return nil, err
	}
	acf, err := algofft.NewPlanReal64(2 * TrackFrame)
	if err != nil {
		return nil, err
	}
	w := make([]float64, TrackFrame)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(TrackFrame-1))
	}
	tr := &tracker{
		sampleRate: sampleRate,
		window:     w,
		spec:       spec,
		acf:        acf,
		frame:      make([]float64, TrackFrame),
		bins:       make([]complex128, TrackFrame/2+1),
		padded:     make([]float64, 2*TrackFrame),
		acfBins:    make([]complex128, TrackFrame+1),
		lags:       make([]float64, 2*TrackFrame),
		windowACF:  make([]float64, TrackFrame),
	}
	if !tr.autocorrelate(w, nil) {
		return nil, errors.New("window autocorrelation failed")
	}
	for i := range tr.windowACF {
		tr.windowACF[i] = tr.lags[i] / tr.lags[0]
	}
	return tr, nil
}

func (tr *tracker) analyse(x []float64) track {
	frames := 1 + (len(x)-TrackFrame)/TrackHop
	t := track{
		levelDB:  make([]float64, frames),
		spectrum: make([][]float64, frames),
		centroid: make([]float64, frames),
		pitch:    make([]float64, frames),
	}
	binHz := float64(tr.sampleRate) / TrackFrame
	for i := 0; i < frames; i++ {
		seg := x[i*TrackHop : i*TrackHop+TrackFrame]
		t.levelDB[i] = floored(linToDB(rms1(seg)))
		if t.levelDB[i] > t.levelDB[t.peak] {
			t.peak = i
		}

		for j, v := range seg {
			tr.frame[j] = v * tr.window[j]
		}
		if err := tr.spec.Forward(tr.bins, tr.frame); err != nil {
			continue
		}
		db := make([]float64, TrackFrame/2)
		var num, den float64
		for k := 1; k < len(db); k++ {
			mag := cmplx.Abs(tr.bins[k]) / TrackFrame
			db[k] = floored(linToDB(mag))
			num += float64(k) * binHz * mag
			den += mag
		}
		t.spectrum[i] = db
		if den > 0 {
			t.centroid[i] = num / den
		}
		t.pitch[i] = tr.pitchOf(seg)
	}
	for i := range t.pitch {
		if !t.active(i) {
			t.pitch[i] = 0
		}
	}
	return t
}

// autocorrelate fills lags with the autocorrelation of seg, taken as the
// inverse transform of its zero-padded power spectrum.
func (tr *tracker) autocorrelate(seg []float64, window []float64) bool {
	for i := range tr.padded {
		tr.padded[i] = 0
	}
	for i, v := range seg {
		if window != nil {
			v *= window[i]
		}
		tr.padded[i] = v
	}
	if err := tr.acf.Forward(tr.acfBins, tr.padded); err != nil {
		return false
	}
	for k, c := range tr.acfBins {
		tr.acfBins[k] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	return tr.acf.Inverse(tr.lags, tr.acfBins) == nil
}

// pitchOf picks the first strong peak of the windowed autocorrelation
// divided by the window's own autocorrelation.
func (tr *tracker) pitchOf(seg []float64) float64 {
	if !tr.autocorrelate(seg, tr.window) {
		return 0
	}
	r0 := tr.lags[0]
	if r0 <= 1e-20 {
		return 0
	}
	lo := int(float64(tr.sampleRate) / maxPitchHz)
	hi := min(int(float64(tr.sampleRate)/minPitchHz), TrackFrame/3)
	r := func(l int) float64 {
		return tr.lags[l] / r0 / tr.windowACF[l]
	}
	best := 0.0
	for l := lo; l <= hi; l++ {
		best = math.Max(best, r(l))
	}
	if best < voicedCorr {
		return 0
	}
	for l := lo + 1; l < hi; l++ {
		a, b, c := r(l-1), r(l), r(l+1)
		if b < 0.85*best || b < a || b < c {
			continue
		}
		shift := 0.0
		if d := a - 2*b + c; d != 0 {
			shift = 0.5 * (a - c) / d
		}
		return float64(tr.sampleRate) / (float64(l) + shift)
	}
	return 0
}

func envelopeDistance(a, b track) float64 {
	n := min(len(a.levelDB), len(b.levelDB))
	var sum float64
	for i := 0; i < n; i++ {
		d := a.levelDB[i] - b.levelDB[i]
		sum += d * d
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

func spectralDistance(a, b track) float64 {
	n := min(len(a.spectrum), len(b.spectrum))
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		if a.spectrum[i] == nil || b.spectrum[i] == nil || !(a.active(i) || b.active(i)) {
			continue
		}
		var fs float64
		for k := 1; k < len(a.spectrum[i]); k++ {
			d := a.spectrum[i][k] - b.spectrum[i][k]
			fs += d * d
		}
		sum += fs / float64(len(a.spectrum[i])-1)
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

func centroidDistance(a, b track) float64 {
	n := min(len(a.centroid), len(b.centroid))
	var diffs []float64
	for i := 0; i < n; i++ {
		if !a.active(i) || !b.active(i) || a.centroid[i] <= 0 || b.centroid[i] <= 0 {
			continue
		}
		diffs = append(diffs, 1200*math.Log2(a.centroid[i]/b.centroid[i]))
	}
	return rms1(diffs)
}

// pitchDistance is the cents error over frames voiced in both. A note that
// is voiced in only one signal scores a full octave.
func pitchDistance(a, b track) float64 {
	n := min(len(a.pitch), len(b.pitch))
	var diffs []float64
	onlyOne := false
	for i := 0; i < n; i++ {
		pa, pb := a.pitch[i], b.pitch[i]
		switch {
		case pa > 0 && pb > 0:
			diffs = append(diffs, 1200*math.Log2(pa/pb))
		case pa > 0 || pb > 0:
			onlyOne = true
		}
	}
	if len(diffs) == 0 && onlyOne {
		return 1200
	}
	return rms1(diffs)
}

// onset is the first sample within onsetDB of the peak, or -1 for silence.
func onset(x []float64) int {
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak <= 1e-9 {
		return -1
	}
	th := peak * math.Pow(10, onsetDB/20)
	for i, v := range x {
		if math.Abs(v) >= th {
			return i
		}
	}
	return -1
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func voiced(pitch []float64) []float64 {
	var out []float64
	for _, p := range pitch {
		if p > 0 {
			out = append(out, p)
		}
	}
	return out
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	if len(s)%2 == 1 {
		return s[len(s)/2]
	}
	return 0.5 * (s[len(s)/2-1] + s[len(s)/2])
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func floored(db float64) float64 {
	return math.Max(db, floorDB)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
