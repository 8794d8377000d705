// Package pipeline implements the orchestrator (C13): it strings the
// audio loader, beat tracker, HPSS, onset/hit detector, classifier,
// swing estimator, genre heuristic, pattern matcher, and adaptive rescan
// into the three published analysis passes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rhythmforge/rhythmcore/internal/beat"
	"github.com/rhythmforge/rhythmcore/internal/classify"
	"github.com/rhythmforge/rhythmcore/internal/dsp"
	"github.com/rhythmforge/rhythmcore/internal/features"
	"github.com/rhythmforge/rhythmcore/internal/genre"
	"github.com/rhythmforge/rhythmcore/internal/onset"
	"github.com/rhythmforge/rhythmcore/internal/oracle"
	"github.com/rhythmforge/rhythmcore/internal/pattern"
	"github.com/rhythmforge/rhythmcore/internal/rescan"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
	"github.com/rhythmforge/rhythmcore/internal/swing"
)

// PassKind selects which of the three published analysis passes a
// Request runs.
type PassKind int

const (
	PassStandard PassKind = iota
	PassStep
	PassAdaptive
)

// Request is the request-scoped configuration for one analysis call
// (§6). Audio is the raw, undecoded byte stream.
type Request struct {
	Audio    []byte
	Filename string
	Pass     PassKind

	UseStem            bool
	ApplyPatternFilter  bool
	PatternToleranceMS  float64

	Sensitivities    onset.Sensitivities
	SensitivityBoost float64

	TimeSignature int
}

// StepResult is the extra detail the step-by-step pass (Pass 2) exposes
// for an interactive verification UI.
type StepResult struct {
	Result *rhythm.AnalysisResult
	Stats  map[rhythm.DrumType]onset.DetectionStat
}

// AdaptiveResult is the extra detail the adaptive rescan pass (Pass 3)
// exposes: the bar-energy map and which bars were recovered.
type AdaptiveResult struct {
	Result *rhythm.AnalysisResult
	Bars   []rescan.BarReport
}

// Analyzer is the narrow orchestration interface every pass, and every
// transport built on this module, talks to.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*rhythm.AnalysisResult, error)
	Close() error
}

const (
	defaultStemTimeout      = 300 * time.Second
	defaultStemMaxRetries   = 2
	defaultPatternToleranceMS = 100.0
	defaultSensitivityBoost = 2.0
)

// Pipeline is the real Analyzer implementation (C13).
type Pipeline struct {
	stem    StemSeparator
	oracle  oracle.Oracle
	library []rhythm.Pattern
	logger  *slog.Logger
}

// New builds a Pipeline. A nil stem separator disables the stem path
// (use_stem requests silently continue on the full mix); a nil oracle
// defaults to oracle.NopOracle.
func New(stem StemSeparator, llmOracle oracle.Oracle, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if llmOracle == nil {
		llmOracle = oracle.NopOracle{}
	}
	return &Pipeline{stem: stem, oracle: llmOracle, library: pattern.Library, logger: logger}
}

// Close releases pipeline-owned resources. The DSP stages hold nothing
// beyond call-scoped buffers, so this is currently a no-op.
func (p *Pipeline) Close() error { return nil }

// Analyze runs the requested pass end to end.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*rhythm.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := req.TimeSignature
	if ts == 0 {
		ts = 4
	}

	wf, err := decodeWithContext(ctx, req.Audio, req.Filename, p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	mono := wf.Mono()

	grid, method := p.trackBeat(mono, wf.SampleRate, ts)

	drumsSource, analysisSource := mono, "full_mix"
	if req.UseStem && p.stem != nil {
		drums, serr := separateWithRetry(ctx, p.stem, mono, wf.SampleRate, p.logger)
		if serr != nil {
			p.logger.Warn("pipeline: stem separation unavailable, continuing on full mix", "error", serr)
		} else {
			drumsSource, analysisSource = drums, "drums_stem"
		}
	}

	variant := classify.VariantFullMix
	if analysisSource == "drums_stem" {
		variant = classify.VariantDrumsStem
	}

	var percussive []float32
	var hits []rhythm.DrumHit
	var stats map[rhythm.DrumType]onset.DetectionStat

	if analysisSource == "drums_stem" {
		// The stem is already an isolated drums waveform, so Mode B's
		// per-drum free onset detection runs directly on it instead of
		// Mode A's beat-grid probing.
		hits, err = onset.ModeB(drumsSource, wf.SampleRate, p.logger)
		if err != nil {
			return nil, fmt.Errorf("pipeline: mode b detection: %w", err)
		}
		method += "+mode_b"
	} else {
		percussive, method = p.hpss(drumsSource, wf.SampleRate, method)

		sens := req.Sensitivities
		if sens == (onset.Sensitivities{}) {
			sens = onset.DefaultSensitivities()
		}
		hits, stats, err = onset.ModeA(percussive, wf.SampleRate, grid, sens, p.logger)
		if err != nil {
			return nil, fmt.Errorf("pipeline: mode a detection: %w", err)
		}
	}

	classifyHits(hits, drumsSource, wf.SampleRate, grid, variant)

	if req.Pass == PassAdaptive {
		if stats == nil {
			p.logger.Warn("pipeline: adaptive rescan needs mode a detection stats, skipping for drums-stem pass")
		} else {
			boost := req.SensitivityBoost
			if boost <= 0 {
				boost = defaultSensitivityBoost
			}
			recovered, _ := rescan.Rescan(percussive, wf.SampleRate, grid, hits, stats, boost, p.logger)
			classifyHits(recovered, drumsSource, wf.SampleRate, grid, variant)
			hits = mergeDedup(hits, recovered)
			method += "+adaptive_rescan"
		}
	}

	rhythm.SortHits(hits)

	swingPct := swing.Estimate(hits, grid)
	genreName, _ := genre.Classify(grid, hits, swingPct)

	hitsBefore := len(hits)
	finalHits := hits
	if req.ApplyPatternFilter {
		tol := req.PatternToleranceMS
		if tol <= 0 {
			tol = defaultPatternToleranceMS
		}
		filtered, ferr := filterByBestPattern(hits, grid, p.library, tol)
		if ferr != nil {
			p.logger.Warn("pipeline: pattern filter failed, returning unfiltered hits", "error", ferr)
		} else {
			finalHits = filtered
			method += "+pattern_filter"
		}
	}

	return &rhythm.AnalysisResult{
		Beat:             *grid,
		Hits:             finalHits,
		Swing:            swingPct,
		Genre:            genreName,
		Method:           method,
		HitsBeforeFilter: hitsBefore,
		HitsAfterFilter:  len(finalHits),
		AnalysisSource:   analysisSource,
	}, nil
}

// Step runs Pass 2 and additionally exposes the per-drum detection
// statistics a step-by-step verification UI needs.
func (p *Pipeline) Step(ctx context.Context, req Request) (*StepResult, error) {
	req.Pass = PassStep
	wf, err := decodeWithContext(ctx, req.Audio, req.Filename, p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	mono := wf.Mono()
	ts := req.TimeSignature
	if ts == 0 {
		ts = 4
	}
	grid, method := p.trackBeat(mono, wf.SampleRate, ts)
	percussive, method := p.hpss(mono, wf.SampleRate, method)

	sens := req.Sensitivities
	if sens == (onset.Sensitivities{}) {
		sens = onset.DefaultSensitivities()
	}
	hits, stats, err := onset.ModeA(percussive, wf.SampleRate, grid, sens, p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: mode a detection: %w", err)
	}
	classifyHits(hits, mono, wf.SampleRate, grid, classify.VariantFullMix)
	rhythm.SortHits(hits)

	swingPct := swing.Estimate(hits, grid)
	genreName, _ := genre.Classify(grid, hits, swingPct)

	return &StepResult{
		Result: &rhythm.AnalysisResult{
			Beat: *grid, Hits: hits, Swing: swingPct, Genre: genreName,
			Method: method, HitsBeforeFilter: len(hits), HitsAfterFilter: len(hits),
			AnalysisSource: "full_mix",
		},
		Stats: stats,
	}, nil
}

func (p *Pipeline) trackBeat(mono []float32, sampleRate, ts int) (*rhythm.BeatGrid, string) {
	cfg := beat.DefaultConfig()
	cfg.TimeSignature = ts
	grid, err := beat.Track(mono, sampleRate, cfg, p.logger)
	if err != nil {
		p.logger.Warn("pipeline: beat tracking failed, synthesizing fallback grid", "error", err)
		return fallbackGrid(len(mono), sampleRate, ts), "fallback_grid"
	}
	return grid, "librosa+full_mix"
}

func (p *Pipeline) hpss(waveform []float32, sampleRate int, method string) ([]float32, string) {
	percussive, err := dsp.Percussive(waveform, sampleRate, dsp.DefaultHPSSParams())
	if err != nil {
		p.logger.Warn("pipeline: hpss failed, using raw waveform", "error", err)
		return waveform, method + "+hpss_fallback"
	}
	return percussive, method
}

// classifyHits runs the classifier over every hit's feature window and
// overwrites its type and confidence with the classifier's verdict,
// refining the band-based type Mode A/rescan assigned.
func classifyHits(hits []rhythm.DrumHit, waveform []float32, sampleRate int, grid *rhythm.BeatGrid, variant classify.Variant) {
	for i := range hits {
		fv := features.Extract(waveform, sampleRate, hits[i].Time)
		phase := phaseContextFor(hits[i].Time, grid)
		drumType, conf := classify.Classify(fv, variant, phase)
		hits[i].Type = drumType
		hits[i].Confidence = conf
		hits[i].Features = &fv
	}
}

// phaseContextFor locates the beat interval containing t and derives the
// pattern-boosting phase flags the classifier uses.
func phaseContextFor(t float64, grid *rhythm.BeatGrid) *classify.PhaseContext {
	if grid == nil || len(grid.Beats) < 2 {
		return nil
	}
	idx := -1
	for i := 0; i+1 < len(grid.Beats); i++ {
		if t >= grid.Beats[i] && t < grid.Beats[i+1] {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	interval := grid.Beats[idx+1] - grid.Beats[idx]
	if interval <= 0 {
		return nil
	}
	frac := (t - grid.Beats[idx]) / interval

	pos := 1
	if idx < len(grid.Downbeats) {
		pos = grid.Downbeats[idx].Position
	}
	backbeat := pos == 2 || pos == 4

	return &classify.PhaseContext{
		OnBeat:   frac < 0.15 || frac > 0.85,
		OffBeat:  frac >= 0.35 && frac <= 0.65,
		Backbeat: backbeat && (frac < 0.15 || frac > 0.85),
	}
}

// mergeDedup merges two already-sorted-by-construction hit slices,
// sorts the union, and de-duplicates within 30ms per drum type (§4.13
// Pass 3).
func mergeDedup(a, b []rhythm.DrumHit) []rhythm.DrumHit {
	union := make([]rhythm.DrumHit, 0, len(a)+len(b))
	union = append(union, a...)
	union = append(union, b...)
	rhythm.SortHits(union)

	var out []rhythm.DrumHit
	lastByType := make(map[rhythm.DrumType]float64)
	for _, h := range union {
		if last, ok := lastByType[h.Type]; ok && h.Time-last < 0.030 {
			continue
		}
		lastByType[h.Type] = h.Time
		out = append(out, h)
	}
	return out
}

// fallbackGrid synthesizes the documented 120 BPM degraded grid (§7) when
// beat tracking cannot establish a tempo at all.
func fallbackGrid(numSamples, sampleRate, ts int) *rhythm.BeatGrid {
	const bpm = 120.0
	interval := 60.0 / bpm
	duration := float64(numSamples) / float64(sampleRate)

	var beats []float64
	for t := 0.0; t <= duration; t += interval {
		beats = append(beats, t)
	}
	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % ts) + 1}
	}
	return &rhythm.BeatGrid{BPM: bpm, Confidence: 0.2, Beats: beats, Downbeats: downbeats, TimeSignature: ts}
}

func filterByBestPattern(hits []rhythm.DrumHit, grid *rhythm.BeatGrid, library []rhythm.Pattern, toleranceMS float64) ([]rhythm.DrumHit, error) {
	matches := pattern.Match(hits, grid, library)
	if len(matches) == 0 {
		return hits, nil
	}
	best := matches[0].Pattern
	stepDur := grid.StepDuration()
	if stepDur <= 0 {
		return hits, fmt.Errorf("pipeline: pattern filter: %w", rhythm.ErrInvariantViolation)
	}
	anchor := grid.AnchorTime()
	tolSec := toleranceMS / 1000.0
	barDur := 16 * stepDur

	var out []rhythm.DrumHit
	for _, h := range hits {
		steps, ok := best.Drums[h.Type]
		if !ok {
			continue
		}
		for _, s := range steps {
			// The pattern covers one bar; compare against the nearest repeat.
			base := anchor + float64(s)*stepDur
			expected := base + math.Round((h.Time-base)/barDur)*barDur
			if h.Time >= expected-tolSec && h.Time <= expected+tolSec {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}
