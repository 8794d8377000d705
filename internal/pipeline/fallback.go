package pipeline

import (
	"context"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// FallbackAnalyzer synthesizes a degraded result instead of running the
// real pipeline: a flat 120 BPM grid, no hits, analysis_method
// "fallback". It backs the orchestrator's documented failure policy when
// the real pipeline cannot run at all (undecodable input after retries
// are exhausted at a higher layer), mirroring the teacher's CPUFallback
// placeholder.
type FallbackAnalyzer struct {
	Duration float64 // seconds; defaults to 180 if zero
}

// Analyze ignores req.Audio entirely and returns the placeholder result.
func (f FallbackAnalyzer) Analyze(ctx context.Context, req Request) (*rhythm.AnalysisResult, error) {
	duration := f.Duration
	if duration <= 0 {
		duration = 180
	}

	const bpm = 120.0
	interval := 60.0 / bpm
	ts := req.TimeSignature
	if ts == 0 {
		ts = 4
	}

	var beats []float64
	for t := 0.0; t <= duration; t += interval {
		beats = append(beats, t)
	}
	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % ts) + 1}
	}

	return &rhythm.AnalysisResult{
		Beat: rhythm.BeatGrid{
			BPM: bpm, Confidence: 0, Beats: beats, Downbeats: downbeats, TimeSignature: ts,
		},
		Hits:           nil,
		Swing:          50,
		Genre:          "unknown",
		Method:         "fallback",
		AnalysisSource: "full_mix",
	}, nil
}

// Close is a no-op.
func (f FallbackAnalyzer) Close() error { return nil }
