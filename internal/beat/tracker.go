package beat

import (
	"fmt"
	"log/slog"

	"github.com/rhythmforge/rhythmcore/internal/dsp"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// Config bundles the beat tracker's tunables, with defaults matching the
// fallback onset-strength + histogram-clustering algorithm.
type Config struct {
	STFT          dsp.STFTParams
	TimeSignature int
	PeakWindow    int     // envelope frames on each side for adaptive threshold
	PeakK         float64 // threshold = mean + PeakK*stddev
}

// DefaultConfig returns the pipeline's standard beat tracker configuration.
func DefaultConfig() Config {
	return Config{
		STFT:          dsp.DefaultSTFTParams(),
		TimeSignature: 4,
		PeakWindow:    20,
		PeakK:         1.5,
	}
}

// Track runs the fallback onset-strength beat tracker over a mono
// waveform and returns a beat grid with half-time correction already
// applied. It returns rhythm.ErrBeatTrackFailure when too few onsets are
// found to estimate a tempo at all; the orchestrator is responsible for
// synthesizing the documented 120 BPM fallback grid in that case (§7).
func Track(mono []float32, sampleRate int, cfg Config, logger *slog.Logger) (*rhythm.BeatGrid, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TimeSignature == 0 {
		cfg.TimeSignature = 4
	}

	envelope := OnsetStrength(mono, sampleRate, cfg.STFT)
	minGapFrames := int(0.2 / envelope.HopSecs) // never pick peaks faster than ~300 BPM apart
	peaks := PeakPick(envelope.Values, cfg.PeakWindow, cfg.PeakK, minGapFrames)
	if len(peaks) < 4 {
		return nil, fmt.Errorf("%w: only %d onsets detected", rhythm.ErrBeatTrackFailure, len(peaks))
	}

	onsetTimes := make([]float64, len(peaks))
	for i, p := range peaks {
		onsetTimes[i] = envelope.TimeAt(p)
	}

	bpm, confidence := EstimateTempo(onsetTimes, 0)
	duration := float64(len(mono)) / float64(sampleRate)

	grid := buildGrid(onsetTimes, bpm, confidence, cfg.TimeSignature, duration)

	corrected, err := ApplyHalfTimeCorrection(grid, mono, sampleRate, logger)
	if err != nil {
		logger.Warn("beat: half-time correction skipped", "error", err)
		corrected = grid
	}

	if corrected.BPM < minBPM {
		corrected.BPM = minBPM
	}
	if corrected.BPM > maxBPM {
		corrected.BPM = maxBPM
	}

	return corrected, nil
}

// buildGrid constructs a constant-tempo beat grid anchored at the first
// detected onset, extended for the full waveform duration.
func buildGrid(onsetTimes []float64, bpm, confidence float64, timeSignature int, duration float64) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	anchor := 0.0
	if len(onsetTimes) > 0 {
		anchor = onsetTimes[0]
		// Pull the anchor back to the nearest grid line before time 0 so
		// the grid covers the whole buffer, not just from the first onset.
		for anchor-interval >= 0 {
			anchor -= interval
		}
	}

	var beats []float64
	for t := anchor; t <= duration+interval; t += interval {
		if t >= 0 {
			beats = append(beats, t)
		}
	}

	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % timeSignature) + 1}
	}

	return &rhythm.BeatGrid{
		BPM:           bpm,
		Confidence:    confidence,
		Beats:         beats,
		Downbeats:     downbeats,
		TimeSignature: timeSignature,
	}
}
