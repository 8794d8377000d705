package beat

import (
	"log/slog"

	"github.com/rhythmforge/rhythmcore/internal/dsp"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

const expectedHitsPerBar = 8.0

// ApplyHalfTimeCorrection implements §4.5's two half-time rules, evaluated
// in order with Rule A short-circuiting Rule B. Returns a new grid; the
// input grid is never mutated.
func ApplyHalfTimeCorrection(grid *rhythm.BeatGrid, mono []float32, sampleRate int, logger *slog.Logger) (*rhythm.BeatGrid, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if grid.BPM < 95 && grid.Confidence < 0.5 {
		logger.Info("beat: half-time rule A triggered", "bpm", grid.BPM, "confidence", grid.Confidence)
		return doubleGrid(grid, 0.7), nil
	}

	if grid.BPM < 100 && grid.Confidence <= 0.7 {
		filter := dsp.Bandpass(5000, 15000, float64(sampleRate), 4, logger)
		filtered := filter.Apply(mono)
		envelope := OnsetStrength(filtered, sampleRate, dsp.DefaultSTFTParams())
		minGapFrames := int(0.03 / envelope.HopSecs)
		if minGapFrames < 1 {
			minGapFrames = 1
		}
		peaks := PeakPick(envelope.Values, 20, 1.5, minGapFrames)

		numBars := countBars(grid)
		if numBars > 0 {
			observedPerBar := float64(len(peaks)) / float64(numBars)
			if observedPerBar > 1.5*expectedHitsPerBar {
				logger.Info("beat: half-time rule B triggered",
					"bpm", grid.BPM, "confidence", grid.Confidence, "observed_per_bar", observedPerBar)
				return doubleGrid(grid, grid.Confidence), nil
			}
		}
	}

	return grid, nil
}

func countBars(grid *rhythm.BeatGrid) int {
	count := 0
	for _, d := range grid.Downbeats {
		if d.Position == 1 {
			count++
		}
	}
	return count
}

// doubleGrid doubles the tempo by inserting the midpoint between every
// pair of consecutive beats, rebuilding downbeat positions from scratch,
// and capping confidence at maxConfidence.
func doubleGrid(grid *rhythm.BeatGrid, maxConfidence float64) *rhythm.BeatGrid {
	beats := make([]float64, 0, len(grid.Beats)*2)
	for i, t := range grid.Beats {
		beats = append(beats, t)
		if i+1 < len(grid.Beats) {
			mid := (t + grid.Beats[i+1]) / 2
			beats = append(beats, mid)
		}
	}

	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % grid.TimeSignature) + 1}
	}

	confidence := grid.Confidence
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return &rhythm.BeatGrid{
		BPM:           grid.BPM * 2,
		Confidence:    confidence,
		Beats:         beats,
		Downbeats:     downbeats,
		TimeSignature: grid.TimeSignature,
	}
}
