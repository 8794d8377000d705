// Package swing implements the swing estimator (C8): the median
// fractional position of off-beat hits within their beat interval,
// expressed as a percentage in [40,75].
package swing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// DefaultSwing is returned when fewer than two off-beat hits are found,
// representing a perfectly straight (non-swung) feel.
const DefaultSwing = 50

const (
	minSwing = 40
	maxSwing = 75

	// offbeatWindowLow/High bound how far from the exact halfway point
	// (50%) a hit may land and still count as an off-beat candidate,
	// rather than a near-beat hit that happens to fall inside the
	// interval.
	offbeatWindowLow  = 35.0
	offbeatWindowHigh = 75.0
)

// Estimate computes the swing percentage from hits falling between
// consecutive beats in grid. A result of 50 means straight timing; values
// above 50 push the off-beat later (a shuffled, swung feel).
func Estimate(hits []rhythm.DrumHit, grid *rhythm.BeatGrid) int {
	if grid == nil || len(grid.Beats) < 2 {
		return DefaultSwing
	}

	var fractions []float64
	for i := 0; i+1 < len(grid.Beats); i++ {
		start, end := grid.Beats[i], grid.Beats[i+1]
		dur := end - start
		if dur <= 0 {
			continue
		}
		for _, h := range hits {
			if h.Time <= start || h.Time >= end {
				continue
			}
			frac := (h.Time - start) / dur * 100
			if frac >= offbeatWindowLow && frac <= offbeatWindowHigh {
				fractions = append(fractions, frac)
			}
		}
	}

	if len(fractions) < 2 {
		return DefaultSwing
	}

	median := medianOf(fractions)
	rounded := int(median + 0.5)
	if rounded < minSwing {
		rounded = minSwing
	}
	if rounded > maxSwing {
		rounded = maxSwing
	}
	return rounded
}

// medianOf returns the 50th percentile of values via gonum's quantile
// estimator, which requires its input pre-sorted.
func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
