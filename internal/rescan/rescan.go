// Package rescan implements the adaptive quiet-bar rescan (C10): bars
// whose energy falls well below the track median are re-probed with a
// lowered detection threshold, recovering soft hits Pass 1 missed.
package rescan

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rhythmforge/rhythmcore/internal/onset"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// DefaultSensitivityMultiplier is the divisor applied to each drum's
// Pass 1 threshold when re-probing a quiet bar.
const DefaultSensitivityMultiplier = 2.0

// quietBarFraction is the fraction of the track median bar energy below
// which a bar is considered quiet.
const quietBarFraction = 0.60

// sameTypeExclusionSec discards rescan candidates landing within this
// many seconds of an existing hit of the same drum type.
const sameTypeExclusionSec = 0.030

// BarReport records what the rescan did with one bar, for diagnostics.
type BarReport struct {
	BarIndex  int
	Energy    float64
	Median    float64
	Quiet     bool
	Recovered int
}

// Rescan re-probes quiet bars using the Pass 1 per-drum detection
// statistics and returns the newly recovered hits plus a per-bar report.
// existingHits is used only for same-type exclusion; it is never mutated.
func Rescan(
	waveform []float32,
	sampleRate int,
	grid *rhythm.BeatGrid,
	existingHits []rhythm.DrumHit,
	stats map[rhythm.DrumType]onset.DetectionStat,
	sensitivityMultiplier float64,
	logger *slog.Logger,
) ([]rhythm.DrumHit, []BarReport) {
	if logger == nil {
		logger = slog.Default()
	}
	if sensitivityMultiplier <= 0 {
		sensitivityMultiplier = DefaultSensitivityMultiplier
	}
	if grid == nil || len(grid.Beats) == 0 {
		return nil, nil
	}

	bars := barBoundaries(grid)
	barEnergies := make([]float64, len(bars))
	for i, b := range bars {
		barEnergies[i] = barRMS(waveform, sampleRate, b.start, b.end)
	}
	median := medianOf(barEnergies)

	existingByType := make(map[rhythm.DrumType][]float64)
	for _, h := range existingHits {
		existingByType[h.Type] = append(existingByType[h.Type], h.Time)
	}
	for d := range existingByType {
		sort.Float64s(existingByType[d])
	}

	var recovered []rhythm.DrumHit
	reports := make([]BarReport, len(bars))

	for i, b := range bars {
		quiet := median > 0 && barEnergies[i] < median*quietBarFraction
		reports[i] = BarReport{BarIndex: i, Energy: barEnergies[i], Median: median, Quiet: quiet}
		if !quiet {
			continue
		}

		for drum, ds := range stats {
			lowered := ds.Threshold / sensitivityMultiplier
			for j, t := range ds.Positions {
				if t < b.start || t >= b.end {
					continue
				}
				if ds.Energies[j] <= lowered {
					continue
				}
				if nearExisting(t, existingByType[drum]) {
					continue
				}
				recovered = append(recovered, rhythm.DrumHit{
					Time: t, Type: drum, SourceBar: i, Threshold: lowered,
				})
				reports[i].Recovered++
			}
		}
	}

	rhythm.SortHits(recovered)
	return recovered, reports
}

type barSpan struct{ start, end float64 }

// barBoundaries groups the beat grid into bars of TimeSignature beats
// each, extending the final bar to the end of the last beat interval.
func barBoundaries(grid *rhythm.BeatGrid) []barSpan {
	ts := grid.TimeSignature
	if ts <= 0 {
		ts = 4
	}
	var bars []barSpan
	beats := grid.Beats
	for i := 0; i < len(beats); i += ts {
		start := beats[i]
		end := start
		last := i + ts
		if last < len(beats) {
			end = beats[last]
		} else if len(beats) > 1 {
			step := beats[len(beats)-1] - beats[len(beats)-2]
			end = beats[len(beats)-1] + step*float64(ts-(len(beats)-1-i))
		} else {
			end = start
		}
		bars = append(bars, barSpan{start: start, end: end})
	}
	return bars
}

func barRMS(samples []float32, sampleRate int, start, end float64) float64 {
	startIdx := int(start * float64(sampleRate))
	endIdx := int(end * float64(sampleRate))
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(samples) {
		endIdx = len(samples)
	}
	if endIdx <= startIdx {
		return 0
	}
	var sum float64
	for i := startIdx; i < endIdx; i++ {
		v := float64(samples[i])
		sum += v * v
	}
	n := float64(endIdx - startIdx)
	return math.Sqrt(sum / n)
}

func nearExisting(t float64, sortedTimes []float64) bool {
	idx := sort.SearchFloat64s(sortedTimes, t)
	if idx < len(sortedTimes) && sortedTimes[idx]-t <= sameTypeExclusionSec {
		return true
	}
	if idx > 0 && t-sortedTimes[idx-1] <= sameTypeExclusionSec {
		return true
	}
	return false
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
