package onset

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rhythmforge/rhythmcore/internal/dsp"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// Sensitivities carries per-drum sensitivity knobs in [0,1] (§6 Step
// pass), defaulting to 0.5 (the standard pass's implicit midpoint).
type Sensitivities struct {
	Kick, Snare, HiHat, Clap float64
}

// DefaultSensitivities returns the standard pass's midpoint sensitivity
// for every drum (kick has no sensitivity knob — it always uses the 60th
// percentile per §4.6).
func DefaultSensitivities() Sensitivities {
	return Sensitivities{Kick: 0.5, Snare: 0.5, HiHat: 0.5, Clap: 0.5}
}

func (s Sensitivities) percentile(d rhythm.DrumType) float64 {
	switch d {
	case rhythm.Kick:
		return 60
	case rhythm.Snare:
		return 30 + s.Snare*30
	case rhythm.HiHat:
		return 40 + s.HiHat*40
	case rhythm.Clap:
		return 30 + s.Clap*30
	default:
		return 50
	}
}

// DetectionStat records the threshold and raw energies Mode A computed
// for one drum type, exposed for the step-by-step pass (§4.13 Pass 2).
type DetectionStat struct {
	Drum      rhythm.DrumType
	Threshold float64
	Energies  []float64
	Positions []float64
}

// ModeA runs beat-aligned probing over the percussive waveform and
// returns both the resulting hits and the per-drum detection statistics
// used by the step-by-step pass.
func ModeA(percussive []float32, sampleRate int, grid *rhythm.BeatGrid, sens Sensitivities, logger *slog.Logger) ([]rhythm.DrumHit, map[rhythm.DrumType]DetectionStat, error) {
	if logger == nil {
		logger = slog.Default()
	}

	filtered := make(map[modeABand][]float32, 3)
	for band, rng := range modeABandRanges {
		f := dsp.Bandpass(rng[0], rng[1], float64(sampleRate), 4, logger)
		filtered[band] = f.Apply(percussive)
	}

	var hits []rhythm.DrumHit
	stats := make(map[rhythm.DrumType]DetectionStat)

	for _, drum := range []rhythm.DrumType{rhythm.Kick, rhythm.Snare, rhythm.HiHat, rhythm.Clap} {
		positions := candidatePositions(drum, grid)
		band := modeADrumBand[drum]
		waveform := filtered[band]

		energies := make([]float64, len(positions))
		for i, t := range positions {
			energies[i] = windowRMS(waveform, sampleRate, t, 0.030)
		}

		pct := sens.percentile(drum)
		threshold := percentile(energies, pct)

		for i, t := range positions {
			if energies[i] > threshold {
				hits = append(hits, rhythm.DrumHit{
					Time:       t,
					Type:       drum,
					Confidence: 0, // filled in by the classifier stage
					Threshold:  threshold,
				})
			}
		}

		stats[drum] = DetectionStat{Drum: drum, Threshold: threshold, Energies: energies, Positions: positions}
	}

	rhythm.SortHits(hits)
	return hits, stats, nil
}

// candidatePositions returns the grid times Mode A probes for a given
// drum type: kicks at every beat and the 8th-note midpoints between
// them; snares/claps at beats 2 and 4; hi-hats at every 8th-note
// position.
func candidatePositions(drum rhythm.DrumType, grid *rhythm.BeatGrid) []float64 {
	var positions []float64
	beats := grid.Beats
	ts := grid.TimeSignature
	if ts == 0 {
		ts = 4
	}

	switch drum {
	case rhythm.Kick, rhythm.HiHat:
		for i, t := range beats {
			positions = append(positions, t)
			if i+1 < len(beats) {
				positions = append(positions, (t+beats[i+1])/2)
			}
		}
	case rhythm.Snare, rhythm.Clap:
		for i, t := range beats {
			pos := (i % ts) + 1
			if ts == 4 && (pos == 2 || pos == 4) {
				positions = append(positions, t)
			} else if ts != 4 && pos == 2 {
				positions = append(positions, t)
			}
		}
	}
	return positions
}

func windowRMS(samples []float32, sampleRate int, centerTime float64, windowSec float64) float64 {
	half := int(windowSec / 2 * float64(sampleRate))
	center := int(centerTime * float64(sampleRate))
	start := center - half
	end := center + half
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if end <= start {
		return 0
	}

	var sum float64
	for i := start; i < end; i++ {
		v := float64(samples[i])
		sum += v * v
	}
	return math.Sqrt(sum / float64(end-start))
}

// percentile returns the p-th percentile (0-100) of values via gonum's
// quantile estimator, which requires its input pre-sorted.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p/100.0, stat.Empirical, sorted, nil)
}
