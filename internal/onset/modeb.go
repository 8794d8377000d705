package onset

import (
	"log/slog"
	"sort"

	"github.com/rhythmforge/rhythmcore/internal/beat"
	"github.com/rhythmforge/rhythmcore/internal/dsp"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

var modeBDrums = []rhythm.DrumType{rhythm.Kick, rhythm.Snare, rhythm.Clap, rhythm.HiHat, rhythm.Tom, rhythm.Perc}

// ModeB runs free onset detection per drum type over the isolated-drums
// waveform, resolves cross-drum collisions, and returns a merged,
// duplicate-suppressed hit list sorted by time.
func ModeB(drumsWaveform []float32, sampleRate int, logger *slog.Logger) ([]rhythm.DrumHit, error) {
	if logger == nil {
		logger = slog.Default()
	}

	perDrum := make(map[rhythm.DrumType][]float64, len(modeBDrums))
	stftParams := dsp.DefaultSTFTParams()

	for _, drum := range modeBDrums {
		band := modeBBandRange(drum, sampleRate)
		filter := dsp.Bandpass(band.low, band.high, float64(sampleRate), 4, logger)
		filtered := filter.Apply(drumsWaveform)

		envelope := beat.OnsetStrength(filtered, sampleRate, stftParams)
		waitFrames := int(modeBWaitMS(drum) / 1000.0 / envelope.HopSecs)
		if waitFrames < 1 {
			waitFrames = 1
		}
		peaks := beat.PeakPick(envelope.Values, 20, modeBDelta(drum), waitFrames)

		times := make([]float64, len(peaks))
		for i, p := range peaks {
			times[i] = envelope.TimeAt(p)
		}
		perDrum[drum] = times
	}

	resolveCollisions(perDrum)

	var hits []rhythm.DrumHit
	for drum, times := range perDrum {
		for _, t := range times {
			hits = append(hits, rhythm.DrumHit{Time: t, Type: drum})
		}
	}
	rhythm.SortHits(hits)
	return mergeNearby(hits, 0.030), nil
}

// resolveCollisions applies the cross-drum discard policy: tom onsets
// within 50ms of a kick are discarded; perc onsets within 30ms of a
// hi-hat or clap are discarded.
func resolveCollisions(perDrum map[rhythm.DrumType][]float64) {
	perDrum[rhythm.Tom] = filterNear(perDrum[rhythm.Tom], perDrum[rhythm.Kick], 0.050)

	hihatAndClap := append(append([]float64{}, perDrum[rhythm.HiHat]...), perDrum[rhythm.Clap]...)
	perDrum[rhythm.Perc] = filterNear(perDrum[rhythm.Perc], hihatAndClap, 0.030)
}

func filterNear(candidates, reference []float64, toleranceSec float64) []float64 {
	if len(reference) == 0 {
		return candidates
	}
	sortedRef := append([]float64(nil), reference...)
	sort.Float64s(sortedRef)

	var out []float64
	for _, t := range candidates {
		if !withinTolerance(t, sortedRef, toleranceSec) {
			out = append(out, t)
		}
	}
	return out
}

func withinTolerance(t float64, sortedRef []float64, tol float64) bool {
	idx := sort.SearchFloat64s(sortedRef, t)
	if idx < len(sortedRef) && absf(sortedRef[idx]-t) <= tol {
		return true
	}
	if idx > 0 && absf(sortedRef[idx-1]-t) <= tol {
		return true
	}
	return false
}

// mergeNearby suppresses duplicate hits of the same drum type that land
// within toleranceSec of each other, keeping the earlier one.
func mergeNearby(hits []rhythm.DrumHit, toleranceSec float64) []rhythm.DrumHit {
	var out []rhythm.DrumHit
	lastByType := make(map[rhythm.DrumType]float64)
	for _, h := range hits {
		if last, ok := lastByType[h.Type]; ok && h.Time-last < toleranceSec {
			continue
		}
		lastByType[h.Type] = h.Time
		out = append(out, h)
	}
	return out
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
