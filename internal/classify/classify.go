// Package classify implements the rule-based drum classifier (C7): two
// variants scoring a feature vector into a (drum type, confidence) pair.
package classify

import "github.com/rhythmforge/rhythmcore/internal/rhythm"

// Variant selects which scoring table to apply.
type Variant int

const (
	// VariantFullMix scores features the way they look bled into a full
	// mix, where bass and synths contaminate the low bands.
	VariantFullMix Variant = iota
	// VariantDrumsStem scores features the way they look in an isolated
	// drums stem, where band dominance is a direct signal.
	VariantDrumsStem
)

// PhaseContext carries the rhythmic position of an onset relative to the
// beat grid, used for the pattern-boosting term in §4.7. A nil context
// (unknown phase) disables boosting.
type PhaseContext struct {
	OnBeat   bool // onset lands on (at) a beat
	OffBeat  bool // onset lands off the beat (roughly halfway between beats)
	Backbeat bool // onset lands on the nearest backbeat (beat 2 or 4 in 4/4)
}

// Classify scores fv against every drum type for the given variant,
// applies the optional pattern boost, and returns the winning type with
// its confidence in [0,0.95].
func Classify(fv rhythm.FeatureVector, variant Variant, phase *PhaseContext) (rhythm.DrumType, float64) {
	scores := rawScores(fv, variant)
	if phase != nil {
		applyPatternBoost(scores, *phase)
	}

	best, runnerUp := rhythm.Kick, rhythm.Kick
	bestScore, runnerUpScore := -1.0, -1.0
	var total float64
	for _, d := range rhythm.AllDrumTypes {
		s := scores[d]
		if s < 0 {
			s = 0
		}
		total += s
		if s > bestScore {
			runnerUp, runnerUpScore = best, bestScore
			best, bestScore = d, s
		} else if s > runnerUpScore {
			runnerUp, runnerUpScore = d, s
		}
	}
	_ = runnerUp

	if total <= 0 {
		return rhythm.Perc, 0
	}

	confidence := bestScore / total
	if bestScore > runnerUpScore*1.5 {
		confidence *= 1.3
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}

func rawScores(fv rhythm.FeatureVector, variant Variant) map[rhythm.DrumType]float64 {
	switch variant {
	case VariantDrumsStem:
		return scoresVariantD(fv)
	default:
		return scoresVariantF(fv)
	}
}

func scoresVariantF(fv rhythm.FeatureVector) map[rhythm.DrumType]float64 {
	lowDominance := fv.SubBassRatio + fv.BassRatio
	highDominance := fv.HighMidRatio + fv.HighRatio + fv.HiHatRatio

	kick := 0.5
	if fv.Centroid > 0.30 {
		kick -= 0.4
	}
	if fv.Centroid < 0.22 && lowDominance > 0.50 {
		kick += 0.6
	}

	hihat := 0.3
	if fv.Centroid > 0.45 {
		hihat += 0.3
	}
	if fv.DecayMS < 12 {
		hihat += 0.2
	}
	if highDominance > 0.35 {
		hihat += 0.3
	}
	if lowDominance > 0.40 {
		hihat -= 0.3
	}

	snare := 0.3
	if fv.Flatness > 0.28 {
		snare += 0.2
	}
	if fv.ZCR > 0.07 {
		snare += 0.2
	}
	if fv.Centroid >= 0.22 && fv.Centroid <= 0.48 {
		snare += 0.2
	}
	if fv.MidRatio > 0.22 {
		snare += 0.2
	}

	clap := 0.2
	if fv.Flatness > 0.42 {
		clap += 0.3
	}
	if fv.ZCR > 0.10 {
		clap += 0.3
	}
	if fv.Centroid >= 0.25 && fv.Centroid <= 0.45 {
		clap += 0.3
	}

	tom := 0.1
	if fv.Flatness < 0.22 && fv.DecayMS > 30 && fv.Centroid >= 0.15 && fv.Centroid <= 0.35 {
		tom += 0.7
	}

	perc := 0.25

	return map[rhythm.DrumType]float64{
		rhythm.Kick: kick, rhythm.HiHat: hihat, rhythm.Snare: snare,
		rhythm.Clap: clap, rhythm.Tom: tom, rhythm.Perc: perc,
	}
}

func scoresVariantD(fv rhythm.FeatureVector) map[rhythm.DrumType]float64 {
	lowRatio := fv.SubBassRatio + fv.BassRatio
	highRatio := fv.HighMidRatio + fv.HighRatio + fv.HiHatRatio

	kick := 0.3
	if lowRatio > 0.35 || fv.Centroid < 0.20 {
		kick += 0.6
	}

	hihat := 0.3
	if highRatio > 0.25 || fv.Centroid > 0.50 {
		hihat += 0.5
	}
	if fv.DecayMS < 12 {
		hihat += 0.2
	}

	snare := 0.2
	if fv.Flatness > 0.30 && fv.ZCR > 0.08 && fv.MidRatio > 0.20 {
		snare += 0.7
	}

	clap := 0.2
	if fv.Flatness > 0.45 && fv.ZCR > 0.12 {
		clap += 0.7
	}

	tom := 0.1
	if fv.Flatness < 0.22 && fv.DecayMS > 30 && fv.Centroid >= 0.15 && fv.Centroid <= 0.35 {
		tom += 0.7
	}

	perc := 0.25

	return map[rhythm.DrumType]float64{
		rhythm.Kick: kick, rhythm.HiHat: hihat, rhythm.Snare: snare,
		rhythm.Clap: clap, rhythm.Tom: tom, rhythm.Perc: perc,
	}
}

const patternBoost = 0.2

func applyPatternBoost(scores map[rhythm.DrumType]float64, phase PhaseContext) {
	if phase.OnBeat {
		scores[rhythm.Kick] += patternBoost
	}
	if phase.OffBeat {
		scores[rhythm.HiHat] += patternBoost
	}
	if phase.Backbeat {
		scores[rhythm.Snare] += patternBoost
		scores[rhythm.Clap] += patternBoost
	}
}
