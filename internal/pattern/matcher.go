package pattern

import (
	"math"
	"sort"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// MatchResult pairs a library pattern with its score against an observed hit set.
type MatchResult struct {
	Pattern rhythm.Pattern
	Score   float64
}

// weightFor is the per-drum-type contribution to the weighted F1 score:
// kick and snare/clap carry the groove's identity, hi-hat/perc are
// texture.
func weightFor(d rhythm.DrumType) float64 {
	switch d {
	case rhythm.Kick:
		return 3.0
	case rhythm.Snare, rhythm.Clap:
		return 2.5
	case rhythm.Tom:
		return 1.5
	default:
		return 1.0
	}
}

const coverageBonusWeight = 0.2

// QuantizeToSteps snaps each hit onto the 16-step grid derived from grid,
// returning, per drum type, the set of steps it occupies.
func QuantizeToSteps(hits []rhythm.DrumHit, grid *rhythm.BeatGrid) map[rhythm.DrumType]map[int]bool {
	out := make(map[rhythm.DrumType]map[int]bool)
	stepDur := grid.StepDuration()
	if stepDur <= 0 {
		return out
	}
	anchor := grid.AnchorTime()

	for _, h := range hits {
		offset := h.Time - anchor
		step := int(math.Round(offset/stepDur)) % 16
		if step < 0 {
			step += 16
		}
		if out[h.Type] == nil {
			out[h.Type] = make(map[int]bool)
		}
		out[h.Type][step] = true
	}
	return out
}

// Match scores every pattern in library against the observed steps and
// returns the top 5 by score, highest first. It never errors: a hit set
// that shares no drum type with any pattern simply scores everything at 0.
func Match(hits []rhythm.DrumHit, grid *rhythm.BeatGrid, library []rhythm.Pattern) []MatchResult {
	observed := QuantizeToSteps(hits, grid)

	matches := make([]MatchResult, len(library))
	for i, p := range library {
		matches[i] = MatchResult{Pattern: p, Score: score(observed, p)}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

func score(observed map[rhythm.DrumType]map[int]bool, p rhythm.Pattern) float64 {
	var common int
	var weightedSum, weightTotal float64
	for d := range observed {
		if _, ok := p.Drums[d]; !ok {
			continue
		}
		common++

		obsSteps := observed[d]
		patSteps := toSet(p.Drums[d])

		tp := 0
		for s := range obsSteps {
			if patSteps[s] {
				tp++
			}
		}

		precision := 0.0
		if len(obsSteps) > 0 {
			precision = float64(tp) / float64(len(obsSteps))
		}
		recall := 0.0
		if len(patSteps) > 0 {
			recall = float64(tp) / float64(len(patSteps))
		}

		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		w := weightFor(d)
		weightedSum += f1 * w
		weightTotal += w
	}

	if weightTotal == 0 {
		return 0
	}

	base := weightedSum / weightTotal
	bonus := 0.0
	if len(observed) > 0 {
		bonus = float64(common) / float64(len(observed)) * coverageBonusWeight
	}
	total := base + bonus
	if total > 1 {
		total = 1
	}
	return total
}

func toSet(steps []int) map[int]bool {
	out := make(map[int]bool, len(steps))
	for _, s := range steps {
		out[s] = true
	}
	return out
}
