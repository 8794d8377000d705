// Package genre implements the genre heuristic (C12): a weighted scoring
// pass over BPM, swing, and kick density against a small set of named
// style profiles.
package genre

import "github.com/rhythmforge/rhythmcore/internal/rhythm"

// Unknown is returned when no profile clears the confidence floor.
const Unknown = "unknown"

const confidenceFloor = 0.5

type profile struct {
	name               string
	bpmMin, bpmMax     float64
	swingMin, swingMax int
	kickPerBar         float64
}

var profiles = []profile{
	{name: "edm", bpmMin: 118, bpmMax: 138, swingMin: 46, swingMax: 54, kickPerBar: 4},
	{name: "afro_house", bpmMin: 115, bpmMax: 130, swingMin: 55, swingMax: 64, kickPerBar: 3},
	{name: "trap", bpmMin: 60, bpmMax: 180, swingMin: 48, swingMax: 56, kickPerBar: 2},
	{name: "pop", bpmMin: 85, bpmMax: 135, swingMin: 48, swingMax: 54, kickPerBar: 2},
	{name: "hip_hop", bpmMin: 80, bpmMax: 120, swingMin: 52, swingMax: 62, kickPerBar: 2},
	{name: "kpop", bpmMin: 95, bpmMax: 145, swingMin: 48, swingMax: 52, kickPerBar: 4},
}

// Classify scores every profile against grid/hits/swingPct and returns the
// best-matching genre name and its score, or Unknown when the best score
// falls below the confidence floor.
func Classify(grid *rhythm.BeatGrid, hits []rhythm.DrumHit, swingPct int) (string, float64) {
	bars := barCount(grid)
	kickPerBar := 0.0
	if bars > 0 {
		kickPerBar = float64(countType(hits, rhythm.Kick)) / bars
	}

	best := Unknown
	bestScore := 0.0
	for _, p := range profiles {
		s := p.score(grid.BPM, swingPct, kickPerBar)
		if s > bestScore {
			best, bestScore = p.name, s
		}
	}

	if bestScore < confidenceFloor {
		return Unknown, bestScore
	}
	return best, bestScore
}

func (p profile) score(bpm float64, swingPct int, kickPerBar float64) float64 {
	bpmScore := rangeScore(bpm, p.bpmMin, p.bpmMax, 20)
	swingScore := rangeScore(float64(swingPct), float64(p.swingMin), float64(p.swingMax), 10)
	kickScore := 1 - absf(kickPerBar-p.kickPerBar)/p.kickPerBar
	if kickScore < 0 {
		kickScore = 0
	}
	return 0.5*bpmScore + 0.3*swingScore + 0.2*kickScore
}

// rangeScore is 1 inside [lo,hi] and decays linearly to 0 over decayWidth
// beyond either edge.
func rangeScore(v, lo, hi, decayWidth float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	var dist float64
	if v < lo {
		dist = lo - v
	} else {
		dist = v - hi
	}
	score := 1 - dist/decayWidth
	if score < 0 {
		return 0
	}
	return score
}

func barCount(grid *rhythm.BeatGrid) float64 {
	ts := grid.TimeSignature
	if ts <= 0 {
		ts = 4
	}
	return float64(len(grid.Beats)) / float64(ts)
}

func countType(hits []rhythm.DrumHit, d rhythm.DrumType) int {
	n := 0
	for _, h := range hits {
		if h.Type == d {
			n++
		}
	}
	return n
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
