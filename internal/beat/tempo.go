package beat

import "sort"

const (
	minBPM = 50.0
	maxBPM = 220.0
)

// tempoCandidate is one BPM hypothesis with a support score derived from
// the inter-onset-interval histogram.
type tempoCandidate struct {
	bpm   float64
	score float64
}

// EstimateTempo clusters inter-onset intervals from onset times into BPM
// candidates (a histogram over 1-BPM-wide buckets across [minBPM,maxBPM]),
// then scores each candidate with a grid-alignment bonus (intervals that
// are near-integer multiples of the candidate period), in the idiom of this
// codebase's interval-clustering BPM detector. Candidates outside
// [minBPM,maxBPM] are discarded; there is no further range bonus. Returns the best BPM and a confidence in [0,1] derived from
// how dominant the winning bucket is relative to the runner-up.
func EstimateTempo(onsetTimes []float64, previousBPM float64) (bpm, confidence float64) {
	if len(onsetTimes) < 2 {
		return 120, 0
	}

	var intervals []float64
	for i := 1; i < len(onsetTimes); i++ {
		iv := onsetTimes[i] - onsetTimes[i-1]
		if iv > 0 {
			intervals = append(intervals, iv)
		}
	}
	if len(intervals) == 0 {
		return 120, 0
	}

	buckets := make(map[int]float64)
	for _, iv := range intervals {
		candidateBPM := 60.0 / iv
		for _, mult := range []float64{0.5, 1, 2, 4} {
			b := candidateBPM * mult
			if b < minBPM || b > maxBPM {
				continue
			}
			bucket := int(b + 0.5)
			buckets[bucket] += gridAlignmentWeight(intervals, 60.0/b)
		}
	}

	if len(buckets) == 0 {
		return 120, 0
	}

	candidates := make([]tempoCandidate, 0, len(buckets))
	for b, score := range buckets {
		c := tempoCandidate{bpm: float64(b), score: score}
		if previousBPM > 0 {
			// Hysteresis: mildly favor continuity with the previous call's
			// tempo so a single noisy window doesn't flip octaves.
			ratio := c.bpm / previousBPM
			if ratio > 0.97 && ratio < 1.03 {
				c.score *= 1.15
			}
		}
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	best := candidates[0]
	var runnerUp float64
	if len(candidates) > 1 {
		runnerUp = candidates[1].score
	}

	total := 0.0
	for _, c := range candidates {
		total += c.score
	}
	confidence = best.score / total
	if best.score > 0 && runnerUp > 0 && best.score > runnerUp*1.5 {
		confidence = clamp01(confidence * 1.2)
	}

	return best.bpm, clamp01(confidence)
}

// gridAlignmentWeight rewards an interval that is a near-integer multiple
// (within 6%) of the candidate's beat period, and penalizes intervals
// that fall between grid positions.
func gridAlignmentWeight(intervals []float64, period float64) float64 {
	var weight float64
	for _, iv := range intervals {
		ratio := iv / period
		nearest := float64(int(ratio + 0.5))
		if nearest < 1 {
			nearest = 1
		}
		deviation := abs(ratio/nearest - 1.0)
		if deviation < 0.06 {
			weight += 1.0 - deviation*10
		}
	}
	return weight
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
