// Package quantize implements the quantizer (C11): snapping hits onto
// the 16-step grid, applying the estimated swing offset to off-beat
// steps, and blending snapped and original timing by a strength factor.
package quantize

import (
	"math"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// Result is a quantized hit annotated with its grid address.
type Result struct {
	Hit rhythm.DrumHit
	Bar int
	Step int // 0-15 within the bar
}

// Quantize snaps every hit to the nearest 16th-note step, applies the
// swing offset to odd (off-beat) steps, and blends the result with the
// original time by strength in [0,1]. strength=0 leaves hits untouched;
// strength=1 fully snaps them.
func Quantize(hits []rhythm.DrumHit, grid *rhythm.BeatGrid, strength float64, swingPct int) []Result {
	return QuantizeWithStrengths(hits, grid, nil, strength, swingPct)
}

// QuantizeWithStrengths is Quantize with a per-drum-type strength
// override; perStrength entries take precedence over defaultStrength.
func QuantizeWithStrengths(hits []rhythm.DrumHit, grid *rhythm.BeatGrid, perStrength map[rhythm.DrumType]float64, defaultStrength float64, swingPct int) []Result {
	if grid == nil {
		return nil
	}
	stepDur := grid.StepDuration()
	if stepDur <= 0 {
		return nil
	}
	anchor := grid.AnchorTime()
	ts := grid.TimeSignature
	if ts <= 0 {
		ts = 4
	}
	stepsPerBar := ts * 4

	out := make([]Result, len(hits))
	for i, h := range hits {
		offset := h.Time - anchor
		rawStep := offset / stepDur
		step := int(math.Round(rawStep))

		snapped := anchor + float64(step)*stepDur
		if step%2 != 0 {
			snapped = swungOddStepTime(anchor, step, stepDur, swingPct)
		}

		strength := defaultStrength
		if perStrength != nil {
			if s, ok := perStrength[h.Type]; ok {
				strength = s
			}
		}
		if strength < 0 {
			strength = 0
		}
		if strength > 1 {
			strength = 1
		}

		blended := h
		blended.Time = h.Time*(1-strength) + snapped*strength

		bar := 0
		gridStep := step % stepsPerBar
		if step >= 0 {
			bar = step / stepsPerBar
		} else {
			bar = -((-step + stepsPerBar - 1) / stepsPerBar)
			gridStep = ((step % stepsPerBar) + stepsPerBar) % stepsPerBar
		}

		out[i] = Result{Hit: blended, Bar: bar, Step: gridStep}
	}
	return out
}

// swungOddStepTime computes the swung position of an odd (off-beat) 16th
// step: the straight step time shifted by (swingPct/100 - 0.5) steps, so
// 50 = straight.
func swungOddStepTime(anchor float64, step int, stepDur float64, swingPct int) float64 {
	offset := (float64(swingPct)/100.0 - 0.5) * stepDur
	return anchor + float64(step)*stepDur + offset
}
