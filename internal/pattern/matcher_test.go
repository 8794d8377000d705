package pattern

import (
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func gridAt(bpm float64, beats int) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	times := make([]float64, beats)
	downbeats := make([]rhythm.Downbeat, beats)
	for i := range times {
		times[i] = float64(i) * interval
		downbeats[i] = rhythm.Downbeat{Time: times[i], Position: (i % 4) + 1}
	}
	return &rhythm.BeatGrid{BPM: bpm, Beats: times, Downbeats: downbeats, TimeSignature: 4}
}

func hitsFromSteps(grid *rhythm.BeatGrid, drum rhythm.DrumType, steps []int) []rhythm.DrumHit {
	stepDur := grid.StepDuration()
	anchor := grid.AnchorTime()
	var hits []rhythm.DrumHit
	for _, s := range steps {
		hits = append(hits, rhythm.DrumHit{Time: anchor + float64(s)*stepDur, Type: drum})
	}
	return hits
}

func TestMatchRanksExactPatternHighest(t *testing.T) {
	grid := gridAt(128, 16)
	var hits []rhythm.DrumHit
	hits = append(hits, hitsFromSteps(grid, rhythm.Kick, []int{0, 4, 8, 12})...)
	hits = append(hits, hitsFromSteps(grid, rhythm.HiHat, []int{0, 2, 4, 6, 8, 10, 12, 14})...)
	hits = append(hits, hitsFromSteps(grid, rhythm.Clap, []int{4, 12})...)

	matches := Match(hits, grid, Library)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Pattern.ID != "edm_four_on_floor" {
		t.Fatalf("expected edm_four_on_floor top match, got %s (score %f)", matches[0].Pattern.ID, matches[0].Score)
	}
	if len(matches) > 5 {
		t.Fatalf("expected at most 5 matches, got %d", len(matches))
	}
}

func TestMatchNeverErrorsOnDisjointTypes(t *testing.T) {
	grid := gridAt(128, 16)
	hits := hitsFromSteps(grid, rhythm.Tom, []int{1, 5, 9})
	matches := Match(hits, grid, Library)
	if len(matches) == 0 {
		t.Fatal("expected matches even with no type overlap")
	}
	for _, m := range matches {
		if m.Score < 0 || m.Score > 1 {
			t.Fatalf("score out of range: %f", m.Score)
		}
	}
}

func TestQuantizeToStepsWrapsModulo16(t *testing.T) {
	grid := gridAt(120, 32)
	hits := []rhythm.DrumHit{{Time: grid.AnchorTime() + grid.StepDuration()*17, Type: rhythm.Kick}}
	steps := QuantizeToSteps(hits, grid)
	if !steps[rhythm.Kick][1] {
		t.Fatalf("expected step 17 to wrap to step 1, got %v", steps[rhythm.Kick])
	}
}
