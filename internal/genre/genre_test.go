package genre

import (
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func gridWithBars(bpm float64, bars int) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	var times []float64
	for i := 0; i < bars*4; i++ {
		times = append(times, float64(i)*interval)
	}
	return &rhythm.BeatGrid{BPM: bpm, Beats: times, TimeSignature: 4}
}

func kicksEveryBeat(grid *rhythm.BeatGrid) []rhythm.DrumHit {
	var hits []rhythm.DrumHit
	for _, t := range grid.Beats {
		hits = append(hits, rhythm.DrumHit{Time: t, Type: rhythm.Kick})
	}
	return hits
}

func TestClassifyEDMFourOnFloor(t *testing.T) {
	grid := gridWithBars(128, 16)
	genreName, score := Classify(grid, kicksEveryBeat(grid), 50)
	if genreName != "edm" {
		t.Fatalf("expected edm, got %s (score %f)", genreName, score)
	}
}

func TestClassifyFallsBackToUnknown(t *testing.T) {
	grid := gridWithBars(200, 8)
	genreName, score := Classify(grid, nil, 90)
	if genreName != Unknown {
		t.Fatalf("expected unknown for an out-of-range profile, got %s (score %f)", genreName, score)
	}
}

func TestClassifyAfroHouseSwung(t *testing.T) {
	grid := gridWithBars(122, 16)
	var hits []rhythm.DrumHit
	for bar := 0; bar < 16; bar++ {
		hits = append(hits, rhythm.DrumHit{Time: grid.Beats[bar*4], Type: rhythm.Kick})
		hits = append(hits, rhythm.DrumHit{Time: grid.Beats[bar*4+2], Type: rhythm.Kick})
		hits = append(hits, rhythm.DrumHit{Time: grid.Beats[bar*4+3], Type: rhythm.Kick})
	}
	genreName, _ := Classify(grid, hits, 58)
	if genreName != "afro_house" {
		t.Fatalf("expected afro_house, got %s", genreName)
	}
}
