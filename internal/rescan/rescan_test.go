package rescan

import (
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/onset"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func testGrid(bpm float64, beats int) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	times := make([]float64, beats)
	for i := range times {
		times[i] = float64(i) * interval
	}
	return &rhythm.BeatGrid{BPM: bpm, Beats: times, TimeSignature: 4}
}

func TestRescanRecoversOnlyInQuietBars(t *testing.T) {
	const sr = 44100
	grid := testGrid(120, 16) // 4 bars of 4 beats

	// Bar 1 silent, bars 0, 2 and 3 loud: quietness is measured against the
	// median bar energy, so most bars must be loud for one to count as quiet.
	n := int(grid.Beats[len(grid.Beats)-1]*float64(sr)) + sr
	waveform := make([]float32, n)
	barDur := 60.0 / 120 * 4
	for i := range waveform {
		if i < int(barDur*sr) || i >= int(2*barDur*sr) {
			waveform[i] = 0.8
		}
	}

	stats := map[rhythm.DrumType]onset.DetectionStat{
		rhythm.Kick: {
			Drum:      rhythm.Kick,
			Threshold: 0.5,
			Positions: []float64{0.5, barDur + 0.5, 2*barDur + 0.5},
			Energies:  []float64{0.01, 0.3, 0.3},
		},
	}

	recovered, reports := Rescan(waveform, sr, grid, nil, stats, DefaultSensitivityMultiplier, nil)
	if len(reports) != 4 {
		t.Fatalf("expected 4 bar reports, got %d", len(reports))
	}
	if reports[0].Quiet {
		t.Fatal("bar 0 should not be quiet")
	}
	if !reports[1].Quiet {
		t.Fatal("bar 1 should be quiet")
	}
	if len(recovered) == 0 {
		t.Fatal("expected recovered hits in quiet bars")
	}
	for _, h := range recovered {
		if h.Time < barDur {
			t.Fatalf("recovered a hit from the loud bar: %v", h)
		}
	}
}

func TestRescanExcludesNearExistingSameType(t *testing.T) {
	const sr = 44100
	grid := testGrid(120, 12) // 3 bars of 4 beats
	n := int(grid.Beats[len(grid.Beats)-1]*float64(sr)) + sr
	waveform := make([]float32, n)
	// Bar 0 (holding the candidate) silent, bars 1 and 2 loud, so bar 0 is
	// quiet and its candidate is actually probed.
	for i := 2 * sr; i < n; i++ {
		waveform[i] = 0.8
	}

	stats := map[rhythm.DrumType]onset.DetectionStat{
		rhythm.Kick: {
			Drum:      rhythm.Kick,
			Threshold: 0.4,
			Positions: []float64{1.000},
			Energies:  []float64{0.3},
		},
	}
	existing := []rhythm.DrumHit{{Time: 1.010, Type: rhythm.Kick}}

	recovered, _ := Rescan(waveform, sr, grid, existing, stats, DefaultSensitivityMultiplier, nil)
	for _, h := range recovered {
		if h.Time == 1.000 {
			t.Fatal("expected candidate within 30ms of an existing same-type hit to be excluded")
		}
	}
}
