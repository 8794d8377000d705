package onset

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func synthFourOnFloor(bpm float64, bars int, sampleRate int) []float32 {
	interval := 60.0 / bpm
	duration := interval * 4 * float64(bars)
	n := int(duration * float64(sampleRate))
	out := make([]float32, n)

	click := func(center int, freq, amp float64, lenSec float64) {
		length := int(lenSec * float64(sampleRate))
		for j := 0; j < length && center+j < n; j++ {
			t := float64(j) / float64(sampleRate)
			out[center+j] += float32(amp * math.Exp(-30*t) * math.Sin(2*math.Pi*freq*t))
		}
	}

	for bar := 0; bar < bars; bar++ {
		for beatInBar := 0; beatInBar < 4; beatInBar++ {
			beatTime := float64(bar)*4*interval + float64(beatInBar)*interval
			center := int(beatTime * float64(sampleRate))
			click(center, 60, 1.0, 0.1) // kick every beat
			if beatInBar == 1 || beatInBar == 3 {
				click(center, 1500, 0.8, 0.05) // clap/snare backbeat
			}
		}
	}
	return out
}

func testGrid(bpm float64, bars int) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	var beats []float64
	for i := 0; i < bars*4; i++ {
		beats = append(beats, float64(i)*interval)
	}
	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % 4) + 1}
	}
	return &rhythm.BeatGrid{BPM: bpm, Confidence: 0.9, Beats: beats, Downbeats: downbeats, TimeSignature: 4}
}

func TestModeADetectsKicksOnBeats(t *testing.T) {
	const sr = 44100
	mono := synthFourOnFloor(128, 8, sr)
	grid := testGrid(128, 8)

	hits, stats, err := ModeA(mono, sr, grid, DefaultSensitivities(), silentLogger())
	if err != nil {
		t.Fatalf("ModeA: %v", err)
	}

	kickHits := 0
	for _, h := range hits {
		if h.Type == rhythm.Kick {
			kickHits++
		}
	}
	if kickHits < 16 {
		t.Fatalf("expected at least half of the 32 beats to register a kick hit, got %d", kickHits)
	}
	if _, ok := stats[rhythm.Kick]; !ok {
		t.Fatal("expected kick detection stats to be recorded")
	}
}

func TestMergeNearbySuppressesDuplicates(t *testing.T) {
	hits := []rhythm.DrumHit{
		{Time: 1.000, Type: rhythm.Kick},
		{Time: 1.010, Type: rhythm.Kick},
		{Time: 1.100, Type: rhythm.Kick},
	}
	merged := mergeNearby(hits, 0.030)
	if len(merged) != 2 {
		t.Fatalf("expected 2 hits after merging, got %d", len(merged))
	}
}

func TestResolveCollisionsDropsTomNearKick(t *testing.T) {
	perDrum := map[rhythm.DrumType][]float64{
		rhythm.Kick: {1.000},
		rhythm.Tom:  {1.010, 2.000},
	}
	resolveCollisions(perDrum)
	if len(perDrum[rhythm.Tom]) != 1 || perDrum[rhythm.Tom][0] != 2.000 {
		t.Fatalf("expected tom onset near kick to be dropped, got %v", perDrum[rhythm.Tom])
	}
}

func TestPercentileEmpiricalQuantile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	if p := percentile(values, 50); p != 3 {
		t.Fatalf("median = %f, want 3", p)
	}
	if p := percentile(values, 0); p != 1 {
		t.Fatalf("p0 = %f, want 1", p)
	}
	if p := percentile(values, 100); p != 5 {
		t.Fatalf("p100 = %f, want 5", p)
	}
}
