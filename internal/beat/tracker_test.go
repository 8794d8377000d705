package beat

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

// synthClickTrack builds a click track at the given BPM for the given
// number of beats, used across the beat-tracker tests.
func synthClickTrack(bpm float64, beats int, sampleRate int) []float32 {
	interval := 60.0 / bpm
	duration := interval * float64(beats)
	n := int(duration * float64(sampleRate))
	out := make([]float32, n)

	clickLen := int(0.01 * float64(sampleRate))
	for i := 0; i < beats; i++ {
		offset := int(interval * float64(i) * float64(sampleRate))
		for j := 0; j < clickLen && offset+j < n; j++ {
			out[offset+j] += float32(math.Exp(-6 * float64(j) / float64(clickLen)))
		}
	}
	return out
}

func TestTrackRecoversApproximateTempo(t *testing.T) {
	const sr = 44100
	mono := synthClickTrack(128, 32, sr)

	grid, err := Track(mono, sr, DefaultConfig(), silentLogger())
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if grid.BPM < 100 || grid.BPM > 160 {
		t.Fatalf("bpm = %f, want within a reasonable band around 128 (allowing for octave artifacts)", grid.BPM)
	}
	for i := 1; i < len(grid.Beats); i++ {
		if grid.Beats[i] < grid.Beats[i-1] {
			t.Fatalf("beats not monotonic at index %d", i)
		}
	}
}

func TestTrackFailsOnSilence(t *testing.T) {
	mono := make([]float32, 44100*2)
	_, err := Track(mono, 44100, DefaultConfig(), silentLogger())
	if err == nil {
		t.Fatal("expected beat track failure on silence")
	}
}

func testGrid(bpm, confidence float64, ts int) *rhythm.BeatGrid {
	interval := 60.0 / bpm
	beats := []float64{0, interval, 2 * interval, 3 * interval}
	downbeats := make([]rhythm.Downbeat, len(beats))
	for i, t := range beats {
		downbeats[i] = rhythm.Downbeat{Time: t, Position: (i % ts) + 1}
	}
	return &rhythm.BeatGrid{BPM: bpm, Confidence: confidence, Beats: beats, Downbeats: downbeats, TimeSignature: ts}
}

func TestHalfTimeRuleABoundary(t *testing.T) {
	grid := testGrid(94.999, 0.499, 4)
	out, err := ApplyHalfTimeCorrection(grid, make([]float32, 44100), 44100, silentLogger())
	if err != nil {
		t.Fatalf("ApplyHalfTimeCorrection: %v", err)
	}
	if out.BPM != grid.BPM*2 {
		t.Fatalf("expected rule A to double bpm at boundary, got %f from %f", out.BPM, grid.BPM)
	}

	gridNoTrigger := testGrid(95.0, 0.5, 4)
	outNo, err := ApplyHalfTimeCorrection(gridNoTrigger, make([]float32, 44100), 44100, silentLogger())
	if err != nil {
		t.Fatalf("ApplyHalfTimeCorrection: %v", err)
	}
	if outNo.BPM != gridNoTrigger.BPM {
		t.Fatalf("expected rule A NOT to trigger at exactly 95.0/0.5, bpm changed to %f", outNo.BPM)
	}
}
