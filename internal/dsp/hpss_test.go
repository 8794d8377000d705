package dsp

import (
	"math"
	"testing"
)

func TestPercussivePreservesLength(t *testing.T) {
	const sr = 44100
	n := sr * 2
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / sr
		// A sustained tone (harmonic) plus periodic clicks (percussive).
		samples[i] = float32(0.3*math.Sin(2*math.Pi*220*t) + clickAt(i, sr, 0.5))
	}

	out, err := Percussive(samples, sr, DefaultHPSSParams())
	if err != nil {
		t.Fatalf("Percussive: %v", err)
	}
	if len(out) != len(samples) {
		t.Fatalf("output length = %d, want %d", len(out), len(samples))
	}
}

func TestPercussiveEmptyInputFails(t *testing.T) {
	_, err := Percussive(nil, 44100, DefaultHPSSParams())
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func clickAt(i, sr int, periodSec float64) float64 {
	period := int(periodSec * float64(sr))
	if period == 0 {
		return 0
	}
	phase := i % period
	if phase < 10 {
		return 0.8 * math.Exp(-float64(phase)/2.0)
	}
	return 0
}
