package features

import (
	"math"
	"testing"
)

func synthTone(freq float64, sampleRate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-8 * t)
		out[i] = float32(envelope * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

func TestExtractShortWindowReturnsDefault(t *testing.T) {
	mono := synthTone(100, 44100, 100)
	fv := Extract(mono, 44100, 0.001)
	if fv.AttackMS != 10 || fv.DecayMS != 20 {
		t.Fatalf("expected default feature vector for short window, got %+v", fv)
	}
}

func TestExtractLowFreqVsHighFreqCentroid(t *testing.T) {
	sampleRate := 44100
	n := sampleRate // 1 second buffer, plenty of room around the onset
	low := synthTone(80, sampleRate, n)
	high := synthTone(9000, sampleRate, n)

	onset := 0.5
	fvLow := Extract(low, sampleRate, onset)
	fvHigh := Extract(high, sampleRate, onset)

	if fvLow.Centroid >= fvHigh.Centroid {
		t.Fatalf("expected low tone centroid (%f) < high tone centroid (%f)", fvLow.Centroid, fvHigh.Centroid)
	}
	if fvLow.BassRatio+fvLow.SubBassRatio <= fvHigh.BassRatio+fvHigh.SubBassRatio {
		t.Fatalf("expected low tone to dominate the low bands")
	}
}

func TestExtractZCRHigherForNoisySignal(t *testing.T) {
	sampleRate := 44100
	n := sampleRate
	tone := synthTone(200, sampleRate, n)

	noisy := make([]float32, n)
	rng := uint32(12345)
	for i := range noisy {
		rng = rng*1664525 + 1013904223
		noisy[i] = float32(rng>>16)/32768.0 - 1.0
	}

	onset := 0.5
	fvTone := Extract(tone, sampleRate, onset)
	fvNoisy := Extract(noisy, sampleRate, onset)

	if fvNoisy.ZCR <= fvTone.ZCR {
		t.Fatalf("expected noisy ZCR (%f) > tonal ZCR (%f)", fvNoisy.ZCR, fvTone.ZCR)
	}
}
