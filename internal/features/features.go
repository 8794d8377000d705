// Package features implements the per-onset feature extractor (C4): a
// fixed-length descriptor of band energies, spectral shape, and envelope
// timing, consumed by the classifier (C7).
package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

const (
	windowTotalMS = 80.0
	preOnsetFrac  = 0.25
	minWindowLen  = 256
)

type band struct {
	lowHz, highHz float64
}

var (
	bandSubBass = band{20, 60}
	bandBass    = band{60, 200}
	bandLowMid  = band{200, 500}
	bandMid     = band{500, 2000}
	bandHighMid = band{2000, 6000}
	bandHigh    = band{6000, 20000}
	bandHiHat   = band{6000, 16000}
)

// Extract returns the feature vector for a window centered on onsetTime
// within mono (default 80 ms, 1/4 pre-onset). Windows shorter than 256
// samples (e.g. an onset near the very start of the buffer) return the
// documented default vector rather than a degenerate computation.
func Extract(mono []float32, sampleRate int, onsetTime float64) rhythm.FeatureVector {
	totalSamples := int(windowTotalMS / 1000.0 * float64(sampleRate))
	preSamples := int(float64(totalSamples) * preOnsetFrac)
	onsetSample := int(onsetTime * float64(sampleRate))
	start := onsetSample - preSamples
	end := start + totalSamples

	windowed := make([]float64, totalSamples)
	actualLen := 0
	win := hannWindow(totalSamples)
	for i := 0; i < totalSamples; i++ {
		idx := start + i
		if idx >= 0 && idx < len(mono) {
			windowed[i] = float64(mono[idx]) * win[i]
			actualLen++
		}
	}

	if actualLen < minWindowLen {
		return rhythm.DefaultFeatureVector()
	}

	fft := fourier.NewFFT(totalSamples)
	spectrum := fft.Coefficients(nil, windowed)
	mags := make([]float64, len(spectrum))
	for i, c := range spectrum {
		mags[i] = math.Hypot(real(c), imag(c))
	}

	binHz := float64(sampleRate) / float64(totalSamples)

	totalEnergy := sumEnergy(mags, 0, binHz, 0, float64(sampleRate)/2)
	if totalEnergy <= 0 {
		return rhythm.DefaultFeatureVector()
	}

	fv := rhythm.FeatureVector{
		SubBassRatio: sumEnergy(mags, 0, binHz, bandSubBass.lowHz, bandSubBass.highHz) / totalEnergy,
		BassRatio:    sumEnergy(mags, 0, binHz, bandBass.lowHz, bandBass.highHz) / totalEnergy,
		LowMidRatio:  sumEnergy(mags, 0, binHz, bandLowMid.lowHz, bandLowMid.highHz) / totalEnergy,
		MidRatio:     sumEnergy(mags, 0, binHz, bandMid.lowHz, bandMid.highHz) / totalEnergy,
		HighMidRatio: sumEnergy(mags, 0, binHz, bandHighMid.lowHz, bandHighMid.highHz) / totalEnergy,
		HighRatio:    sumEnergy(mags, 0, binHz, bandHigh.lowHz, bandHigh.highHz) / totalEnergy,
		HiHatRatio:   sumEnergy(mags, 0, binHz, bandHiHat.lowHz, bandHiHat.highHz) / totalEnergy,
		Centroid:     centroid(mags, binHz),
		Flatness:     flatness(mags),
		ZCR:          zeroCrossingRate(windowed),
	}

	attackMS, decayMS := envelopeTiming(windowed, sampleRate)
	fv.AttackMS = attackMS
	fv.DecayMS = decayMS

	return fv
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func sumEnergy(mags []float64, _ int, binHz, lowHz, highHz float64) float64 {
	var sum float64
	lowBin := int(lowHz / binHz)
	highBin := int(highHz/binHz) + 1
	n := len(mags) // mags already holds only the n/2+1 non-redundant bins
	if highBin > n {
		highBin = n
	}
	for b := lowBin; b < highBin && b < len(mags); b++ {
		if b < 0 {
			continue
		}
		sum += mags[b] * mags[b]
	}
	return sum
}

func centroid(mags []float64, binHz float64) float64 {
	n := len(mags)
	var num, den float64
	for b := 0; b < n; b++ {
		freq := float64(b) * binHz
		num += freq * mags[b]
		den += mags[b]
	}
	if den == 0 {
		return 0
	}
	c := num / den / 10000.0
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func flatness(mags []float64) float64 {
	n := len(mags)
	if n == 0 {
		return 0
	}
	var logSum, arithSum float64
	count := 0
	for b := 0; b < n; b++ {
		if mags[b] <= 0 {
			continue
		}
		logSum += math.Log(mags[b])
		arithSum += mags[b]
		count++
	}
	if count == 0 || arithSum == 0 {
		return 0
	}
	geoMean := math.Exp(logSum / float64(count))
	arithMean := arithSum / float64(count)
	if arithMean == 0 {
		return 0
	}
	return geoMean / arithMean
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// envelopeTiming computes attack width (10%->90% of peak, ms) and decay
// time (peak->10% of peak, ms) from the amplitude envelope.
func envelopeTiming(samples []float64, sampleRate int) (attackMS, decayMS float64) {
	n := len(samples)
	envelope := make([]float64, n)
	peak := 0.0
	peakIdx := 0
	for i, s := range samples {
		envelope[i] = math.Abs(s)
		if envelope[i] > peak {
			peak = envelope[i]
			peakIdx = i
		}
	}
	if peak <= 0 {
		return rhythm.DefaultFeatureVector().AttackMS, rhythm.DefaultFeatureVector().DecayMS
	}

	low, high := 0.1*peak, 0.9*peak
	riseStart, riseEnd := -1, -1
	for i := 0; i <= peakIdx; i++ {
		if riseStart < 0 && envelope[i] >= low {
			riseStart = i
		}
		if riseEnd < 0 && envelope[i] >= high {
			riseEnd = i
			break
		}
	}
	if riseStart >= 0 && riseEnd >= riseStart {
		attackMS = float64(riseEnd-riseStart) / float64(sampleRate) * 1000.0
	}

	decayEnd := -1
	for i := peakIdx; i < n; i++ {
		if envelope[i] <= low {
			decayEnd = i
			break
		}
	}
	if decayEnd >= peakIdx {
		decayMS = float64(decayEnd-peakIdx) / float64(sampleRate) * 1000.0
	} else {
		decayMS = float64(n-peakIdx) / float64(sampleRate) * 1000.0
	}

	return attackMS, decayMS
}
