// Package beat implements the beat tracker (C5): an onset-strength
// envelope, tempo estimation via inter-onset-interval clustering, beat/
// downbeat grid construction, and the half-time correction rules.
package beat

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rhythmforge/rhythmcore/internal/dsp"
)

// Envelope is a one-dimensional onset-strength signal, one value per STFT
// hop, alongside the hop duration in seconds needed to map envelope
// indices back to time.
type Envelope struct {
	Values   []float64
	HopSecs  float64
}

// TimeAt converts an envelope index to a time in seconds.
func (e Envelope) TimeAt(i int) float64 {
	return float64(i) * e.HopSecs
}

// OnsetStrength computes a spectral-flux onset-strength envelope: the
// sum of positive frame-to-frame magnitude increases across frequency
// bins, a standard proxy whose peaks correspond to onsets.
func OnsetStrength(mono []float32, sampleRate int, params dsp.STFTParams) Envelope {
	frames := dsp.STFTForward(mono, params)
	values := make([]float64, len(frames))

	var prevMag []float64
	for t, frame := range frames {
		mag := make([]float64, len(frame)/2)
		for f := range mag {
			re, im := real(frame[f]), imag(frame[f])
			mag[f] = math.Sqrt(re*re + im*im)
		}
		if prevMag != nil {
			var flux float64
			for f := range mag {
				d := mag[f] - prevMag[f]
				if d > 0 {
					flux += d
				}
			}
			values[t] = flux
		}
		prevMag = mag
	}

	return Envelope{
		Values:  values,
		HopSecs: float64(params.Hop) / float64(sampleRate),
	}
}

// PeakPick finds local maxima in the envelope that exceed an adaptive
// threshold (sliding-window mean + k*stddev), returning their indices.
// This is the standard adaptive-thresholding onset-picking idiom used
// throughout this codebase's DSP lineage.
func PeakPick(values []float64, windowSize int, k float64, minGapFrames int) []int {
	if len(values) == 0 {
		return nil
	}
	if windowSize < 1 {
		windowSize = 1
	}

	var peaks []int
	lastPeak := -minGapFrames - 1
	for i := range values {
		lo := i - windowSize
		if lo < 0 {
			lo = 0
		}
		hi := i + windowSize
		if hi >= len(values) {
			hi = len(values) - 1
		}
		mean, std := meanStd(values[lo : hi+1])
		threshold := mean + k*std

		if values[i] <= threshold {
			continue
		}
		if i > 0 && values[i] < values[i-1] {
			continue
		}
		if i+1 < len(values) && values[i] < values[i+1] {
			continue
		}
		if i-lastPeak < minGapFrames {
			continue
		}
		peaks = append(peaks, i)
		lastPeak = i
	}
	return peaks
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}
