package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFTParams holds the short-time transform configuration (§4.3 defaults).
type STFTParams struct {
	NFFT int
	Hop  int
}

// DefaultSTFTParams returns the pipeline-wide default: n_fft=2048, hop=512.
func DefaultSTFTParams() STFTParams {
	return STFTParams{NFFT: 2048, Hop: 512}
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

// STFTForward computes the short-time Fourier transform of a mono signal,
// returning one complex spectrum per frame (frame-major: frames[t][f]).
func STFTForward(samples []float32, p STFTParams) [][]complex128 {
	window := hannWindow(p.NFFT)
	fft := fourier.NewFFT(p.NFFT)

	numFrames := 0
	if len(samples) > 0 {
		numFrames = (len(samples)-p.NFFT)/p.Hop + 2
		if numFrames < 1 {
			numFrames = 1
		}
	}

	frames := make([][]complex128, numFrames)
	buf := make([]float64, p.NFFT)
	for t := 0; t < numFrames; t++ {
		start := t * p.Hop
		for i := range buf {
			idx := start + i
			if idx < len(samples) {
				buf[i] = float64(samples[idx]) * window[i]
			} else {
				buf[i] = 0
			}
		}
		frames[t] = fft.Coefficients(nil, buf)
	}
	return frames
}

// ISTFT reconstructs a time-domain signal of length outputLen from complex
// spectral frames via overlap-add with window-envelope normalization.
func ISTFT(frames [][]complex128, p STFTParams, outputLen int) []float32 {
	window := hannWindow(p.NFFT)
	fft := fourier.NewFFT(p.NFFT)

	out := make([]float64, outputLen)
	envelope := make([]float64, outputLen)

	for t, spectrum := range frames {
		start := t * p.Hop
		frame := fft.Sequence(nil, spectrum)
		for i := 0; i < p.NFFT; i++ {
			idx := start + i
			if idx >= outputLen {
				break
			}
			out[idx] += frame[i] * window[i]
			envelope[idx] += window[i] * window[i]
		}
	}

	result := make([]float32, outputLen)
	for i := range result {
		if envelope[i] > 1e-8 {
			result[i] = float32(out[i] / envelope[i])
		}
	}
	return result
}

// magnitudePhase splits complex frames into magnitude and phase matrices,
// both indexed [frame][freqBin].
func magnitudePhase(frames [][]complex128) (mag, phase [][]float64) {
	mag = make([][]float64, len(frames))
	phase = make([][]float64, len(frames))
	for t, spectrum := range frames {
		mag[t] = make([]float64, len(spectrum))
		phase[t] = make([]float64, len(spectrum))
		for f, c := range spectrum {
			mag[t][f] = cmplx.Abs(c)
			phase[t][f] = cmplx.Phase(c)
		}
	}
	return mag, phase
}

// reassemble rebuilds complex frames from a magnitude matrix and the
// original phase matrix (used to reapply a soft mask to magnitude only).
func reassemble(mag, phase [][]float64) [][]complex128 {
	frames := make([][]complex128, len(mag))
	for t := range mag {
		frames[t] = make([]complex128, len(mag[t]))
		for f := range mag[t] {
			frames[t][f] = cmplx.Rect(mag[t][f], phase[t][f])
		}
	}
	return frames
}
