// Package dsp implements the filter bank (C2) and the STFT/HPSS stage (C3):
// the spectral plumbing shared by every later pipeline stage.
package dsp

import (
	"log/slog"
	"math"
)

// biquad is one second-order section in Direct Form II Transposed, the
// standard form for numerically stable cascaded IIR filtering.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64 // state, reset per-call by Apply
}

func (s *biquad) reset() {
	s.z1, s.z2 = 0, 0
}

func (s *biquad) step(x float64) float64 {
	y := s.b0*x + s.z1
	s.z1 = s.b1*x - s.a1*y + s.z2
	s.z2 = s.b2*x - s.a2*y
	return y
}

// Filter is a cascade of second-order sections applied causally
// (forward-only, no zero-phase correction) to preserve transient timing,
// per §4.2.
type Filter struct {
	sections []biquad
	identity bool
}

// Apply runs the filter forward over samples and returns a new slice; the
// input is never mutated. Each call resets internal filter state so a
// Filter value is safe to reuse across independent windows.
func (f *Filter) Apply(samples []float32) []float32 {
	out := make([]float32, len(samples))
	if f.identity {
		copy(out, samples)
		return out
	}
	for i := range f.sections {
		f.sections[i].reset()
	}
	for i, x := range samples {
		v := float64(x)
		for s := range f.sections {
			v = f.sections[s].step(v)
		}
		out[i] = float32(v)
	}
	return out
}

const defaultOrder = 4

// Bandpass builds a stable cascaded bandpass filter rejecting frequencies
// outside [lowcut, highcut] at sampleRate, approximately order "order".
// Cutoffs are clamped to the Nyquist-relative bounds from §4.2; when
// lowcut >= highcut after clamping, the identity filter is returned and
// the call is logged rather than treated as an error.
func Bandpass(lowcut, highcut, sampleRate float64, order int, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	nyquist := sampleRate / 2.0
	lowcut = clamp(lowcut, 0.01*nyquist, nyquist)
	highcut = clamp(highcut, 0, 0.99*nyquist)

	if lowcut >= highcut {
		logger.Warn("dsp: bandpass lowcut >= highcut after clamping, returning identity",
			"lowcut", lowcut, "highcut", highcut)
		return &Filter{identity: true}
	}
	if order <= 0 {
		order = defaultOrder
	}

	centerFreq := math.Sqrt(lowcut * highcut)
	bandwidth := highcut - lowcut
	numSections := (order + 1) / 2

	sections := make([]biquad, 0, numSections)
	for i := 0; i < numSections; i++ {
		// Stagger Q slightly across cascaded sections (Butterworth-style
		// maximally-flat pole spacing) instead of repeating an identical
		// section, which would just multiply one section's ripple.
		qScale := 1.0 + 0.25*float64(i)
		sections = append(sections, bandpassSection(centerFreq, bandwidth*qScale, sampleRate))
	}
	return &Filter{sections: sections}
}

// Lowpass builds a cascaded lowpass filter with cutoff clamped the same
// way as Bandpass.
func Lowpass(cutoff, sampleRate float64, order int, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	nyquist := sampleRate / 2.0
	cutoff = clamp(cutoff, 0.01*nyquist, 0.99*nyquist)
	if order <= 0 {
		order = defaultOrder
	}
	numSections := (order + 1) / 2
	sections := make([]biquad, 0, numSections)
	for i := 0; i < numSections; i++ {
		q := butterworthQ(i, numSections)
		sections = append(sections, lowpassSection(cutoff, sampleRate, q))
	}
	return &Filter{sections: sections}
}

// Highpass mirrors Lowpass for the high-edge case.
func Highpass(cutoff, sampleRate float64, order int, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	nyquist := sampleRate / 2.0
	cutoff = clamp(cutoff, 0.01*nyquist, 0.99*nyquist)
	if order <= 0 {
		order = defaultOrder
	}
	numSections := (order + 1) / 2
	sections := make([]biquad, 0, numSections)
	for i := 0; i < numSections; i++ {
		q := butterworthQ(i, numSections)
		sections = append(sections, highpassSection(cutoff, sampleRate, q))
	}
	return &Filter{sections: sections}
}

// butterworthQ returns the pole Q for the i-th of n cascaded second-order
// Butterworth sections (maximally flat magnitude response).
func butterworthQ(i, n int) float64 {
	// Pole angles for a 2n-order Butterworth prototype, paired into n
	// conjugate sections.
	theta := math.Pi * (2*float64(i) + 1) / (4 * float64(n))
	q := 1.0 / (2.0 * math.Cos(theta))
	if q <= 0 {
		q = 0.707
	}
	return q
}

func bandpassSection(centerFreq, bandwidth, sampleRate float64) biquad {
	w0 := 2 * math.Pi * centerFreq / sampleRate
	alpha := math.Sin(w0) * math.Sinh(math.Ln2/2*bandwidth/centerFreq*w0/math.Sin(w0))
	if math.IsNaN(alpha) || alpha <= 0 {
		alpha = math.Sin(w0) / (2 * 0.707)
	}
	cosw0 := math.Cos(w0)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

func lowpassSection(cutoff, sampleRate, q float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

func highpassSection(cutoff, sampleRate, q float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad {
	return biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
