// Package onset implements the onset and hit detector (C6): beat-aligned
// energy probing (Mode A) and per-drum free onset detection (Mode B).
package onset

import "github.com/rhythmforge/rhythmcore/internal/rhythm"

// modeABand names the three shared band-filtered waveforms Mode A probes.
type modeABand int

const (
	bandLow modeABand = iota
	bandMid
	bandHigh
)

var modeABandRanges = map[modeABand][2]float64{
	bandLow:  {20, 300},
	bandMid:  {150, 2000},
	bandHigh: {5000, 16000},
}

// modeADrumBand maps each drum type probed in Mode A to the band it's
// measured on.
var modeADrumBand = map[rhythm.DrumType]modeABand{
	rhythm.Kick:  bandLow,
	rhythm.Snare: bandMid,
	rhythm.Clap:  bandMid,
	rhythm.HiHat: bandHigh,
}

// modeBBandRange is the narrower per-drum bandpass used for free onset
// detection (§4.6 Mode B). Nyquist-dependent bounds (hi-hat) are resolved
// at call time against the actual sample rate.
type modeBBand struct {
	low, high float64
}

func modeBBandRange(d rhythm.DrumType, sampleRate int) modeBBand {
	nyquist := float64(sampleRate) / 2.0
	switch d {
	case rhythm.Kick:
		return modeBBand{30, 150}
	case rhythm.Snare:
		return modeBBand{150, 1200}
	case rhythm.Clap:
		return modeBBand{1200, 4000}
	case rhythm.HiHat:
		high := 16000.0
		if high > nyquist-100 {
			high = nyquist - 100
		}
		return modeBBand{6000, high}
	case rhythm.Tom:
		return modeBBand{80, 400}
	case rhythm.Perc:
		return modeBBand{4000, 8000}
	default:
		return modeBBand{20, 20000}
	}
}

// modeBWaitMS is the minimum gap between consecutive onsets of the same
// drum type in Mode B.
func modeBWaitMS(d rhythm.DrumType) float64 {
	switch d {
	case rhythm.Kick:
		return 180
	case rhythm.Snare:
		return 135
	case rhythm.HiHat:
		return 45
	case rhythm.Clap:
		return 135
	case rhythm.Tom:
		return 150
	case rhythm.Perc:
		return 60
	default:
		return 100
	}
}

// modeBDelta is the drum-specific adaptive-threshold multiplier ("delta")
// used when peak-picking each drum's onset-strength envelope.
func modeBDelta(d rhythm.DrumType) float64 {
	switch d {
	case rhythm.Kick, rhythm.Tom:
		return 1.5
	case rhythm.Snare, rhythm.Clap:
		return 1.3
	case rhythm.HiHat:
		return 1.0
	case rhythm.Perc:
		return 1.2
	default:
		return 1.3
	}
}
