// Package rhythm holds the domain types shared across the analysis pipeline:
// waveforms, beat grids, drum hits, patterns, and the assembled analysis
// result. Nothing in this package performs DSP; it is the vocabulary the
// other internal packages speak.
package rhythm

import "sort"

// SampleRate is the fixed rate all waveforms are resampled to before
// anything downstream of the loader sees them.
const SampleRate = 44100

// DrumType enumerates the closed set of percussive instrument classes the
// classifier can emit. The zero value is Kick; ParseDrumType reports an
// unknown name through its boolean result, not through a reserved value.
type DrumType int

const (
	Kick DrumType = iota
	Snare
	HiHat
	Clap
	Tom
	Perc
	drumTypeCount
)

// AllDrumTypes lists every DrumType in lexicographic order by name, used to
// break ties when two hits land on the same timestamp (§5 ordering
// guarantee).
var AllDrumTypes = []DrumType{Clap, HiHat, Kick, Perc, Snare, Tom}

func (d DrumType) String() string {
	switch d {
	case Kick:
		return "kick"
	case Snare:
		return "snare"
	case HiHat:
		return "hihat"
	case Clap:
		return "clap"
	case Tom:
		return "tom"
	case Perc:
		return "perc"
	default:
		return "unknown"
	}
}

// ParseDrumType is the inverse of String, used when reading the pattern
// library and request parameters.
func ParseDrumType(s string) (DrumType, bool) {
	for _, d := range AllDrumTypes {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// lexRank gives each DrumType its position in lexicographic name order, used
// only for the tie-break in SortHits.
func (d DrumType) lexRank() int {
	for i, t := range AllDrumTypes {
		if t == d {
			return i
		}
	}
	return len(AllDrumTypes)
}

// Waveform is an ordered sequence of single-precision samples at SampleRate,
// one slice per channel. Mono waveforms have exactly one channel.
type Waveform struct {
	Channels   [][]float32
	SampleRate int
}

// NumSamples returns the per-channel sample count, or 0 for an empty
// waveform.
func (w *Waveform) NumSamples() int {
	if len(w.Channels) == 0 {
		return 0
	}
	return len(w.Channels[0])
}

// Duration returns the waveform's length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(w.NumSamples()) / float64(w.SampleRate)
}

// Mono collapses a multi-channel waveform to a single averaged channel. A
// mono waveform is returned as-is (its backing slice, not a copy).
func (w *Waveform) Mono() []float32 {
	if len(w.Channels) == 0 {
		return nil
	}
	if len(w.Channels) == 1 {
		return w.Channels[0]
	}
	n := len(w.Channels[0])
	out := make([]float32, n)
	for _, ch := range w.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}
	inv := 1.0 / float32(len(w.Channels))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// WithSamples returns a shallow copy of the waveform with new sample data,
// preserving sample rate and channel count. Used by filter stages so the
// input waveform is never mutated in place.
func (w *Waveform) WithSamples(channels [][]float32) *Waveform {
	return &Waveform{Channels: channels, SampleRate: w.SampleRate}
}

// Downbeat marks a beat time with its 1-indexed position within the bar.
type Downbeat struct {
	Time     float64
	Position int
}

// BeatGrid is the tempo/beat/downbeat estimate produced by the beat tracker
// (C5) and consumed by every later stage.
type BeatGrid struct {
	BPM           float64
	Confidence    float64
	Beats         []float64
	Downbeats     []Downbeat
	TimeSignature int
}

// StepDuration returns the duration in seconds of one 16th-note grid step
// at this grid's tempo.
func (g *BeatGrid) StepDuration() float64 {
	if g.BPM <= 0 {
		return 0
	}
	return 60.0 / g.BPM / 4.0
}

// AnchorTime returns the time of the first beat-position-1 downbeat, used
// as the origin of the 16-step grid in C9/C11. Without such a downbeat it
// falls back to the first beat, and returns 0 when there are no beats.
func (g *BeatGrid) AnchorTime() float64 {
	for _, d := range g.Downbeats {
		if d.Position == 1 {
			return d.Time
		}
	}
	if len(g.Beats) > 0 {
		return g.Beats[0]
	}
	return 0
}

// FeatureVector is the fixed-schema per-onset descriptor produced by C4 and
// consumed by C7's classifiers.
type FeatureVector struct {
	SubBassRatio  float64
	BassRatio     float64
	LowMidRatio   float64
	MidRatio      float64
	HighMidRatio  float64
	HighRatio     float64
	HiHatRatio    float64
	Centroid      float64
	Flatness      float64
	ZCR           float64
	AttackMS      float64
	DecayMS       float64
}

// DefaultFeatureVector is returned by the feature extractor for windows
// shorter than 256 samples (§4.4), keeping downstream classification
// deterministic instead of branching on a sentinel.
func DefaultFeatureVector() FeatureVector {
	return FeatureVector{
		SubBassRatio: 0.1, BassRatio: 0.1, LowMidRatio: 0.1,
		MidRatio: 0.2, HighMidRatio: 0.2, HighRatio: 0.1, HiHatRatio: 0.1,
		Centroid: 0.3, Flatness: 0.3, ZCR: 0.05, AttackMS: 10, DecayMS: 20,
	}
}

// DrumHit is a single classified percussive event.
type DrumHit struct {
	Time       float64
	Type       DrumType
	Confidence float64
	Features   *FeatureVector

	// SourceBar and Threshold are set only for hits produced by the
	// adaptive rescan (C10); zero otherwise.
	SourceBar int
	Threshold float64
}

// SortHits sorts hits in place by time, breaking exact-timestamp ties by
// drum-type lexicographic order (§5).
func SortHits(hits []DrumHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Time != hits[j].Time {
			return hits[i].Time < hits[j].Time
		}
		return hits[i].Type.lexRank() < hits[j].Type.lexRank()
	})
}

// Pattern is a named groove from the static pattern library (§6).
type Pattern struct {
	ID          string
	DisplayName string
	GenreTag    string
	Description string
	Drums       map[DrumType][]int // 16th-note step indices in [0,15]
	Swing       int
}

// AnalysisResult is the final object returned by the pipeline orchestrator
// (C13).
type AnalysisResult struct {
	Beat              BeatGrid
	Hits              []DrumHit
	Swing             int
	Genre             string
	Method            string
	HitsBeforeFilter  int
	HitsAfterFilter   int
	AnalysisSource    string // "full_mix" or "drums_stem"
}
