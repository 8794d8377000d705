// Package oracle defines the optional, non-gating LLM hint interface
// (§6): given a spectrogram image and hints about a track, an oracle may
// suggest a structured pattern descriptor. The core never depends on an
// oracle producing a result.
package oracle

import "context"

// Hints carries whatever context the caller already has about the track
// (tempo estimate, genre guess) to help an oracle ground its suggestion.
type Hints struct {
	BPM          float64
	GenreGuess   string
	TrackSeconds float64
}

// OracleHint is the structured suggestion an oracle may return, mirroring
// the JSON descriptor the original service's Gemini path produced.
type OracleHint struct {
	KickPattern  []int
	KickPerBar   float64
	SnarePattern []int
	SnarePerBar  float64
	HiHatPattern []int
	HiHatPerBar  float64
	ClapLayered  bool
	HasReverb    bool
	Genre        string
	Confidence   float64
	Notes        string
}

// Oracle suggests a pattern descriptor from a spectrogram image. Callers
// must treat a nil result and nil error as "no suggestion" and never
// block the pipeline on it.
type Oracle interface {
	Suggest(ctx context.Context, spectrogramPNG []byte, hints Hints) (*OracleHint, error)
}

// NopOracle never suggests anything. It is the only oracle implementation
// shipped in this module — no network client is fabricated; wiring a real
// LLM backend is left to the transport layer that embeds this package.
type NopOracle struct{}

// Suggest always returns (nil, nil).
func (NopOracle) Suggest(ctx context.Context, spectrogramPNG []byte, hints Hints) (*OracleHint, error) {
	return nil, nil
}
