package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// StemSeparator is the opaque external stem-separation oracle (§6): given
// a full-mix waveform it returns an isolated drums waveform. The core
// never inspects how it produces that result.
type StemSeparator interface {
	Separate(ctx context.Context, mono []float32, sampleRate int) ([]float32, error)
}

// NopStemSeparator always reports the stem service as unavailable,
// matching the documented StemServiceUnavailable recovery path when no
// real separator is wired in.
type NopStemSeparator struct{}

func (NopStemSeparator) Separate(ctx context.Context, mono []float32, sampleRate int) ([]float32, error) {
	return nil, rhythm.ErrStemServiceUnavailable
}

const stemRetryBaseDelay = 2 * time.Second

// separateWithRetry calls sep.Separate under the §5 default timeout
// (300s), retrying up to defaultStemMaxRetries times with exponential
// backoff before giving up and letting the caller fall back to the full
// mix.
func separateWithRetry(ctx context.Context, sep StemSeparator, mono []float32, sampleRate int, logger *slog.Logger) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= defaultStemMaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, defaultStemTimeout)
		drums, err := sep.Separate(callCtx, mono, sampleRate)
		cancel()
		if err == nil {
			return drums, nil
		}
		lastErr = err
		logger.Warn("pipeline: stem separation attempt failed", "attempt", attempt, "error", err)

		if attempt < defaultStemMaxRetries {
			delay := stemRetryBaseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("pipeline: stem separation: %w: %v", rhythm.ErrStemServiceUnavailable, lastErr)
}
