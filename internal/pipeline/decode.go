package pipeline

import (
	"context"
	"log/slog"

	"github.com/rhythmforge/rhythmcore/internal/audio"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// decodeWithContext runs audio.Decode on a goroutine so the suspension
// point named in §5 (audio decoding) is actually cancellable: a caller
// that cancels ctx gets control back at once even though the decoder
// itself has no context parameter.
func decodeWithContext(ctx context.Context, data []byte, filename string, logger *slog.Logger) (*rhythm.Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		wf  *rhythm.Waveform
		err error
	}
	done := make(chan result, 1)
	go func() {
		wf, err := audio.Decode(data, filename, logger)
		done <- result{wf, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.wf, r.err
	}
}
