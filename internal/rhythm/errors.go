package rhythm

import "errors"

// Sentinel errors for the stage failures named in the error handling design.
// Stages wrap these with fmt.Errorf("...: %w", ErrX) so callers can branch
// with errors.Is while still getting a contextual message.
var (
	ErrDecodeFailed          = errors.New("rhythm: audio could not be decoded")
	ErrUnsupportedFormat     = errors.New("rhythm: unsupported audio format")
	ErrTooLarge              = errors.New("rhythm: input exceeds maximum size")
	ErrBeatTrackFailure      = errors.New("rhythm: no usable tempo found")
	ErrHPSSFailure           = errors.New("rhythm: harmonic/percussive separation failed")
	ErrStemServiceUnavailable = errors.New("rhythm: stem separation service unavailable")
	ErrInvariantViolation    = errors.New("rhythm: internal invariant violated")
)

// MaxInputBytes is the resource cap from §5: inputs larger than this are
// rejected before decoding is attempted.
const MaxInputBytes = 200 * 1024 * 1024
