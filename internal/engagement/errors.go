package engagement

import "errors"

// Sentinel errors for the engagement layer.
var (
	// ErrNotFound means no tracking row exists for the token.
	ErrNotFound = errors.New("tracking token not found")

	// ErrInvalidArgument means a beacon carried an out-of-range value,
	// such as a scroll percent outside [0,100] or a negative duration.
	// Out-of-range values are rejected, never clamped.
	ErrInvalidArgument = errors.New("invalid beacon argument")
)
