package proposal

import "errors"

// Sentinel errors for the proposal service layer. Ownership failures
// deliberately surface as ErrNotFound so non-owners cannot probe for
// existence.
var (
	ErrNotFound      = errors.New("proposal not found")
	ErrInvalidStatus = errors.New("invalid proposal status")
	ErrUnavailable   = errors.New("proposal store unavailable")
)

// ValidationError describes a rejected create/update payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
