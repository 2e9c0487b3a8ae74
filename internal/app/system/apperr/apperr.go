// Package apperr defines the error taxonomy shared by every slackzz service.
//
// Services return these sentinels (possibly wrapped with %w); transports map
// them to status codes. Reads translate ErrUnauthorized into an empty result
// and must let everything else, InvariantViolation in particular, propagate.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the caller has no membership or an insufficient role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a write targeted a resource that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrWorkspaceNotFound is the join-flow flavour of ErrNotFound.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	ErrInvalidJoinCode = errors.New("invalid join code")
	ErrAlreadyMember   = errors.New("already a member of this workspace")

	// ErrMalformedContent means a message body is not a well-formed
	// insert-only rich-text operation sequence.
	ErrMalformedContent = errors.New("malformed content")

	// ErrInvalidInput covers names that normalize to nothing and ids that do
	// not parse.
	ErrInvalidInput = errors.New("invalid input")
)

// InvariantViolation reports a broken internal-consistency guarantee, such as
// the membership index returning more than one row. It is never degraded into
// an empty read result.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated: %s: %s", e.Invariant, e.Detail)
}

// Malformed wraps ErrMalformedContent with a reason.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedContent, fmt.Sprintf(format, args...))
}

// IsInvariant reports whether err is (or wraps) an InvariantViolation.
func IsInvariant(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

// DegradeRead converts an authorization failure into "no result" for list
// and get style queries. Any other error is returned unchanged.
func DegradeRead(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}
