// Package engineerr defines the engine's error taxonomy so callers can
// branch on failure kind without parsing messages.
package engineerr

import "fmt"

// Kind classifies an engine error for callers (CLI exit codes, request
// envelopes) that need to distinguish failure modes.
type Kind int

const (
	// KindInvalidInput covers malformed requests: non-positive rate,
	// fee outside [0,1), an unknown allocator mode, mc_samples out of
	// range.
	KindInvalidInput Kind = iota
	// KindNumericalDegeneracy covers a non-finite edge weight or
	// simulation return.
	KindNumericalDegeneracy
	// KindNoCyclesFound is a normal, non-error outcome callers may still
	// want to branch on.
	KindNoCyclesFound
	// KindCancelled means the scan's cancellation token fired before
	// completion.
	KindCancelled
	// KindInternal covers anything unanticipated.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindNumericalDegeneracy:
		return "NumericalDegeneracy"
	case KindNoCyclesFound:
		return "NoCyclesFound"
	case KindCancelled:
		return "Cancelled"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a Kind-tagged error that never propagates past a request
// envelope without being classified.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a Kind-tagged error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an existing error with a Kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As reports whether err is an *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	if ok {
		return e, true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return As(u.Unwrap())
	}
	return nil, false
}

// ExitCode maps a Kind to the CLI adapter's exit code contract: 0 ok,
// 2 invalid input, 3 cancelled/timeout, 4 internal error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	e, ok := As(err)
	if !ok {
		return 4
	}
	switch e.Kind {
	case KindInvalidInput:
		return 2
	case KindCancelled:
		return 3
	case KindNoCyclesFound:
		return 0
	default:
		return 4
	}
}
