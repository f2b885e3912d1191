package patch

import "fmt"

// Kind identifies a patch failure category.
type Kind int

const (
	KindMalformed Kind = iota + 1
	KindContextMismatch
	KindOutOfBounds
	KindOverlap
	KindAlreadyExists
	KindNotFound
	KindIO
)

// Error is a patch failure; errors.Is matches it against the Err* kind values.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the bare kind value of e.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrMalformed       = &Error{Kind: KindMalformed}
	ErrContextMismatch = &Error{Kind: KindContextMismatch}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrOverlap         = &Error{Kind: KindOverlap}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrIO              = &Error{Kind: KindIO}
)

func malformed(format string, args ...interface{}) error {
	return &Error{Kind: KindMalformed, Message: "Invalid patch: " + fmt.Sprintf(format, args...)}
}

func contextMismatch() error {
	return &Error{Kind: KindContextMismatch, Message: "Invalid patch: context does not match file contents."}
}

func outOfBounds() error {
	return &Error{Kind: KindOutOfBounds, Message: "Invalid patch: hunk exceeds file length."}
}

func overlap() error {
	return &Error{Kind: KindOverlap, Message: "Invalid patch: overlapping hunk or out-of-order line numbers."}
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Message: "Unable to " + op + " file", Err: err}
}
