package jsedit

import (
	"errors"
	"fmt"
)

var (
	ErrTargetNotFound       = errors.New("target not found")
	ErrBodyOnlyUnsupported  = errors.New("body-only replacement unsupported")
	ErrShorthand            = errors.New("shorthand property")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileNotFound         = errors.New("file not found")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrInvalidRange         = errors.New("invalid replacement range")
	ErrBodyOnlyFlagRequired = errors.New("body-only flag required")
	ErrIO                   = errors.New("file i/o failure")
)

// Error carries a caller facing message for one of the Err* kinds.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ioError(op string, err error) error {
	return &Error{Kind: ErrIO, Message: "Unable to " + op + " file", Err: err}
}
