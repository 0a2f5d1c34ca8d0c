// Package failure classifies parse failures into the coarse categories a
// test harness acts on.
package failure

import (
	"http-conformance/application/util/rfc"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionLost covers end-of-stream and any I/O error during a read.
	ErrConnectionLost = errors.New("connection lost")
	// ErrOutOfMemory is reported when a buffer would exceed the configured limit.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrUnsupported marks valid grammar that this implementation does not handle.
	ErrUnsupported = errors.New("unsupported")
)

type Class uint8

const (
	Unknown Class = iota
	Conformance
	ConnectionLost
	OutOfMemory
	Unsupported
)

func (c Class) String() string {
	switch c {
	case Conformance:
		return "conformance"
	case ConnectionLost:
		return "connection lost"
	case OutOfMemory:
		return "out of memory"
	case Unsupported:
		return "unsupported"
	}
	return "unknown"
}

// Classify maps err onto a [Class]. nil is Unknown.
func Classify(err error) Class {
	if err == nil {
		return Unknown
	}

	var v *rfc.Violation
	switch {
	case errors.As(err, &v):
		return Conformance
	case errors.Is(err, ErrConnectionLost):
		return ConnectionLost
	case errors.Is(err, ErrOutOfMemory):
		return OutOfMemory
	case errors.Is(err, ErrUnsupported):
		return Unsupported
	}

	return Unknown
}

// IsFatal reports whether err is a session-level failure rather than a
// defect in the received data.
func IsFatal(err error) bool {
	switch Classify(err) {
	case ConnectionLost, OutOfMemory:
		return true
	}
	return false
}

// ConnectionLostf wraps an I/O error, keeping it as the cause.
func ConnectionLostf(cause error, format string, args ...any) error {
	return &wrapped{
		sentinel: ErrConnectionLost,
		cause:    errors.Wrapf(cause, format, args...),
	}
}

// wrapped matches sentinel with errors.Is while keeping cause for errors.As.
type wrapped struct {
	sentinel error
	cause    error
}

func (w *wrapped) Error() string   { return w.sentinel.Error() + ": " + w.cause.Error() }
func (w *wrapped) Unwrap() []error { return []error{w.sentinel, w.cause} }
