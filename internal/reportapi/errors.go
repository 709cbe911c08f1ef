package reportapi

import (
	"errors"
	"fmt"
)

// Kind classifies request failures.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindBackend
	KindConflict
	KindNotRunning
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindConflict:
		return "conflict"
	case KindNotRunning:
		return "not running"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrTransport  = errors.New("transport failure")
	ErrBackend    = errors.New("backend error")
	ErrConflict   = errors.New("report generation already in progress")
	ErrNotRunning = errors.New("no active report generation")
)

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindConflict:
		return ErrConflict
	case KindNotRunning:
		return ErrNotRunning
	default:
		return ErrBackend
	}
}

// Error is returned by every Client operation.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status > 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConflict) and friends match on Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the failure kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// Message returns the user-facing text for err, preferring the backend's own
// wording when there is one.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
