package adapter

import (
	"errors"
	"fmt"
)

// Error kinds. Every adapter failure is an *Error whose Kind is one of
// these, so callers can match with errors.Is.
var (
	// ErrMissingCapability indicates a method required by the adapter's mode
	// is not defined on the foreign object.
	ErrMissingCapability = errors.New("missing capability")

	// ErrForeignCallFailed indicates a resolved method was called and the
	// foreign object reported a failure.
	ErrForeignCallFailed = errors.New("foreign call failed")

	// ErrUnexpectedReturnType indicates a foreign call succeeded but returned
	// a value that is not the expected integer or byte string.
	ErrUnexpectedReturnType = errors.New("unexpected return type")

	// ErrInvalidWhence indicates a seek origin other than io.SeekStart,
	// io.SeekCurrent or io.SeekEnd.
	ErrInvalidWhence = errors.New("invalid whence")
)

// Error is the single I/O error type surfaced by the adapters.
//
// Op names the foreign method involved. Detail carries the text of the
// underlying foreign failure; the foreign error value itself is never
// exposed.
type Error struct {
	Op     string
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("lazio: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("lazio: %s: %v: %s", e.Op, e.Kind, e.Detail)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func missingCapability(method string, cause error) *Error {
	e := &Error{Op: method, Kind: ErrMissingCapability}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func foreignCallFailed(op string, cause error) *Error {
	return &Error{Op: op, Kind: ErrForeignCallFailed, Detail: cause.Error()}
}

func invalidWhence(whence int) *Error {
	return &Error{Op: MethodSeek, Kind: ErrInvalidWhence, Detail: fmt.Sprintf("whence %d", whence)}
}

func unexpectedReturn(op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: ErrUnexpectedReturnType, Detail: fmt.Sprintf(format, args...)}
}
