// Package fault carries the kind of a failure alongside the error so the
// dispatch pipeline can pick a status without inspecting runtime types.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure
type Kind int

const (
	// KindRuntimeFault is an unexpected failure; it becomes a 500
	KindRuntimeFault Kind = iota
	// KindAuthRejection is an authentication rejection; it becomes a 401
	KindAuthRejection
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindAuthRejection:
		return "AuthRejection"
	default:
		return "RuntimeFault"
	}
}

// Error is an error tagged with a Kind
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Reject creates an authentication rejection
func Reject(message string) error {
	return &Error{Kind: KindAuthRejection, Message: message}
}

// Rejectf creates an authentication rejection with a formatted message
func Rejectf(format string, args ...any) error {
	return Reject(fmt.Sprintf(format, args...))
}

// Wrap tags err as a runtime fault. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindRuntimeFault, Message: message, Err: err}
}

// KindOf returns the kind of the first tagged error in err's chain.
// Untagged errors are runtime faults.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindRuntimeFault
}

// IsRejection reports whether err is an authentication rejection
func IsRejection(err error) bool {
	return err != nil && KindOf(err) == KindAuthRejection
}

// MessageOf returns the message a client should see for err
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
