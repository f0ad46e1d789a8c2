// Package result provides a success/failure box that lets handlers and
// providers return errors as values instead of wrapping every call.
package result

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSuccessful is the panic value of Data on a failed result
	ErrNotSuccessful = errors.New("result: not a successful result")

	// ErrNotFailed is the panic value of Failure on a successful result
	ErrNotFailed = errors.New("result: not a failed result")

	// ErrNilFailure replaces a nil failure so the failure slot is never empty
	ErrNilFailure = errors.New("result: failed without a reason")
)

// Outcome is the type-erased view of a Result. The dispatch pipeline uses it
// to recognize results regardless of their payload type.
type Outcome interface {
	IsError() bool
	Payload() any
	Failure() any
}

// Result holds exactly one of a success payload or a failure payload.
type Result[T any] struct {
	data    T
	failure any
	failed  bool
}

// Ok creates a successful result. If data is itself an error the result is
// a failure instead.
func Ok[T any](data T) Result[T] {
	if err, ok := any(data).(error); ok && err != nil {
		return Result[T]{failure: err, failed: true}
	}
	return Result[T]{data: data}
}

// Failed creates a failed result. The failure may be any value, although
// an error is the usual choice.
func Failed[T any](failure any) Result[T] {
	if failure == nil {
		failure = ErrNilFailure
	}
	return Result[T]{failure: failure, failed: true}
}

// From converts the usual (value, error) pair into a Result
func From[T any](data T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ok(data)
}

// Try runs fn and captures its outcome
func Try[T any](fn func() (T, error)) Result[T] {
	return From(fn())
}

// Map transforms the payload of a successful result and keeps failures as-is
func Map[T, R any](r Result[T], fn func(T) R) Result[R] {
	if r.failed {
		return Result[R]{failure: r.failure, failed: true}
	}
	return Ok(fn(r.data))
}

// IsError reports whether the failure slot is populated
func (r Result[T]) IsError() bool {
	return r.failed
}

// Data returns the success payload. It panics with ErrNotSuccessful when
// called on a failed result.
func (r Result[T]) Data() T {
	if r.failed {
		panic(ErrNotSuccessful)
	}
	return r.data
}

// Failure returns the failure payload. It panics with ErrNotFailed when
// called on a successful result.
func (r Result[T]) Failure() any {
	if !r.failed {
		panic(ErrNotFailed)
	}
	return r.failure
}

// Err returns the failure as an error, or nil for a successful result
func (r Result[T]) Err() error {
	if !r.failed {
		return nil
	}
	if err, ok := r.failure.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r.failure)
}

// Unwrap returns the payload and the failure as an error without panicking
func (r Result[T]) Unwrap() (T, error) {
	return r.data, r.Err()
}

// Payload implements Outcome
func (r Result[T]) Payload() any {
	return r.Data()
}

// Message renders a failure payload as text
func Message(failure any) string {
	switch f := failure.(type) {
	case nil:
		return ""
	case error:
		return f.Error()
	case string:
		return f
	case fmt.Stringer:
		return f.String()
	default:
		return fmt.Sprintf("%v", f)
	}
}
