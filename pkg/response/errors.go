package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Default messages used when an error response is created without one
const (
	DefaultBadRequestMessage          = "The request sent to the server is invalid or corrupted!"
	DefaultUnauthorizedMessage        = "The received request could not be verified!"
	DefaultNotFoundMessage            = "The content you are looking for was not found!"
	DefaultInternalServerErrorMessage = "The server encountered an unexpected condition that prevented it from fulfilling the request!"
)

func newError(kind Kind, status int, message, fallback string) *Response {
	if message == "" {
		message = fallback
	}
	r := New(fmt.Sprintf("[ %s ]: %s", kind, message), WithStatusCode(status))
	r.kind = kind
	return r
}

// NewBadRequestError creates a 400 response. An empty message uses the default.
func NewBadRequestError(message string) *Response {
	return newError(KindBadRequest, http.StatusBadRequest, message, DefaultBadRequestMessage)
}

// NewUnauthorizedError creates a 401 response. An empty message uses the default.
func NewUnauthorizedError(message string) *Response {
	return newError(KindUnauthorized, http.StatusUnauthorized, message, DefaultUnauthorizedMessage)
}

// NewNotFoundError creates a 404 response. An empty message uses the default.
func NewNotFoundError(message string) *Response {
	return newError(KindNotFound, http.StatusNotFound, message, DefaultNotFoundMessage)
}

// NewInternalServerError creates a 500 response. An empty message uses the default.
func NewInternalServerError(message string) *Response {
	return newError(KindInternalServerError, http.StatusInternalServerError, message, DefaultInternalServerErrorMessage)
}

// ForStatus picks the error response matching status. Unknown statuses
// become an InternalServerError.
func ForStatus(status int, message string) *Response {
	switch status {
	case http.StatusBadRequest:
		return NewBadRequestError(message)
	case http.StatusUnauthorized:
		return NewUnauthorizedError(message)
	case http.StatusNotFound:
		return NewNotFoundError(message)
	default:
		return NewInternalServerError(message)
	}
}

// Error carries a Response through an error return. Handlers use it to
// deliver a prepared response from deep inside a call chain.
type Error struct {
	Response *Response
}

func (e *Error) Error() string {
	if s, ok := e.Response.body.(string); ok {
		return s
	}
	return e.Response.String()
}

// Err wraps r as an error
func (r *Response) Err() error {
	return &Error{Response: r}
}

// FromError returns the Response carried by err, if any
func FromError(err error) (*Response, bool) {
	var re *Error
	if errors.As(err, &re) && re.Response != nil {
		return re.Response, true
	}
	return nil, false
}

// StatusCoder is implemented by errors that know their HTTP status
type StatusCoder interface {
	StatusCode() int
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string   { return e.err.Error() }
func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) StatusCode() int { return e.status }

// WithStatus annotates err with an HTTP status. A nil err stays nil.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &statusError{err: err, status: status}
}

// StatusOf returns the status carried by err's chain
func StatusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}
