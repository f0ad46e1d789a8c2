package response

import "net/http"

// OK creates a 200 JSON or text response
func OK(body any, opts ...Option) *Response {
	return New(body, opts...)
}

// Created creates a 201 response
func Created(body any, opts ...Option) *Response {
	return New(body, append([]Option{WithStatusCode(http.StatusCreated)}, opts...)...)
}

// Accepted creates a 202 response
func Accepted(body any, opts ...Option) *Response {
	return New(body, append([]Option{WithStatusCode(http.StatusAccepted)}, opts...)...)
}

// NoContent creates a 204 response with an empty text body
func NoContent() *Response {
	return New("", WithStatusCode(http.StatusNoContent))
}

// Redirect creates a redirect to url. A zero code means 302.
func Redirect(url string, code int) *Response {
	if code == 0 {
		code = http.StatusFound
	}
	return New("", WithStatusCode(code), WithHeader("Location", url))
}

// APIOptions shapes the envelope produced by API
type APIOptions struct {
	// Failed marks the envelope as unsuccessful
	Failed  bool
	Message string
	Meta    any
}

// API wraps data in a {success, data, message?, meta?} envelope
func API(data any, opts APIOptions) *Response {
	envelope := map[string]any{
		"success": !opts.Failed,
		"data":    data,
	}
	if opts.Message != "" {
		envelope["message"] = opts.Message
	}
	if opts.Meta != nil {
		envelope["meta"] = opts.Meta
	}
	return New(envelope)
}
