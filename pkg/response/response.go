// Package response defines the normalized values a function delivers to the
// platform: a plain Response, the four error responses and the TwiML response.
//
// Every Response carries the CORS headers the Functions runtime expects and a
// Content-Type derived from its body. Values are immutable once constructed;
// WithHeaders returns a modified copy.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"twilio-functions-utils/pkg/typeof"
)

// Kind tags the variant of a Response
type Kind int

const (
	KindPlain Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindInternalServerError
	KindTwiML
)

// String returns the type name used in error bodies
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequestError"
	case KindUnauthorized:
		return "UnauthorizedError"
	case KindNotFound:
		return "NotFoundError"
	case KindInternalServerError:
		return "InternalServerError"
	case KindTwiML:
		return "TwiMLResponse"
	default:
		return "Response"
	}
}

const (
	ContentTypeText = "text/plain"
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
)

// Keys stripped from structured bodies before they are sent
var bookkeepingKeys = map[string]struct{}{
	"_version":  {},
	"_solution": {},
	"_context":  {},
}

// Response is a normalized HTTP response
type Response struct {
	kind       Kind
	statusCode int
	body       any
	headers    Headers
}

// Option customizes a Response during construction
type Option func(*Response)

// WithStatusCode sets the status code
func WithStatusCode(code int) Option {
	return func(r *Response) {
		r.statusCode = code
	}
}

// WithHeader appends a header after the defaults have been applied
func WithHeader(key, value string) Option {
	return func(r *Response) {
		r.headers.Set(key, value)
	}
}

// New creates a plain Response with status 200 unless overridden.
//
// A string body is sent as text/plain. Any other body is sent as JSON; for
// object bodies the _version, _solution and _context keys and any function
// valued entries are removed first. Arrays are sent untouched. A nil body
// becomes an empty object.
func New(body any, opts ...Option) *Response {
	r := &Response{
		kind:       KindPlain,
		statusCode: http.StatusOK,
		headers:    NewHeaders(),
	}

	if body == nil {
		body = map[string]any{}
	}

	applyCORS(&r.headers)

	if s, ok := body.(string); ok {
		r.headers.Set("Content-Type", ContentTypeText)
		r.body = s
	} else {
		r.headers.Set("Content-Type", ContentTypeJSON)
		r.body = stripBody(body)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func applyCORS(h *Headers) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "OPTIONS, POST")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// Kind returns the variant tag
func (r *Response) Kind() Kind {
	return r.kind
}

// StatusCode returns the HTTP status code
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Body returns the body as constructed
func (r *Response) Body() any {
	return r.body
}

// Headers returns a copy of the headers
func (r *Response) Headers() Headers {
	return r.headers.Clone()
}

// Header returns a single header value
func (r *Response) Header(key string) string {
	return r.headers.Get(key)
}

// IsError reports whether the response is one of the error variants
func (r *Response) IsError() bool {
	switch r.kind {
	case KindBadRequest, KindUnauthorized, KindNotFound, KindInternalServerError:
		return true
	}
	return false
}

// WithHeaders returns a copy of r with the given headers written over its own
func (r *Response) WithHeaders(headers map[string]string) *Response {
	c := *r
	c.headers = r.headers.Clone()
	for k, v := range headers {
		c.headers.Set(k, v)
	}
	return &c
}

// Encode renders the body for the wire
func (r *Response) Encode() ([]byte, error) {
	switch b := r.body.(type) {
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	}

	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s body: %w", r.kind, err)
	}
	return data, nil
}

// String renders the response for logs
func (r *Response) String() string {
	return fmt.Sprintf("%s(%d)", r.kind, r.statusCode)
}

// stripBody removes bookkeeping keys from object bodies. Arrays and scalars
// pass through.
func stripBody(body any) any {
	if _, ok := body.(json.RawMessage); ok {
		return body
	}
	if typeof.Of(body) != typeof.Object {
		return body
	}

	obj, ok := toObject(body)
	if !ok {
		return body
	}

	stripped := make(map[string]any, len(obj))
	for k, v := range obj {
		if _, skip := bookkeepingKeys[k]; skip {
			continue
		}
		if typeof.Of(v) == typeof.Function {
			continue
		}
		stripped[k] = v
	}
	return stripped
}

// toObject converts string keyed maps and structs to map[string]any
func toObject(body any) (map[string]any, bool) {
	if m, ok := body.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(body)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Map {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, true
	}

	// Structs go through their JSON form so field tags are honored
	if data, err := json.Marshal(body); err == nil {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err == nil {
			return m, true
		}
	}

	// Structs JSON refuses (func fields) are decoded field by field
	var m map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &m,
	})
	if err != nil {
		return nil, false
	}
	if err := decoder.Decode(rv.Interface()); err != nil {
		return nil, false
	}
	return m, true
}
