package response

import (
	"fmt"
	"net/http"
	"strings"
)

// XMLProlog is the declaration every TwiML document starts with
const XMLProlog = `<?xml version="1.0" encoding="UTF-8"?>`

// EmptyTwiML is the document sent when a body cannot be rendered
const EmptyTwiML = XMLProlog + `<Response />`

// NewTwiML creates an application/xml response.
//
// A string body is used as given. Any other body must be a fmt.Stringer whose
// output starts with the XML prolog; otherwise the response falls back to an
// empty <Response /> document with status 200.
func NewTwiML(body any, opts ...Option) *Response {
	r := &Response{
		kind:       KindTwiML,
		statusCode: http.StatusOK,
		headers:    NewHeaders(),
	}
	applyCORS(&r.headers)
	r.headers.Set("Content-Type", ContentTypeXML)

	for _, opt := range opts {
		opt(r)
	}

	switch b := body.(type) {
	case string:
		r.body = b
	case fmt.Stringer:
		if doc := b.String(); strings.HasPrefix(doc, XMLProlog) {
			r.body = doc
			return r
		}
		r.body = EmptyTwiML
		r.statusCode = http.StatusOK
	default:
		r.body = EmptyTwiML
		r.statusCode = http.StatusOK
	}

	return r
}
