package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r := New(nil)

	assert.Equal(t, http.StatusOK, r.StatusCode())
	assert.Equal(t, map[string]any{}, r.Body())
	assert.Equal(t, "*", r.Header("Access-Control-Allow-Origin"))
	assert.Equal(t, "OPTIONS, POST", r.Header("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", r.Header("Access-Control-Allow-Headers"))
	assert.Equal(t, KindPlain, r.Kind())
	assert.False(t, r.IsError())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, ContentTypeText, New("abc").Header("Content-Type"))
	assert.Equal(t, ContentTypeJSON, New(map[string]any{}).Header("Content-Type"))
	assert.Equal(t, ContentTypeJSON, New([]int{1}).Header("Content-Type"))
}

func TestHeaderLastWriteWins(t *testing.T) {
	pairs := [][2]string{
		{"X-Trace", "b"},
		{"Content-Type", "text/csv"},
		{"Access-Control-Allow-Origin", "https://example.com"},
	}

	for _, p := range pairs {
		t.Run(p[0], func(t *testing.T) {
			r := New("x", WithHeader(p[0], "first"), WithHeader(p[0], p[1]))

			count := 0
			for _, k := range r.Headers().Keys() {
				if k == p[0] {
					count++
				}
			}
			assert.Equal(t, 1, count)
			assert.Equal(t, p[1], r.Header(p[0]))
		})
	}
}

func TestBodyStripping(t *testing.T) {
	r := New(map[string]any{"a": 1, "_version": "x", "_context": "y", "_solution": "z"})
	assert.Equal(t, map[string]any{"a": 1}, r.Body())

	withFunc := New(map[string]any{"a": 1, "fetch": func() {}})
	assert.Equal(t, map[string]any{"a": 1}, withFunc.Body())
}

func TestArrayBodyUntouched(t *testing.T) {
	body := []any{1, map[string]any{"_version": "x"}}
	r := New(body)

	assert.Equal(t, body, r.Body())
}

func TestStructBody(t *testing.T) {
	type message struct {
		SID     string `json:"sid"`
		Version string `json:"_version"`
	}

	r := New(message{SID: "SM1", Version: "v1"})
	assert.Equal(t, map[string]any{"sid": "SM1"}, r.Body())

	data, err := r.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sid":"SM1"}`, string(data))
}

func TestStructBodyWithFuncField(t *testing.T) {
	type resource struct {
		SID    string `json:"sid"`
		Remove func() error
	}

	r := New(resource{SID: "CA1", Remove: func() error { return nil }})
	assert.Equal(t, map[string]any{"sid": "CA1"}, r.Body())
}

func TestWithHeadersCopies(t *testing.T) {
	original := New("x")
	updated := original.WithHeaders(map[string]string{"X-Custom": "1"})

	assert.Equal(t, "1", updated.Header("X-Custom"))
	assert.Empty(t, original.Header("X-Custom"))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		resp   *Response
		status int
		kind   Kind
		body   string
	}{
		{"bad request default", NewBadRequestError(""), 400, KindBadRequest, "[ BadRequestError ]: " + DefaultBadRequestMessage},
		{"unauthorized custom", NewUnauthorizedError("bad sig"), 401, KindUnauthorized, "[ UnauthorizedError ]: bad sig"},
		{"not found default", NewNotFoundError(""), 404, KindNotFound, "[ NotFoundError ]: " + DefaultNotFoundMessage},
		{"internal custom", NewInternalServerError("boom"), 500, KindInternalServerError, "[ InternalServerError ]: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.resp.StatusCode())
			assert.Equal(t, tt.kind, tt.resp.Kind())
			assert.Equal(t, tt.body, tt.resp.Body())
			assert.Equal(t, ContentTypeText, tt.resp.Header("Content-Type"))
			assert.Equal(t, "*", tt.resp.Header("Access-Control-Allow-Origin"))
			assert.True(t, tt.resp.IsError())
		})
	}
}

func TestForStatus(t *testing.T) {
	assert.Equal(t, KindBadRequest, ForStatus(400, "").Kind())
	assert.Equal(t, KindUnauthorized, ForStatus(401, "").Kind())
	assert.Equal(t, KindNotFound, ForStatus(404, "").Kind())
	assert.Equal(t, KindInternalServerError, ForStatus(418, "").Kind())
}

type stringer string

func (s stringer) String() string { return string(s) }

func TestTwiMLProlog(t *testing.T) {
	r := NewTwiML(stringer("<Response><Say>hi</Say></Response>"), WithStatusCode(201))

	assert.Equal(t, http.StatusOK, r.StatusCode())
	assert.Equal(t, EmptyTwiML, r.Body())
	assert.Equal(t, ContentTypeXML, r.Header("Content-Type"))
}

func TestTwiMLValidDocument(t *testing.T) {
	doc := XMLProlog + "<Response><Say>hi</Say></Response>"

	assert.Equal(t, doc, NewTwiML(stringer(doc)).Body())
	assert.Equal(t, doc, NewTwiML(doc).Body())
	assert.Equal(t, EmptyTwiML, NewTwiML(42).Body())
}

func TestResponseAsError(t *testing.T) {
	resp := NewNotFoundError("no such call")
	err := fmt.Errorf("lookup: %w", resp.Err())

	got, ok := FromError(err)
	require.True(t, ok)
	assert.Same(t, resp, got)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithStatus(t *testing.T) {
	err := WithStatus(errors.New("missing"), http.StatusNotFound)

	status, ok := StatusOf(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Nil(t, WithStatus(nil, 400))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, http.StatusCreated, Created(map[string]any{"id": 1}).StatusCode())
	assert.Equal(t, http.StatusAccepted, Accepted("queued").StatusCode())
	assert.Equal(t, http.StatusNoContent, NoContent().StatusCode())

	redirect := Redirect("https://example.com", 0)
	assert.Equal(t, http.StatusFound, redirect.StatusCode())
	assert.Equal(t, "https://example.com", redirect.Header("Location"))

	api := API([]int{1}, APIOptions{Message: "done"})
	assert.Equal(t, map[string]any{"success": true, "data": []int{1}, "message": "done"}, api.Body())
}
