package lambda

import (
	"context"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

func TestRequestEvent(t *testing.T) {
	tests := []struct {
		name  string
		req   *Request
		check func(t *testing.T, event injection.Event)
	}{
		{
			name: "form body overrides query",
			req: &Request{
				Headers:     map[string]string{"Content-Type": "application/x-www-form-urlencoded", "X-Twilio-Signature": "sig"},
				QueryParams: map[string][]string{"To": {"+1000"}, "Tag": {"a", "b"}},
				Body:        []byte("To=%2B15550001&Body=hello"),
			},
			check: func(t *testing.T, event injection.Event) {
				assert.Equal(t, "+15550001", event["To"])
				assert.Equal(t, "hello", event["Body"])
				assert.Equal(t, []string{"a", "b"}, event["Tag"])

				request := event["request"].(map[string]any)
				headers := request["headers"].(map[string]any)
				assert.Equal(t, "sig", headers["x-twilio-signature"])
			},
		},
		{
			name: "json body",
			req: &Request{
				Headers: map[string]string{"content-type": "application/json; charset=utf-8"},
				Body:    []byte(`{"Token":"abc","count":2,"nested":{"a":true}}`),
			},
			check: func(t *testing.T, event injection.Event) {
				assert.Equal(t, "abc", event["Token"])
				assert.Equal(t, 2.0, event["count"])
				assert.Equal(t, map[string]any{"a": true}, event["nested"])
			},
		},
		{
			name: "cookies",
			req: &Request{
				Headers:    map[string]string{"Cookie": "session=xyz; theme=dark"},
				PathParams: map[string]string{"id": "42"},
			},
			check: func(t *testing.T, event injection.Event) {
				want := map[string]any{"session": "xyz", "theme": "dark"}
				assert.Equal(t, want, event["cookies"])
				assert.Equal(t, want, event["request"].(map[string]any)["cookies"])
				assert.Equal(t, "42", event["id"])
			},
		},
		{
			name: "no body",
			req:  &Request{},
			check: func(t *testing.T, event injection.Event) {
				assert.Equal(t, map[string]any{}, event["cookies"])
				assert.Len(t, event, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := tt.req.Event()
			require.NoError(t, err)
			tt.check(t, event)
		})
	}
}

func TestRequestEvent_InvalidJSON(t *testing.T) {
	for _, body := range []string{`{"a":`, `[1,2]`} {
		req := &Request{
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    []byte(body),
		}
		_, err := req.Event()
		assert.ErrorIs(t, err, ErrInvalidBody, body)
	}
}

func TestFromAPIGateway(t *testing.T) {
	req, err := FromAPIGateway(events.APIGatewayProxyRequest{
		HTTPMethod:                      "POST",
		Path:                            "/sms",
		Headers:                         map[string]string{"Content-Type": "text/plain"},
		MultiValueHeaders:               map[string][]string{"Accept": {"a", "b"}},
		QueryStringParameters:           map[string]string{"one": "1"},
		MultiValueQueryStringParameters: map[string][]string{"many": {"1", "2"}},
		Body:                            base64.StdEncoding.EncodeToString([]byte("raw")),
		IsBase64Encoded:                 true,
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, []byte("raw"), req.Body)
	assert.Equal(t, "a,b", req.Headers["Accept"])
	assert.Equal(t, []string{"1"}, req.QueryParams["one"])
	assert.Equal(t, []string{"1", "2"}, req.QueryParams["many"])

	_, err = FromAPIGateway(events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true})
	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestNewHandler(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	echo := injection.UseInjection(func(_ context.Context, this *injection.Receiver, event injection.Event) (any, error) {
		return map[string]any{"body": event["Body"], "env": this.Env.Get("GREETING")}, nil
	}, &injection.Options{Logger: logger})

	invoker := StaticInvoker{
		Context:   &injection.Context{Env: injection.Env{"GREETING": "hi"}},
		Functions: map[string]injection.Function{"echo": echo},
	}
	ctx := context.Background()

	t.Run("invokes the function", func(t *testing.T) {
		out, err := NewHandler(invoker, "echo")(ctx, events.APIGatewayProxyRequest{
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    `{"Body":"ping"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, 200, out.StatusCode)
		assert.JSONEq(t, `{"body":"ping","env":"hi"}`, out.Body)
		assert.Equal(t, "application/json", out.Headers["Content-Type"])
		assert.Equal(t, "*", out.Headers["Access-Control-Allow-Origin"])
	})

	t.Run("bad body", func(t *testing.T) {
		out, err := NewHandler(invoker, "echo")(ctx, events.APIGatewayProxyRequest{
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    `nope`,
		})
		require.NoError(t, err)
		assert.Equal(t, 400, out.StatusCode)
	})

	t.Run("unknown function", func(t *testing.T) {
		out, err := NewHandler(invoker, "missing")(ctx, events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, 404, out.StatusCode)
	})
}

func TestToAPIGateway(t *testing.T) {
	out := ToAPIGateway(response.NewTwiML("<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response/>"))
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, "application/xml", out.Headers["Content-Type"])
	assert.Contains(t, out.Body, "<Response/>")
}
