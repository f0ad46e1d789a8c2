package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twilio-functions-utils/pkg/client"
	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

func TestUse(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the handler value as is", func(t *testing.T) {
		fn := Use(func(ctx context.Context, this *injection.Receiver, event injection.Event) (any, error) {
			return map[string]any{"to": event["To"], "request": this.Request["headers"]}, nil
		}, nil)

		got := fn(ctx, injection.Event{
			"To":      "+15550001",
			"request": map[string]any{"headers": "h"},
		})
		assert.Equal(t, map[string]any{"to": "+15550001", "request": "h"}, got)
	})

	t.Run("providers see env and client", func(t *testing.T) {
		fake := NewClient()
		fn := Use(func(ctx context.Context, this *injection.Receiver, _ injection.Event) (any, error) {
			return this.Providers.Call(ctx, "whoami")
		}, &Params{
			Env:    injection.Env{"NAME": "ana"},
			Client: fake,
			Providers: map[string]injection.ProviderFunc{
				"whoami": func(_ context.Context, scope injection.Scope, _ ...any) (any, error) {
					return scope.Env.Get("NAME") + "@" + scope.Client.(*Client).AccountSID(), nil
				},
			},
		})

		assert.Equal(t, "ana@"+fake.AccountSID(), fn(ctx, injection.Event{}))
	})

	t.Run("rejection becomes unauthorized", func(t *testing.T) {
		fn := Use(func(context.Context, *injection.Receiver, injection.Event) (any, error) {
			return nil, fault.Reject("nope")
		}, nil)

		resp, ok := fn(ctx, injection.Event{}).(*response.Response)
		require.True(t, ok)
		assert.Equal(t, 401, resp.StatusCode())
		assert.Equal(t, "[ UnauthorizedError ]: nope", resp.Body())
	})

	t.Run("panicked string becomes unauthorized", func(t *testing.T) {
		fn := Use(func(context.Context, *injection.Receiver, injection.Event) (any, error) {
			panic("go away")
		}, nil)

		resp := fn(ctx, injection.Event{}).(*response.Response)
		assert.Equal(t, 401, resp.StatusCode())
	})

	t.Run("other errors become internal server errors", func(t *testing.T) {
		fn := Use(func(context.Context, *injection.Receiver, injection.Event) (any, error) {
			return nil, errors.New("boom")
		}, nil)

		resp := fn(ctx, injection.Event{}).(*response.Response)
		assert.Equal(t, 500, resp.StatusCode())
		assert.Equal(t, "[ InternalServerError ]: boom", resp.Body())
	})

	t.Run("env writes do not leak between calls", func(t *testing.T) {
		params := &Params{Env: injection.Env{"A": "1"}}
		fn := Use(func(_ context.Context, this *injection.Receiver, _ injection.Event) (any, error) {
			before := this.Env["A"]
			this.Env["A"] = "changed"
			return before, nil
		}, params)

		assert.Equal(t, "1", fn(ctx, injection.Event{}))
		assert.Equal(t, "1", fn(ctx, injection.Event{}))
		assert.Equal(t, "1", params.Env["A"])
	})
}

func TestHarness(t *testing.T) {
	ctx := context.Background()
	send := ResolvedValue("SM123")

	h := NewHarness().
		WithEnv(injection.Env{"ACCOUNT_SID": "AC1", "AUTH_TOKEN": "secret"}).
		WithProviders(map[string]injection.ProviderFunc{"send": send.Provider()})

	handler := func(ctx context.Context, this *injection.Receiver, event injection.Event) (any, error) {
		sid, err := this.Providers.Call(ctx, "send", event["Body"])
		if err != nil {
			return nil, err
		}
		return response.OK(map[string]any{"sid": sid}), nil
	}

	t.Run("runs the full pipeline", func(t *testing.T) {
		resp := h.Test(ctx, handler, injection.Event{"Body": "hi"})
		assert.Equal(t, 200, resp.StatusCode())
		assert.Equal(t, map[string]any{"sid": "SM123"}, resp.Body())
		assert.Equal(t, 1, send.CallCount())
		assert.Equal(t, []any{"hi"}, send.LastCall())
	})

	t.Run("token gate with stub validator", func(t *testing.T) {
		validator := ValidToken("agent")
		gated := NewHarness().
			WithEnv(injection.Env{"ACCOUNT_SID": "AC1", "AUTH_TOKEN": "secret"}).
			WithOptions(injection.Options{ValidateToken: true, Validator: validator})

		resp := gated.Test(ctx, func(_ context.Context, this *injection.Receiver, _ injection.Event) (any, error) {
			return this.TokenResult.Identity, nil
		}, injection.Event{"Token": "tok"})

		assert.Equal(t, 200, resp.StatusCode())
		assert.Equal(t, "agent", resp.Body())
		assert.Equal(t, []string{"tok"}, validator.Tokens())
	})

	t.Run("invalid token", func(t *testing.T) {
		gated := NewHarness().
			WithEnv(injection.Env{"ACCOUNT_SID": "AC1", "AUTH_TOKEN": "secret"}).
			WithOptions(injection.Options{ValidateToken: true, Validator: InvalidToken("Token is expired")})

		resp := gated.Test(ctx, handler, injection.Event{"Token": "tok"})
		assert.Equal(t, 401, resp.StatusCode())
		assert.Equal(t, "[ UnauthorizedError ]: Token is expired", resp.Body())
	})

	t.Run("failing provider", func(t *testing.T) {
		failing := NewHarness().WithProviders(map[string]injection.ProviderFunc{
			"send": RejectedValue(errors.New("carrier down")).Provider(),
		})

		resp := failing.Test(ctx, handler, injection.Event{})
		assert.Equal(t, 500, resp.StatusCode())
		assert.Equal(t, "[ InternalServerError ]: carrier down", resp.Body())
	})
}

func TestFn(t *testing.T) {
	ctx := context.Background()

	f := NewFn()
	v, err := f.Call(ctx, 1, "two")
	assert.NoError(t, err)
	assert.Nil(t, v)

	f2 := Implementation(func(_ context.Context, args ...any) (any, error) {
		return len(args), nil
	})
	v, err = f2.Call(ctx, "a", "b")
	assert.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Equal(t, [][]any{{1, "two"}}, f.Calls())
	f.Reset()
	assert.Equal(t, 0, f.CallCount())
	assert.Nil(t, f.LastCall())
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	fake := NewClient()

	msg, err := fake.CreateMessage(ctx, client.MessageParams{To: "+15550001", From: "+15550002", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "SM", msg.SID[:2])
	assert.Equal(t, fake.AccountSID(), msg.AccountSID)

	fetched, err := fake.FetchMessage(ctx, msg.SID)
	require.NoError(t, err)
	assert.Equal(t, "hello", fetched.Body)

	_, err = fake.FetchMessage(ctx, "SMmissing")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode())

	_, err = fake.CreateMessage(ctx, client.MessageParams{To: "+15550001"})
	assert.ErrorIs(t, err, client.ErrMissingParam)

	_, err = fake.CreateCall(ctx, client.CallParams{To: "+15550001", From: "+15550002", Twiml: "<Response/>"})
	require.NoError(t, err)

	fake.CallErr = errors.New("busy")
	_, err = fake.CreateCall(ctx, client.CallParams{To: "+15550001", From: "+15550002", URL: "https://x"})
	assert.EqualError(t, err, "busy")

	assert.Len(t, fake.Messages(), 1)
	assert.Len(t, fake.Calls(), 1)
}
