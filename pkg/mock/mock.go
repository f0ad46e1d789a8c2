// Package mock runs function handlers in tests without the platform: it
// builds the receiver, binds providers and converts failures the way the
// Functions runtime reports them.
package mock

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

// Params configures Use
type Params struct {
	Providers map[string]injection.ProviderFunc
	Env       injection.Env
	Client    injection.Client // defaults to a fresh *Client
}

// Use wraps handler for direct calls from tests. The returned function
// yields whatever the handler returned; a failure becomes an Unauthorized
// response for rejections (and panicked strings) or an InternalServerError
// response otherwise. No token gate or guard runs.
func Use(handler injection.Handler, params *Params) func(ctx context.Context, event injection.Event) any {
	if params == nil {
		params = &Params{}
	}

	return func(ctx context.Context, event injection.Event) (out any) {
		if ctx == nil {
			ctx = context.Background()
		}

		env := params.Env.Clone()
		client := params.Client
		if client == nil {
			client = NewClient()
		}

		values := make(injection.Event, len(event))
		for k, v := range event {
			values[k] = v
		}
		this := &injection.Receiver{
			Request:   record(values[injection.EventRequest]),
			Cookies:   record(values[injection.EventCookies]),
			Env:       env,
			Providers: injection.BindProviders(params.Providers, injection.Scope{Client: client, Env: env}),
		}
		delete(values, injection.EventRequest)
		delete(values, injection.EventCookies)

		defer func() {
			if rec := recover(); rec != nil {
				out = fromPanic(rec)
			}
		}()

		v, err := handler(ctx, this, values)
		if err != nil {
			return fromError(err)
		}
		return v
	}
}

func fromError(err error) *response.Response {
	if fault.IsRejection(err) {
		return response.NewUnauthorizedError(fault.MessageOf(err))
	}
	return response.NewInternalServerError(err.Error())
}

func fromPanic(rec any) *response.Response {
	switch v := rec.(type) {
	case string:
		return response.NewUnauthorizedError(v)
	case error:
		return fromError(v)
	default:
		return response.NewInternalServerError(fmt.Sprint(v))
	}
}

func record(v any) map[string]any {
	switch r := v.(type) {
	case map[string]any:
		return r
	case injection.Event:
		return map[string]any(r)
	}
	return map[string]any{}
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
