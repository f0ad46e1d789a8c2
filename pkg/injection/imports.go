package injection

import (
	"context"
	"time"

	"twilio-functions-utils/pkg/token"
)

// ImportReceiver is what an imports-style handler sees. It carries the client
// handle directly instead of bound providers.
type ImportReceiver struct {
	Request     map[string]any
	Cookies     map[string]any
	Env         Env
	Twilio      Client
	TokenResult *token.Validation
}

// Scope returns the client and environment for resolving runtime exports
func (r *ImportReceiver) Scope() Scope {
	return Scope{Client: r.Twilio, Env: r.Env.Clone()}
}

// ImportHandler is the handler shape used with UseImports
type ImportHandler func(ctx context.Context, this *ImportReceiver, event Event) (any, error)

// UseImports wraps an imports-style handler. Gate, guards and normalization
// behave exactly as in UseInjection; Options.Providers is ignored.
func UseImports(handler ImportHandler, opts *Options) Function {
	o := opts.withDefaults()

	return func(ctx context.Context, c *Context, event Event, callback Callback) {
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()

		env := c.env()
		request, cookies, tok, values := splitEvent(event, o.TokenField)

		this := &ImportReceiver{
			Request: request,
			Cookies: cookies,
			Env:     env,
			Twilio:  c.client(),
		}
		gated := &Receiver{Request: request, Cookies: cookies, Env: env}

		resp := o.dispatch(ctx, tok, gated, values, func(ctx context.Context) (any, error) {
			this.TokenResult = gated.TokenResult
			return handler(ctx, this, values)
		})

		o.complete(ctx, resp, start)

		if callback != nil {
			callback(nil, resp)
		}
	}
}
