// Package injection wraps function handlers for the Functions calling
// convention.
//
// UseInjection turns a Handler into a Function that, for every invocation,
// splits the platform context into client and environment, binds the
// registered providers to them, optionally validates the request token, runs
// guards and the handler, and delivers exactly one normalized response
// through the callback. Failures never reach the callback's error argument;
// they are delivered as error responses.
package injection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/token"
)

// Options configures UseInjection
type Options struct {
	// Name identifies the function in logs
	Name string

	Providers map[string]ProviderFunc

	// ValidateToken enables the token gate
	ValidateToken bool
	// Validator checks tokens; nil means the Flex IAM validator
	Validator token.Validator

	TokenField      string
	AccountSIDField string
	AuthTokenField  string

	// Guards run in order after the gate
	Guards []Guard

	ResultFailurePolicy ResultFailurePolicy

	// DisableStringRejections delivers panicked strings as 500 instead of 401
	DisableStringRejections bool

	Logger *logrus.Logger

	// OnComplete observes every delivered response
	OnComplete func(name string, resp *response.Response, elapsed time.Duration)
}

func (o *Options) withDefaults() *Options {
	c := Options{}
	if o != nil {
		c = *o
	}
	if c.Name == "" {
		c.Name = "function"
	}
	if c.TokenField == "" {
		c.TokenField = EventToken
	}
	if c.AccountSIDField == "" {
		c.AccountSIDField = "ACCOUNT_SID"
	}
	if c.AuthTokenField == "" {
		c.AuthTokenField = "AUTH_TOKEN"
	}
	if c.ValidateToken && c.Validator == nil {
		c.Validator = token.NewFlexValidator()
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return &c
}

func (o *Options) normalizer() normalizer {
	return normalizer{
		policy:                  o.ResultFailurePolicy,
		disableStringRejections: o.DisableStringRejections,
	}
}

// UseInjection wraps handler for the platform calling convention
func UseInjection(handler Handler, opts *Options) Function {
	o := opts.withDefaults()

	return func(ctx context.Context, c *Context, event Event, callback Callback) {
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()

		env := c.env()
		scope := Scope{Client: c.client(), Env: env.Clone()}
		request, cookies, tok, values := splitEvent(event, o.TokenField)

		this := &Receiver{
			Request:   request,
			Cookies:   cookies,
			Env:       env,
			Providers: BindProviders(o.Providers, scope),
		}

		resp := o.dispatch(ctx, tok, this, values, func(ctx context.Context) (any, error) {
			return handler(ctx, this, values)
		})

		o.complete(ctx, resp, start)

		if callback != nil {
			callback(nil, resp)
		}
	}
}

// dispatch runs gate, guards and call under a single recovery guard
func (o *Options) dispatch(ctx context.Context, tok string, this *Receiver, values Event, call func(context.Context) (any, error)) (resp *response.Response) {
	n := o.normalizer()

	defer func() {
		if rec := recover(); rec != nil {
			o.Logger.WithFields(logrus.Fields{
				"function": o.Name,
				"panic":    rec,
			}).Error("Handler panicked")
			resp = n.panic(rec)
		}
	}()

	if o.ValidateToken {
		validation, rejected := o.gate(ctx, this.Env, tok)
		if rejected != nil {
			return rejected
		}
		this.TokenResult = validation
	}

	for _, guard := range o.Guards {
		if err := guard(ctx, this, values); err != nil {
			return n.error(err)
		}
	}

	return n.value(call(ctx))
}

func (o *Options) complete(ctx context.Context, resp *response.Response, start time.Time) {
	elapsed := time.Since(start)

	fields := logrus.Fields{
		"function":      o.Name,
		"invocation_id": invocationID(ctx),
		"status_code":   resp.StatusCode(),
		"kind":          resp.Kind().String(),
		"latency_ms":    float64(elapsed.Nanoseconds()) / 1000000,
	}

	entry := o.Logger.WithFields(fields)
	switch {
	case resp.StatusCode() >= 500:
		entry.Error("Function failed")
	case resp.StatusCode() >= 400:
		entry.Warn("Function rejected request")
	default:
		entry.Debug("Function completed")
	}

	if o.OnComplete != nil {
		o.OnComplete(o.Name, resp, elapsed)
	}
}

type invocationKey struct{}

// WithInvocationID attaches an invocation id to ctx; the dev server and the
// Lambda adapter use their request ids
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

func invocationID(ctx context.Context) string {
	if id, ok := ctx.Value(invocationKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
