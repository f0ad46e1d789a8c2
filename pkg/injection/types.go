package injection

import (
	"context"
	"sort"

	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/token"
)

// Event is the inbound request as the platform delivers it
type Event map[string]any

// Reserved event keys
const (
	EventRequest = "request"
	EventCookies = "cookies"
	EventToken   = "Token"
)

// Env is the environment record of one invocation
type Env map[string]string

// Get returns the value of key or an empty string
func (e Env) Get(key string) string {
	return e[key]
}

// Lookup returns the value of key and whether it is set
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Clone returns an independent copy
func (e Env) Clone() Env {
	c := make(Env, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

// Keys returns the variable names sorted
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Client is the platform client handle. The pipeline never looks inside it.
type Client any

// ClientFactory produces the client handle for an invocation
type ClientFactory func() Client

// Context is the platform context of an invocation
type Context struct {
	GetTwilioClient ClientFactory
	Env             Env
}

func (c *Context) client() Client {
	if c == nil || c.GetTwilioClient == nil {
		return nil
	}
	return c.GetTwilioClient()
}

func (c *Context) env() Env {
	if c == nil {
		return Env{}
	}
	return c.Env.Clone()
}

// Scope is what providers see: the client and the environment, nothing
// request scoped
type Scope struct {
	Client Client
	Env    Env
}

// Receiver is what a handler sees besides its event values
type Receiver struct {
	Request   map[string]any
	Cookies   map[string]any
	Env       Env
	Providers Providers

	// TokenResult holds the successful validation when the gate ran
	TokenResult *token.Validation
}

// Handler implements the business logic of one function
type Handler func(ctx context.Context, this *Receiver, event Event) (any, error)

// Callback is the platform delivery convention. The pipeline calls it
// exactly once per invocation, always with a nil error.
type Callback func(err error, resp *response.Response)

// Function is a handler wrapped for the platform calling convention
type Function func(ctx context.Context, c *Context, event Event, callback Callback)

// Invoke runs fn and returns the delivered response
func Invoke(ctx context.Context, fn Function, c *Context, event Event) *response.Response {
	var delivered *response.Response
	fn(ctx, c, event, func(_ error, resp *response.Response) {
		delivered = resp
	})
	if delivered == nil {
		return response.NewInternalServerError("function completed without a response")
	}
	return delivered
}

// splitEvent separates the reserved keys from the values handed to the handler
func splitEvent(event Event, tokenField string) (request, cookies map[string]any, tok string, values Event) {
	values = make(Event, len(event))
	for k, v := range event {
		values[k] = v
	}

	request = asRecord(values[EventRequest])
	cookies = asRecord(values[EventCookies])
	delete(values, EventRequest)
	delete(values, EventCookies)

	tok = tokenValue(values, tokenField)
	delete(values, tokenField)

	return request, cookies, tok, values
}

func tokenValue(values Event, field string) string {
	if s, ok := values[field].(string); ok {
		return s
	}
	return ""
}

func asRecord(v any) map[string]any {
	switch r := v.(type) {
	case map[string]any:
		return r
	case Event:
		return map[string]any(r)
	case map[string]string:
		m := make(map[string]any, len(r))
		for k, s := range r {
			m[k] = s
		}
		return m
	}
	return map[string]any{}
}
