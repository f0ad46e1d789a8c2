package mock

import (
	"context"

	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

// Harness runs handlers through the full injection pipeline with shared
// defaults, so each test only states what differs.
type Harness struct {
	env       injection.Env
	providers map[string]injection.ProviderFunc
	client    injection.Client
	opts      injection.Options
}

// NewHarness creates a harness with an empty environment, no providers and a
// fresh fake client
func NewHarness() *Harness {
	return &Harness{
		env:       injection.Env{},
		providers: map[string]injection.ProviderFunc{},
		client:    NewClient(),
		opts:      injection.Options{Logger: discardLogger()},
	}
}

// WithEnv sets the environment handed to every invocation
func (h *Harness) WithEnv(env injection.Env) *Harness {
	h.env = env.Clone()
	return h
}

// WithProviders sets the providers bound for every invocation
func (h *Harness) WithProviders(providers map[string]injection.ProviderFunc) *Harness {
	h.providers = providers
	return h
}

// WithClient sets the client handle
func (h *Harness) WithClient(client injection.Client) *Harness {
	h.client = client
	return h
}

// WithOptions sets the pipeline options. Providers are always taken from the
// harness; a nil logger keeps the harness' silent one.
func (h *Harness) WithOptions(opts injection.Options) *Harness {
	logger := h.opts.Logger
	h.opts = opts
	if h.opts.Logger == nil {
		h.opts.Logger = logger
	}
	return h
}

// Context returns the platform context the harness invokes with
func (h *Harness) Context() *injection.Context {
	client := h.client
	return &injection.Context{
		GetTwilioClient: func() injection.Client { return client },
		Env:             h.env.Clone(),
	}
}

// Test runs handler with event and returns the delivered response
func (h *Harness) Test(ctx context.Context, handler injection.Handler, event injection.Event) *response.Response {
	opts := h.opts
	opts.Providers = h.providers
	return injection.Invoke(ctx, injection.UseInjection(handler, &opts), h.Context(), event)
}

// Use wraps handler with the harness defaults, like the package level Use
func (h *Harness) Use(handler injection.Handler) func(ctx context.Context, event injection.Event) any {
	return Use(handler, &Params{Providers: h.providers, Env: h.env, Client: h.client})
}
