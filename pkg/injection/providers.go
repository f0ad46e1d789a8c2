package injection

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrProviderNotFound is returned when calling a provider that was not registered
var ErrProviderNotFound = errors.New("provider not found")

// ProviderFunc is an auxiliary function registered by a handler author. It
// receives the invocation Scope on every call.
type ProviderFunc func(ctx context.Context, scope Scope, args ...any) (any, error)

// BoundProvider is a ProviderFunc with its Scope already captured
type BoundProvider func(ctx context.Context, args ...any) (any, error)

// Providers is the read-only set of bound providers a handler receives
type Providers struct {
	bound map[string]BoundProvider
}

// BindProviders captures scope in every provider of defs
func BindProviders(defs map[string]ProviderFunc, scope Scope) Providers {
	bound := make(map[string]BoundProvider, len(defs))
	for name, fn := range defs {
		if fn == nil {
			continue
		}
		fn := fn
		bound[name] = func(ctx context.Context, args ...any) (any, error) {
			return fn(ctx, scope, args...)
		}
	}
	return Providers{bound: bound}
}

// Get returns the provider registered under name
func (p Providers) Get(name string) (BoundProvider, bool) {
	fn, ok := p.bound[name]
	return fn, ok
}

// Call invokes the provider registered under name
func (p Providers) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := p.bound[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return fn(ctx, args...)
}

// Names returns the registered provider names sorted
func (p Providers) Names() []string {
	names := make([]string, 0, len(p.bound))
	for name := range p.bound {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of providers
func (p Providers) Len() int {
	return len(p.bound)
}

// Provide adapts a typed single-argument function to a ProviderFunc.
// A call without arguments passes the zero value of In.
func Provide[In, Out any](fn func(ctx context.Context, scope Scope, in In) (Out, error)) ProviderFunc {
	return func(ctx context.Context, scope Scope, args ...any) (any, error) {
		var in In
		if len(args) > 0 && args[0] != nil {
			v, ok := args[0].(In)
			if !ok {
				return nil, fmt.Errorf("provider expects %T, got %T", in, args[0])
			}
			in = v
		}
		return fn(ctx, scope, in)
	}
}

// Call invokes a provider and asserts its result to Out
func Call[Out any](ctx context.Context, p Providers, name string, args ...any) (Out, error) {
	var out Out
	v, err := p.Call(ctx, name, args...)
	if err != nil {
		return out, err
	}
	if v == nil {
		return out, nil
	}
	typed, ok := v.(Out)
	if !ok {
		return out, fmt.Errorf("provider %s returned %T, not %T", name, v, out)
	}
	return typed, nil
}
