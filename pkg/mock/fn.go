package mock

import (
	"context"
	"sync"

	"twilio-functions-utils/pkg/injection"
)

// Fn is a call-recording stub usable as a provider or client method
type Fn struct {
	mu    sync.Mutex
	impl  func(ctx context.Context, args ...any) (any, error)
	calls [][]any
}

// NewFn returns a stub that succeeds with nil
func NewFn() *Fn {
	return &Fn{}
}

// ResolvedValue returns a stub that always succeeds with v
func ResolvedValue(v any) *Fn {
	return Implementation(func(context.Context, ...any) (any, error) { return v, nil })
}

// RejectedValue returns a stub that always fails with err
func RejectedValue(err error) *Fn {
	return Implementation(func(context.Context, ...any) (any, error) { return nil, err })
}

// Implementation returns a stub delegating to impl
func Implementation(impl func(ctx context.Context, args ...any) (any, error)) *Fn {
	return &Fn{impl: impl}
}

// Call records args and runs the stub
func (f *Fn) Call(ctx context.Context, args ...any) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]any(nil), args...))
	impl := f.impl
	f.mu.Unlock()

	if impl == nil {
		return nil, nil
	}
	return impl(ctx, args...)
}

// Provider exposes the stub as a provider; the scope is ignored
func (f *Fn) Provider() injection.ProviderFunc {
	return func(ctx context.Context, _ injection.Scope, args ...any) (any, error) {
		return f.Call(ctx, args...)
	}
}

// Calls returns the arguments of every call in order
func (f *Fn) Calls() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times the stub ran
func (f *Fn) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastCall returns the arguments of the latest call, or nil
func (f *Fn) LastCall() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// Reset forgets recorded calls
func (f *Fn) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
