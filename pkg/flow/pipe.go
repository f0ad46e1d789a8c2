// Package flow holds small composition helpers for function authors: pipes,
// retries and transformers for provider results.
package flow

import (
	"context"
	"time"
)

// Pipe composes fns left to right: Pipe(f, g, h)(x) == h(g(f(x))).
// An empty Pipe is the identity function.
func Pipe[T any](fns ...func(T) T) func(T) T {
	return func(in T) T {
		for _, fn := range fns {
			in = fn(in)
		}
		return in
	}
}

// Stage is one fallible, blocking step of a PipeAsync chain
type Stage[T any] func(ctx context.Context, in T) (T, error)

// PipeAsync chains stages; each waits for the previous one and the first
// error stops the chain and is returned to the caller.
func PipeAsync[T any](stages ...Stage[T]) Stage[T] {
	return func(ctx context.Context, in T) (T, error) {
		var err error
		for _, stage := range stages {
			if err = ctx.Err(); err != nil {
				return in, err
			}
			if in, err = stage(ctx, in); err != nil {
				return in, err
			}
		}
		return in, nil
	}
}

// Then joins two stages whose types differ
func Then[A, B, C any](first func(context.Context, A) (B, error), next func(context.Context, B) (C, error)) func(context.Context, A) (C, error) {
	return func(ctx context.Context, in A) (C, error) {
		mid, err := first(ctx, in)
		if err != nil {
			var zero C
			return zero, err
		}
		return next(ctx, mid)
	}
}

// Fallback returns fallback instead of the error produced by fn
func Fallback[T any](fn func(context.Context) (T, error), fallback func(error) T) func(context.Context) T {
	return func(ctx context.Context) T {
		v, err := fn(ctx)
		if err != nil {
			return fallback(err)
		}
		return v
	}
}

// Timeout runs fn with a deadline of d. fn must honor ctx for the deadline
// to take effect.
func Timeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}
	return v, err
}
