package flow

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Pluck returns a function reading key from a record
func Pluck[V any](key string) func(map[string]V) V {
	return func(record map[string]V) V {
		return record[key]
	}
}

// Factory returns a constructor that decodes a record into a new T.
// Fields are matched through their json tags.
func Factory[T any]() func(map[string]any) (T, error) {
	return func(record map[string]any) (T, error) {
		var instance T
		if err := decode(record, &instance); err != nil {
			return instance, err
		}
		return instance, nil
	}
}

// Remap wraps an action returning a list so each element passes through model
func Remap[A, T, R any](action func(context.Context, A) ([]T, error), model func(T) R) func(context.Context, A) ([]R, error) {
	return func(ctx context.Context, args A) ([]R, error) {
		items, err := action(ctx, args)
		if err != nil {
			return nil, err
		}
		out := make([]R, len(items))
		for i, item := range items {
			out[i] = model(item)
		}
		return out, nil
	}
}

// TransformToInstance returns a function that renames the keys of record
// according to ref (source key -> target field) and decodes the result into
// a new T. Keys missing from ref are dropped.
func TransformToInstance[T any](record map[string]any) func(ref map[string]string) (T, error) {
	return func(ref map[string]string) (T, error) {
		renamed := make(map[string]any, len(ref))
		for from, to := range ref {
			if v, ok := record[from]; ok {
				renamed[to] = v
			}
		}

		var instance T
		if err := decode(renamed, &instance); err != nil {
			return instance, err
		}
		return instance, nil
	}
}

func decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
