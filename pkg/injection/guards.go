package injection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"twilio-functions-utils/pkg/response"
)

// Guard checks an invocation after the token gate and before the handler.
// A non-nil error stops the invocation and is normalized like a handler error.
type Guard func(ctx context.Context, this *Receiver, event Event) error

var validate = validator.New()

// RequireFields rejects events missing any of fields
func RequireFields(fields ...string) Guard {
	return func(_ context.Context, _ *Receiver, event Event) error {
		var missing []string
		for _, f := range fields {
			if v, ok := event[f]; !ok || v == nil || v == "" {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return response.NewBadRequestError("Missing required fields: " + strings.Join(missing, ", ")).Err()
		}
		return nil
	}
}

// RequireEnv rejects invocations whose environment lacks any of keys
func RequireEnv(keys ...string) Guard {
	return func(_ context.Context, this *Receiver, _ Event) error {
		var missing []string
		for _, k := range keys {
			if this.Env.Get(k) == "" {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return response.NewBadRequestError("Missing environment variables: " + strings.Join(missing, ", ")).Err()
		}
		return nil
	}
}

// ValidateEvent decodes the event into T and runs its validate tags
func ValidateEvent[T any]() Guard {
	return func(_ context.Context, _ *Receiver, event Event) error {
		_, err := DecodeEvent[T](event)
		return err
	}
}

// DecodeEvent decodes event into T using json tags and validates the result.
// Validation failures are returned as a BadRequest response error.
func DecodeEvent[T any](event Event) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create event decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(event)); err != nil {
		return out, response.NewBadRequestError(fmt.Sprintf("Invalid event: %v", err)).Err()
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return out, response.NewBadRequestError(formatValidationErrors(verrs)).Err()
		}
		return out, err
	}
	return out, nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}
