package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), KindRuntimeFault},
		{"rejection", Reject("custom"), KindAuthRejection},
		{"wrapped rejection", fmt.Errorf("gate: %w", Reject("custom")), KindAuthRejection},
		{"wrapped fault", Wrap(errors.New("io"), "read failed"), KindRuntimeFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(fmt.Errorf("outer: %w", Reject("bad sig"))); got != "bad sig" {
		t.Errorf("Expected tagged message, got %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "plain" {
		t.Errorf("Expected plain message, got %q", got)
	}
	if got := MessageOf(nil); got != "" {
		t.Errorf("Expected empty message, got %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should stay nil")
	}

	cause := errors.New("cause")
	err := Wrap(cause, "context")
	if !errors.Is(err, cause) {
		t.Error("Wrapped error should unwrap to its cause")
	}
	if err.Error() != "context" {
		t.Errorf("Expected message 'context', got %q", err.Error())
	}
}

func TestIsRejection(t *testing.T) {
	if !IsRejection(Rejectf("token %s", "expired")) {
		t.Error("Expected rejection")
	}
	if IsRejection(errors.New("x")) || IsRejection(nil) {
		t.Error("Expected no rejection")
	}
}
