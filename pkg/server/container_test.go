package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/internal/syncstore"
	"twilio-functions-utils/pkg/client"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/token"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Port:        "3000",
		LogLevel:    "error",
		EnvFile:     filepath.Join(t.TempDir(), "missing.env"),
		Account:     config.AccountConfig{SID: "AC123", AuthToken: "secret"},
		Runtime:     config.RuntimeConfig{Root: t.TempDir()},
		Sync:        config.SyncConfig{DBPath: syncstore.MemoryPath},
		Token:       config.TokenConfig{Mode: "jwt"},
	}
}

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.Client == nil {
		t.Error("Client is nil")
	}
	if _, ok := container.Validator.(*token.JWTValidator); !ok {
		t.Errorf("Validator = %T, want *token.JWTValidator", container.Validator)
	}
	if got := container.Env.Get("ACCOUNT_SID"); got != "AC123" {
		t.Errorf("Env ACCOUNT_SID = %q", got)
	}
	if err := container.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	// Test cleanup
	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
}

func TestContainer_WithoutAccount(t *testing.T) {
	cfg := testConfig(t)
	cfg.Account = config.AccountConfig{}
	cfg.Token.Mode = "flex"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	if got := container.Context().GetTwilioClient(); got != nil {
		t.Errorf("client handle = %v, want nil", got)
	}
	if _, ok := container.Validator.(*token.FlexValidator); !ok {
		t.Errorf("Validator = %T, want *token.FlexValidator", container.Validator)
	}
}

func TestContainer_Invoke(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	var observed string
	container.Handle("/sms/reply", func(_ context.Context, this *injection.Receiver, event injection.Event) (any, error) {
		if _, ok := this.Providers.Get("sid"); !ok {
			return nil, errors.New("provider missing")
		}
		return response.OK(map[string]any{"to": event["To"]}), nil
	}, &injection.Options{
		Providers: map[string]injection.ProviderFunc{
			"sid": func(_ context.Context, scope injection.Scope, _ ...any) (any, error) {
				return scope.Client.(*client.Client).AccountSID(), nil
			},
		},
		OnComplete: func(name string, _ *response.Response, _ time.Duration) { observed = name },
	})

	resp, err := container.Invoke(context.Background(), "sms/reply", injection.Event{"To": "+15550001"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Errorf("status = %d, body = %v", resp.StatusCode(), resp.Body())
	}
	if observed != "sms/reply" {
		t.Errorf("OnComplete saw %q", observed)
	}

	if names := container.Names(); len(names) != 1 || names[0] != "sms/reply" {
		t.Errorf("Names() = %v", names)
	}

	if _, err := container.Invoke(context.Background(), "missing", nil); !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("expected ErrFunctionNotFound, got %v", err)
	}
}

func TestContainer_TokenGate(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	container.Handle("secure", func(_ context.Context, this *injection.Receiver, _ injection.Event) (any, error) {
		return this.TokenResult.Identity, nil
	}, &injection.Options{ValidateToken: true})

	tok, err := token.IssueToken("AC123", "secret", token.Claims{Identity: "agent"}, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	resp, _ := container.Invoke(context.Background(), "secure", injection.Event{"Token": tok})
	if resp.StatusCode() != 200 || resp.Body() != "agent" {
		t.Errorf("valid token: status %d body %v", resp.StatusCode(), resp.Body())
	}

	resp, _ = container.Invoke(context.Background(), "secure", injection.Event{})
	if resp.StatusCode() != 401 {
		t.Errorf("missing token: status %d", resp.StatusCode())
	}
}
