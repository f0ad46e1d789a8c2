package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultSyncDBPath, cfg.Sync.DBPath)
	assert.Equal(t, "flex", cfg.Token.Mode)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Zero(t, cfg.RateLimit.RPS)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "8080")
	t.Setenv("ACCOUNT_SID", "AC123")
	t.Setenv("TOKEN_VALIDATION_MODE", "JWT")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "AC123", cfg.Account.SID)
	assert.Equal(t, "jwt", cfg.Token.Mode)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "test",
			Port:        "3000",
			LogLevel:    "info",
			Runtime:     RuntimeConfig{Root: "."},
			Sync:        SyncConfig{DBPath: ":memory:"},
			Token:       TokenConfig{Mode: "flex"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, "Config.Environment (oneof)"},
		{"non numeric port", func(c *Config) { c.Port = "http" }, "Config.Port (numeric)"},
		{"unknown token mode", func(c *Config) { c.Token.Mode = "basic" }, "Config.Token.Mode (oneof)"},
		{"bad flex url", func(c *Config) { c.Token.FlexURL = "not a url" }, "Config.Token.FlexURL (url)"},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }, "Config.RateLimit.Burst (gte)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GREETING=hello\nACCOUNT_SID=from-file\n"), 0644))

	cfg := &Config{
		EnvFile: envFile,
		Account: AccountConfig{SID: "AC123", AuthToken: "secret"},
	}

	env, err := cfg.Env()
	require.NoError(t, err)

	assert.Equal(t, "hello", env.Get("GREETING"))
	assert.Equal(t, "AC123", env.Get("ACCOUNT_SID"), "account keys win over the file")
	assert.Equal(t, "secret", env.Get("AUTH_TOKEN"))
	_, ok := env.Lookup("DOMAIN_NAME")
	assert.False(t, ok, "empty account keys are not set")

	cfg.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	env, err = cfg.Env()
	require.NoError(t, err)
	assert.Equal(t, []string{"ACCOUNT_SID", "AUTH_TOKEN"}, env.Keys())
}

func TestEnv_ProcessKeys(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FROM_NUMBER=+15550000000\nGREETING=hello\n"), 0644))

	t.Setenv("FROM_NUMBER", "+15559999999")
	t.Setenv("GREETING", "from process")
	t.Setenv("API_SECRET", "not listed")
	t.Setenv("FUNCTION_ENV_KEYS", "FROM_NUMBER, WEBHOOK_URL,")
	t.Setenv("WEBHOOK_URL", "https://example.com/hook")
	t.Setenv("ENV_FILE", envFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"FROM_NUMBER", "WEBHOOK_URL"}, cfg.EnvKeys)

	env, err := cfg.Env()
	require.NoError(t, err)

	assert.Equal(t, "+15559999999", env.Get("FROM_NUMBER"), "listed process keys win over the file")
	assert.Equal(t, "https://example.com/hook", env.Get("WEBHOOK_URL"))
	assert.Equal(t, "hello", env.Get("GREETING"), "unlisted keys come from the file only")
	_, ok := env.Lookup("API_SECRET")
	assert.False(t, ok)
}
