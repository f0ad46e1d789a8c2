package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"twilio-functions-utils/pkg/injection"
)

// Config holds all configuration for the local runtime and the Lambda adapter
type Config struct {
	Environment string `validate:"required,oneof=development test production"`
	Port        string `validate:"required,numeric"`
	LogLevel    string `validate:"required,oneof=trace debug info warn error"`

	// EnvFile is the dotenv file whose keys are handed to functions
	EnvFile string
	// EnvKeys names process environment variables handed to functions as
	// well. They win over the dotenv file.
	EnvKeys []string

	Account   AccountConfig
	Runtime   RuntimeConfig
	Sync      SyncConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
}

// AccountConfig holds the platform account credentials
type AccountConfig struct {
	SID        string
	AuthToken  string
	DomainName string
}

// RuntimeConfig locates the project served by the local runtime
type RuntimeConfig struct {
	Root          string `validate:"required"`
	FunctionsPath string
	AssetsPath    string
}

// SyncConfig holds Sync store configuration
type SyncConfig struct {
	DBPath string `validate:"required"`
}

// TokenConfig selects how Flex tokens are validated
type TokenConfig struct {
	Mode    string `validate:"oneof=flex jwt"`
	FlexURL string `validate:"omitempty,url"`
}

// RateLimitConfig holds the dev server rate limit. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `validate:"gte=0"`
	Burst int     `validate:"gte=0"`
}

// Load loads configuration from the environment and the dotenv file
func Load() (*Config, error) {
	envFile := GetEnv("ENV_FILE", ".env")

	// Load .env file if it exists
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUNTIME_ROOT", ".")
	v.SetDefault("SYNC_DB_PATH", DefaultSyncDBPath)
	v.SetDefault("TOKEN_VALIDATION_MODE", "flex")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		EnvFile:     envFile,
		EnvKeys:     splitKeys(v.GetString("FUNCTION_ENV_KEYS")),
		Account: AccountConfig{
			SID:        v.GetString("ACCOUNT_SID"),
			AuthToken:  v.GetString("AUTH_TOKEN"),
			DomainName: v.GetString("DOMAIN_NAME"),
		},
		Runtime: RuntimeConfig{
			Root:          v.GetString("RUNTIME_ROOT"),
			FunctionsPath: v.GetString("FUNCTIONS_PATH"),
			AssetsPath:    v.GetString("ASSETS_PATH"),
		},
		Sync: SyncConfig{
			DBPath: v.GetString("SYNC_DB_PATH"),
		},
		Token: TokenConfig{
			Mode:    strings.ToLower(v.GetString("TOKEN_VALIDATION_MODE")),
			FlexURL: v.GetString("FLEX_VALIDATION_URL"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
}

// IsProduction reports whether the runtime runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Env builds the env record handed to functions from the dotenv file, the
// process variables named by EnvKeys and the account keys, later sources
// winning
func (c *Config) Env() (injection.Env, error) {
	env := injection.Env{}

	values, err := godotenv.Read(c.EnvFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", c.EnvFile, err)
	}
	for k, v := range values {
		env[k] = v
	}
	for _, key := range c.EnvKeys {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	setIf(env, "ACCOUNT_SID", c.Account.SID)
	setIf(env, "AUTH_TOKEN", c.Account.AuthToken)
	setIf(env, "DOMAIN_NAME", c.Account.DomainName)
	return env, nil
}

// splitKeys parses a comma separated key list
func splitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// NewLogger builds the application logger: JSON in production, text elsewhere
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.IsProduction() || IsServerlessMode() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func setIf(env injection.Env, key, value string) {
	if value != "" {
		env[key] = value
	}
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
