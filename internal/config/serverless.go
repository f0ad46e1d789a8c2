package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSyncDBPath is where the dev server keeps Sync data
const DefaultSyncDBPath = "./data/sync.db"

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	TaskRoot     string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			TaskRoot:     os.Getenv("LAMBDA_TASK_ROOT"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for Lambda, where only /tmp
// is writable and the bundle lives under LAMBDA_TASK_ROOT
func AdaptConfigForServerless(ctx context.Context, config *Config) *Config {
	sc := GetServerlessConfig()
	if !sc.IsLambda {
		return config
	}

	if config.Sync.DBPath == DefaultSyncDBPath {
		config.Sync.DBPath = filepath.Join(os.TempDir(), "sync.db")
	}

	if config.Runtime.Root == "." && sc.TaskRoot != "" {
		config.Runtime.Root = sc.TaskRoot
	}

	// Rate limiting belongs to API Gateway in Lambda
	config.RateLimit.RPS = 0

	return config
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	// Apply serverless adaptations if needed
	config = AdaptConfigForServerless(context.Background(), config)

	return config, nil
}
