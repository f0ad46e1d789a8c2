package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/internal/metrics"
	"twilio-functions-utils/internal/syncstore"
	"twilio-functions-utils/pkg/client"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/runtime"
	"twilio-functions-utils/pkg/token"
)

// ErrFunctionNotFound is returned when invoking a name nothing was registered under
var ErrFunctionNotFound = errors.New("function not found")

// Container holds the shared platform state every function invocation uses
type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Env       injection.Env
	Client    *client.Client
	Validator token.Validator
	Sync      *syncstore.Store
	Runtime   *runtime.Local
	Modules   *runtime.Registry
	Importer  *runtime.Importer

	mu        sync.RWMutex
	functions map[string]injection.Function
}

// NewContainer wires the platform collaborators described by cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	logger := cfg.NewLogger()

	env, err := cfg.Env()
	if err != nil {
		return nil, fmt.Errorf("failed to build function environment: %w", err)
	}

	store, err := syncstore.Open(&syncstore.Config{
		Path:            cfg.Sync.DBPath,
		ConnMaxLifetime: time.Hour,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sync store: %w", err)
	}

	opts := []runtime.LocalOption{runtime.WithSyncStore(store), runtime.WithLogger(logger)}
	if cfg.Runtime.FunctionsPath != "" {
		opts = append(opts, runtime.WithFunctionsDir(cfg.Runtime.FunctionsPath))
	}
	if cfg.Runtime.AssetsPath != "" {
		opts = append(opts, runtime.WithAssetsDir(cfg.Runtime.AssetsPath))
	}
	rt, err := runtime.NewLocal(nil, cfg.Runtime.Root, opts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}

	modules := runtime.NewRegistry()

	container := &Container{
		Config:    cfg,
		Logger:    logger,
		Env:       env,
		Validator: newValidator(cfg, logger),
		Sync:      store,
		Runtime:   rt,
		Modules:   modules,
		Importer:  runtime.NewImporter(rt, modules),
		functions: make(map[string]injection.Function),
	}

	if cfg.Account.SID != "" && cfg.Account.AuthToken != "" {
		container.Client = client.New(cfg.Account.SID, cfg.Account.AuthToken, client.WithLogger(logger))
	}

	logger.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"deployment_mode": config.GetDeploymentMode(),
		"token_mode":      cfg.Token.Mode,
		"functions_path":  rt.FunctionsPath(),
	}).Info("Container initialized")

	return container, nil
}

func newValidator(cfg *config.Config, logger *logrus.Logger) token.Validator {
	if cfg.Token.Mode == "jwt" {
		return token.NewJWTValidator()
	}

	opts := []token.FlexOption{token.WithLogger(logger)}
	if cfg.Token.FlexURL != "" {
		opts = append(opts, token.WithBaseURL(cfg.Token.FlexURL))
	}
	return token.NewFlexValidator(opts...)
}

// Context returns the platform context handed to functions. The client
// factory yields nil when no account is configured.
func (c *Container) Context() *injection.Context {
	return &injection.Context{
		GetTwilioClient: func() injection.Client {
			if c.Client == nil {
				return nil
			}
			return c.Client
		},
		Env: c.Env,
	}
}

// Options fills the container defaults into opts: name, logger, token
// validator and metrics
func (c *Container) Options(name string, opts *injection.Options) *injection.Options {
	o := injection.Options{}
	if opts != nil {
		o = *opts
	}
	if o.Name == "" {
		o.Name = name
	}
	if o.Logger == nil {
		o.Logger = c.Logger
	}
	if o.Validator == nil {
		o.Validator = c.Validator
	}

	observe := o.OnComplete
	o.OnComplete = func(name string, resp *response.Response, elapsed time.Duration) {
		metrics.RecordInvocation(name, resp, elapsed)
		if observe != nil {
			observe(name, resp, elapsed)
		}
	}
	return &o
}

// Handle registers handler under name with the container defaults
func (c *Container) Handle(name string, handler injection.Handler, opts *injection.Options) {
	name = normalizeName(name)
	c.Register(name, injection.UseInjection(handler, c.Options(name, opts)))
}

// HandleImports registers an imports-style handler under name
func (c *Container) HandleImports(name string, handler injection.ImportHandler, opts *injection.Options) {
	name = normalizeName(name)
	c.Register(name, injection.UseImports(handler, c.Options(name, opts)))
}

// Register adds an already wrapped function. Registering a name twice
// replaces the previous function.
func (c *Container) Register(name string, fn injection.Function) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.functions[normalizeName(name)] = fn
}

// Function returns the function registered under name
func (c *Container) Function(name string) (injection.Function, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.functions[normalizeName(name)]
	return fn, ok
}

// Names returns the registered function names sorted
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the function registered under name
func (c *Container) Invoke(ctx context.Context, name string, event injection.Event) (*response.Response, error) {
	fn, ok := c.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return injection.Invoke(ctx, fn, c.Context(), event), nil
}

// HealthCheck verifies the container's stateful collaborators
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.Sync.HealthCheck(ctx); err != nil {
		return fmt.Errorf("sync store unhealthy: %w", err)
	}
	return nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Sync != nil {
		if err := c.Sync.Close(); err != nil {
			return fmt.Errorf("failed to close sync store: %w", err)
		}
	}
	return nil
}

func normalizeName(name string) string {
	return strings.Trim(name, "/")
}
