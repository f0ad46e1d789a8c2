package lambda

import (
	"context"
	"sync"
	"time"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/pkg/server"
)

// ContainerManager keeps one container alive across warm Lambda invocations
type ContainerManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.Mutex
	config    *config.Config

	// loadConfig is config.GetOptimizedConfig outside tests
	loadConfig func() (*config.Config, error)
}

var (
	globalContainerManager *ContainerManager
	containerManagerOnce   sync.Once
)

// GetContainerManager returns the global container manager instance
func GetContainerManager() *ContainerManager {
	containerManagerOnce.Do(func() {
		globalContainerManager = &ContainerManager{}
	})
	return globalContainerManager
}

// Initialize builds the container from cfg unless one is already running.
// A failed build is not remembered, so a later call tries again.
func (cm *ContainerManager) Initialize(cfg *config.Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.initLocked(cfg)
}

func (cm *ContainerManager) initLocked(cfg *config.Config) error {
	if cm.container != nil {
		return nil
	}

	container, err := server.NewContainer(cfg)
	if err != nil {
		return err
	}

	cm.config = cfg
	cm.container = container
	cm.lastUsed = time.Now()
	return nil
}

// GetContainer returns the container, loading the configuration from the
// environment on first use
func (cm *ContainerManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		load := cm.loadConfig
		if load == nil {
			load = config.GetOptimizedConfig
		}
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		if err := cm.initLocked(cfg); err != nil {
			return nil, err
		}
	}

	cm.lastUsed = time.Now()
	return cm.container, nil
}

// LastUsed returns when the container was last handed out
func (cm *ContainerManager) LastUsed() time.Time {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.lastUsed
}

// Cleanup closes the container. The next GetContainer builds a new one.
func (cm *ContainerManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	cm.config = nil
	return err
}
