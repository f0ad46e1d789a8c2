package lambda

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/internal/syncstore"
)

func managerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		EnvFile:     filepath.Join(t.TempDir(), "missing.env"),
		Account:     config.AccountConfig{SID: "AC123", AuthToken: "secret"},
		Runtime:     config.RuntimeConfig{Root: t.TempDir()},
		Sync:        config.SyncConfig{DBPath: syncstore.MemoryPath},
		Token:       config.TokenConfig{Mode: "jwt"},
	}
}

func TestContainerManagerReusesContainer(t *testing.T) {
	cm := &ContainerManager{}
	t.Cleanup(func() { cm.Cleanup() })

	require.NoError(t, cm.Initialize(managerConfig(t)))

	first, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.False(t, cm.LastUsed().IsZero())
}

func TestContainerManagerRebuildsAfterCleanup(t *testing.T) {
	loads := 0
	cm := &ContainerManager{loadConfig: func() (*config.Config, error) {
		loads++
		return managerConfig(t), nil
	}}
	t.Cleanup(func() { cm.Cleanup() })

	first, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, cm.Cleanup())
	require.NoError(t, cm.Cleanup())

	second, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, loads)
	assert.NoError(t, second.HealthCheck(context.Background()))
}

func TestContainerManagerRetriesFailedLoad(t *testing.T) {
	fail := true
	cm := &ContainerManager{loadConfig: func() (*config.Config, error) {
		if fail {
			return nil, errors.New("config unavailable")
		}
		return managerConfig(t), nil
	}}
	t.Cleanup(func() { cm.Cleanup() })

	container, err := cm.GetContainer(context.Background())
	assert.Error(t, err)
	assert.Nil(t, container)

	fail = false
	container, err = cm.GetContainer(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, container)
}
