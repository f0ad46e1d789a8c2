package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"twilio-functions-utils/internal/syncstore"
)

// Local is a Runtime backed by a project directory. Functions live in
// src/functions (or functions) and assets in src/assets (or assets).
type Local struct {
	fs     afero.Fs
	root   string
	store  *syncstore.Store
	logger *logrus.Logger

	functionsDir string
	assetsDir    string
}

// LocalOption configures a Local runtime
type LocalOption func(*Local)

// WithFunctionsDir overrides the functions directory, relative to the root
func WithFunctionsDir(dir string) LocalOption {
	return func(l *Local) { l.functionsDir = dir }
}

// WithAssetsDir overrides the assets directory, relative to the root
func WithAssetsDir(dir string) LocalOption {
	return func(l *Local) { l.assetsDir = dir }
}

// WithSyncStore backs GetSync with store
func WithSyncStore(store *syncstore.Store) LocalOption {
	return func(l *Local) { l.store = store }
}

// WithLogger sets the runtime logger
func WithLogger(logger *logrus.Logger) LocalOption {
	return func(l *Local) { l.logger = logger }
}

// NewLocal creates a runtime over the project at root. A nil fs means the OS
// file system.
func NewLocal(fs afero.Fs, root string, opts ...LocalOption) (*Local, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve runtime root: %w", err)
	}

	l := &Local{fs: fs, root: abs, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(l)
	}

	if l.functionsDir == "" {
		l.functionsDir = l.pick(filepath.Join("src", "functions"), "functions")
	}
	if l.assetsDir == "" {
		l.assetsDir = l.pick(filepath.Join("src", "assets"), "assets")
	}

	l.logger.WithFields(logrus.Fields{
		"root":      l.root,
		"functions": l.functionsDir,
		"assets":    l.assetsDir,
	}).Debug("Local runtime created")
	return l, nil
}

func (l *Local) pick(preferred, fallback string) string {
	if ok, _ := afero.DirExists(l.fs, filepath.Join(l.root, preferred)); ok {
		return preferred
	}
	return fallback
}

// FunctionsPath returns the absolute functions directory
func (l *Local) FunctionsPath() string {
	return filepath.Join(l.root, l.functionsDir)
}

// AssetsPath returns the absolute assets directory
func (l *Local) AssetsPath() string {
	return filepath.Join(l.root, l.assetsDir)
}

// GetFunctions lists every function file keyed by its runtime key
func (l *Local) GetFunctions() (map[string]Entry, error) {
	return l.list(l.FunctionsPath(), FunctionKey)
}

// GetAssets lists every asset keyed by its runtime key
func (l *Local) GetAssets() (map[string]Entry, error) {
	return l.list(l.AssetsPath(), AssetKey)
}

// GetSync returns the named Sync service; an empty name selects the default
func (l *Local) GetSync(service string) (*SyncService, error) {
	if l.store == nil {
		return nil, ErrSyncUnavailable
	}
	if service == "" {
		service = DefaultSyncService
	}
	return NewSyncService(l.store, service), nil
}

func (l *Local) list(base string, keyOf func(string) string) (map[string]Entry, error) {
	entries := map[string]Entry{}

	exists, err := afero.DirExists(l.fs, base)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", base, err)
	}
	if !exists {
		return entries, nil
	}

	err = afero.Walk(l.fs, base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		entries[keyOf(rel)] = Entry{Path: ModulePath(path)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", base, err)
	}
	return entries, nil
}
