package runtime

import (
	"context"
	"fmt"
	"sync"

	"twilio-functions-utils/pkg/injection"
)

// Module is the set of exports of one function or asset file
type Module map[string]injection.ProviderFunc

// Registry maps runtime entry paths to the Go modules implementing them
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register binds m to the file at path. The script extension is optional.
func (r *Registry) Register(path string, m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[ModulePath(path)] = m
}

// Lookup returns the module registered for an entry path
func (r *Registry) Lookup(path string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[ModulePath(path)]
	return m, ok
}

// Importer resolves runtime keys to registered exports
type Importer struct {
	runtime  Runtime
	registry *Registry
}

// NewImporter creates an importer over rt and reg
func NewImporter(rt Runtime, reg *Registry) *Importer {
	return &Importer{runtime: rt, registry: reg}
}

// GetFromRuntime returns a loader bound to scope. The loader resolves lazily:
// the key is looked up when the returned provider is called, so files added
// after the loader was built are still found.
//
// Functions are looked up by key ("sms/reply"); assets by name without the
// leading slash or extension ("config" resolves "/config.js").
func (i *Importer) GetFromRuntime(scope injection.Scope) func(kind Kind, name, key string) injection.BoundProvider {
	return func(kind Kind, name, key string) injection.BoundProvider {
		return func(ctx context.Context, args ...any) (any, error) {
			fn, err := i.resolve(kind, name, key)
			if err != nil {
				return nil, err
			}
			return fn(ctx, scope, args...)
		}
	}
}

func (i *Importer) resolve(kind Kind, name, key string) (injection.ProviderFunc, error) {
	var (
		entries map[string]Entry
		lookup  = key
		err     error
	)

	switch kind {
	case KindFunction:
		entries, err = i.runtime.GetFunctions()
	case KindAsset:
		entries, err = i.runtime.GetAssets()
		lookup = "/" + key + ".js"
	default:
		return nil, fmt.Errorf("unknown runtime kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	entry, ok := entries[lookup]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrPathNotFound, kind, lookup)
	}

	module, ok := i.registry.Lookup(entry.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no registered module", ErrExportNotFound, entry.Path)
	}

	fn, ok := module[name]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrExportNotFound, name, entry.Path)
	}
	return fn, nil
}
