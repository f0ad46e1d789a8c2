// Package runtime emulates the Functions Runtime object outside the platform:
// function and asset listings, module imports and Sync services.
package runtime

import (
	"errors"
	"regexp"
)

var (
	// ErrPathNotFound is returned when a runtime key has no function or asset
	ErrPathNotFound = errors.New("runtime path not found")

	// ErrExportNotFound is returned when a module does not export a name
	ErrExportNotFound = errors.New("runtime export not found")

	// ErrSyncUnavailable is returned when the runtime has no Sync store
	ErrSyncUnavailable = errors.New("sync is not available in this runtime")
)

// DefaultSyncService is the Sync service used when none is named
const DefaultSyncService = "default"

// Kind selects the listing a runtime key is resolved against
type Kind string

const (
	KindFunction Kind = "function"
	KindAsset    Kind = "asset"
)

// Entry locates one function or asset
type Entry struct {
	Path string `json:"path"`
}

// Runtime is the subset of the platform Runtime object functions rely on
type Runtime interface {
	GetFunctions() (map[string]Entry, error)
	GetAssets() (map[string]Entry, error)
	GetSync(service string) (*SyncService, error)
}

// Static is a Runtime with fixed listings and no Sync store
type Static struct {
	Functions map[string]Entry
	Assets    map[string]Entry
}

func (s Static) GetFunctions() (map[string]Entry, error) {
	return copyEntries(s.Functions), nil
}

func (s Static) GetAssets() (map[string]Entry, error) {
	return copyEntries(s.Assets), nil
}

func (s Static) GetSync(string) (*SyncService, error) {
	return nil, ErrSyncUnavailable
}

func copyEntries(in map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	protectedSuffix = regexp.MustCompile(`\.protected\.js|\.protected\.ts`)
	privateSuffix   = regexp.MustCompile(`\.private\.js|\.private\.ts`)
	privateMarker   = regexp.MustCompile(`\.private`)
	scriptExt       = regexp.MustCompile(`\.js|\.ts`)
)

// replaceFirst removes the first match of re in s
func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// FunctionKey turns a path relative to the functions directory into its
// runtime key: "sms/reply.protected.js" becomes "sms/reply".
func FunctionKey(rel string) string {
	key := replaceFirst(protectedSuffix, rel)
	key = replaceFirst(privateSuffix, key)
	return replaceFirst(scriptExt, key)
}

// AssetKey turns a path relative to the assets directory into its runtime
// key: "config.private.js" becomes "/config.js".
func AssetKey(rel string) string {
	return "/" + replaceFirst(privateMarker, rel)
}

// ModulePath strips the script extension from a file path the way runtime
// entries do
func ModulePath(file string) string {
	return replaceFirst(scriptExt, file)
}
