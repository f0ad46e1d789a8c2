// Package migration seeds the Sync store from JSON files.
package migration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"twilio-functions-utils/internal/syncstore"
)

// Layout of a seed directory: every top level *.json file is a document,
// maps/*.json hold one object per item key and lists/*.json hold an array
// of items.
const (
	MapsDir  = "maps"
	ListsDir = "lists"
)

// ErrNotObject is returned when a document file does not hold a JSON object
var ErrNotObject = errors.New("JSON value is not an object")

// JSONImporter loads seed files into a Sync service
type JSONImporter struct {
	store   *syncstore.Store
	fs      afero.Fs
	dir     string
	service string
	logger  *logrus.Logger
}

// NewJSONImporter creates a new importer. A nil fs reads the OS file system.
func NewJSONImporter(store *syncstore.Store, fs afero.Fs, dir, service string, logger *logrus.Logger) *JSONImporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &JSONImporter{
		store:   store,
		fs:      fs,
		dir:     dir,
		service: service,
		logger:  logger,
	}
}

// ImportResult contains the results of an import
type ImportResult struct {
	DocumentsProcessed int
	MapItemsProcessed  int
	ListItemsProcessed int
	Warnings           []string
}

// SeedFiles lists the seed files found, relative to the seed directory
func (m *JSONImporter) SeedFiles() ([]string, error) {
	var files []string
	for _, sub := range []string{"", MapsDir, ListsDir} {
		matches, err := afero.Glob(m.fs, filepath.Join(m.dir, sub, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to list seed files: %w", err)
		}
		for _, match := range matches {
			rel, _ := filepath.Rel(m.dir, match)
			files = append(files, filepath.ToSlash(rel))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Import writes every seed file. Documents and map items are created or
// replaced; a list that already exists is skipped so reruns do not append
// the same items twice.
func (m *JSONImporter) Import(ctx context.Context) (*ImportResult, error) {
	files, err := m.SeedFiles()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Warnings: make([]string, 0)}
	for _, file := range files {
		raw, err := afero.ReadFile(m.fs, filepath.Join(m.dir, file))
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if !gjson.ValidBytes(raw) {
			return result, fmt.Errorf("%s: malformed JSON", file)
		}
		parsed := gjson.ParseBytes(raw)
		name := strings.TrimSuffix(filepath.Base(file), ".json")

		switch filepath.Dir(file) {
		case MapsDir:
			n, err := m.importMap(ctx, name, parsed)
			if err != nil {
				return result, fmt.Errorf("%s: %w", file, err)
			}
			result.MapItemsProcessed += n
		case ListsDir:
			n, err := m.importList(ctx, name, parsed)
			if err != nil {
				return result, fmt.Errorf("%s: %w", file, err)
			}
			if n == 0 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("list %s already exists, skipped", name))
			}
			result.ListItemsProcessed += n
		default:
			if err := m.importDocument(ctx, name, parsed); err != nil {
				return result, fmt.Errorf("%s: %w", file, err)
			}
			result.DocumentsProcessed++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"service":    m.service,
		"documents":  result.DocumentsProcessed,
		"map_items":  result.MapItemsProcessed,
		"list_items": result.ListItemsProcessed,
	}).Info("Sync import completed")

	return result, nil
}

func (m *JSONImporter) importDocument(ctx context.Context, name string, value gjson.Result) error {
	if !value.IsObject() {
		return ErrNotObject
	}
	data := object(value)

	_, err := m.store.FetchDocument(ctx, m.service, name)
	switch {
	case errors.Is(err, syncstore.ErrNotFound):
		_, err = m.store.CreateDocument(ctx, m.service, name, data)
	case err == nil:
		_, err = m.store.UpdateDocument(ctx, m.service, name, data)
	}
	return err
}

func (m *JSONImporter) importMap(ctx context.Context, name string, value gjson.Result) (int, error) {
	if !value.IsObject() {
		return 0, ErrNotObject
	}

	syncMap, err := m.store.FetchMap(ctx, m.service, name)
	if errors.Is(err, syncstore.ErrNotFound) {
		syncMap, err = m.store.CreateMap(ctx, m.service, name)
	}
	if err != nil {
		return 0, err
	}

	count := 0
	var itemErr error
	value.ForEach(func(key, item gjson.Result) bool {
		data := object(item)
		_, itemErr = m.store.FetchMapItem(ctx, m.service, syncMap.SID, key.String())
		switch {
		case errors.Is(itemErr, syncstore.ErrNotFound):
			_, itemErr = m.store.CreateMapItem(ctx, m.service, syncMap.SID, key.String(), data)
		case itemErr == nil:
			_, itemErr = m.store.UpdateMapItem(ctx, m.service, syncMap.SID, key.String(), data)
		}
		if itemErr != nil {
			return false
		}
		count++
		return true
	})
	return count, itemErr
}

func (m *JSONImporter) importList(ctx context.Context, name string, value gjson.Result) (int, error) {
	if !value.IsArray() {
		return 0, errors.New("JSON value is not an array")
	}

	_, err := m.store.FetchList(ctx, m.service, name)
	if err == nil {
		m.logger.WithField("list", name).Warn("List already exists, skipping")
		return 0, nil
	}
	if !errors.Is(err, syncstore.ErrNotFound) {
		return 0, err
	}

	list, err := m.store.CreateList(ctx, m.service, name)
	if err != nil {
		return 0, err
	}

	items := value.Array()
	for _, item := range items {
		if _, err := m.store.CreateListItem(ctx, m.service, list.SID, object(item)); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// Validate checks that every seed file has a matching Sync resource
func (m *JSONImporter) Validate(ctx context.Context) error {
	files, err := m.SeedFiles()
	if err != nil {
		return err
	}

	var missing []string
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")

		switch filepath.Dir(file) {
		case MapsDir:
			_, err = m.store.FetchMap(ctx, m.service, name)
		case ListsDir:
			_, err = m.store.FetchList(ctx, m.service, name)
		default:
			_, err = m.store.FetchDocument(ctx, m.service, name)
		}

		if errors.Is(err, syncstore.ErrNotFound) {
			missing = append(missing, file)
			continue
		}
		if err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing Sync resources for: %s", strings.Join(missing, ", "))
	}
	m.logger.WithField("files", len(files)).Info("Sync import validated")
	return nil
}

// object converts value to item data; values that are not objects are
// stored under "value"
func object(value gjson.Result) map[string]any {
	if data, ok := value.Value().(map[string]any); ok {
		return data
	}
	return map[string]any{"value": value.Value()}
}
