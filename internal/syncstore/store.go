// Package syncstore persists Sync documents, maps and lists in SQLite so
// functions using Sync can run outside Twilio.
package syncstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// MemoryPath opens a store that lives only as long as the process
const MemoryPath = ":memory:"

// Config holds store configuration
type Config struct {
	Path            string
	ConnMaxLifetime time.Duration
	Logger          *logrus.Logger

	// SkipMigrations leaves the schema alone; used by the migration tool
	SkipMigrations bool
}

// DefaultConfig returns the configuration used by the dev server
func DefaultConfig() *Config {
	return &Config{
		Path:            "./data/sync.db",
		ConnMaxLifetime: time.Hour,
		Logger:          logrus.StandardLogger(),
	}
}

// Store is the SQLite backed Sync store
type Store struct {
	db     *sql.DB
	path   string
	logger *logrus.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens the store at cfg.Path and applies pending migrations
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}
	memory := path == MemoryPath

	if !memory {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute store path: %w", err)
		}
		path = abs
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := path + "?_foreign_keys=on"
	if !memory {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sync store: %w", err)
	}

	// A single connection keeps writes serialized and, for the in-memory
	// store, keeps every query on the same database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if !memory && cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if !cfg.SkipMigrations {
		if err := NewMigrationManager(db, logger).RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate sync store: %w", err)
		}
	}

	logger.WithField("store_path", path).Info("Sync store ready")
	return &Store{db: db, path: path, logger: logger}, nil
}

// DB returns the underlying connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path
func (s *Store) Path() string {
	return s.path
}

// Migrations returns a migration manager for this store
func (s *Store) Migrations() *MigrationManager {
	return NewMigrationManager(s.db, s.logger)
}

// HealthCheck verifies the store answers queries
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	var fkEnabled int
	if err := s.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}
	if fkEnabled != 1 {
		return fmt.Errorf("foreign keys are not enabled")
	}
	return nil
}

// Close closes the store. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sync store: %w", err)
	}
	s.logger.Debug("Sync store closed")
	return nil
}

func (s *Store) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// newSID builds a Twilio style SID: a two letter prefix and 32 hex digits
func newSID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func now() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func encodeData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode data: %w", err)
	}
	return string(b), nil
}

func decodeData(s string) map[string]any {
	data := map[string]any{}
	_ = json.Unmarshal([]byte(s), &data)
	return data
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
