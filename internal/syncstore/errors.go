package syncstore

import (
	"errors"
	"fmt"

	gosqlite "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a Sync resource does not exist
	ErrNotFound = errors.New("sync resource not found")

	// ErrAlreadyExists is returned when a unique name or key is taken
	ErrAlreadyExists = errors.New("sync resource already exists")

	// ErrConflict is returned when a conditional update finds another revision
	ErrConflict = errors.New("sync resource revision mismatch")

	// ErrClosed is returned when the store has been closed
	ErrClosed = errors.New("sync store closed")
)

// StoreError describes a failed store operation
type StoreError struct {
	Op       string // Operation that failed (e.g. "create", "fetch")
	Resource string // Resource kind (document, map item...)
	ID       string // SID, unique name or key involved
	Err      error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("sync %s %s failed for '%s': %v", e.Resource, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("sync %s %s failed: %v", e.Resource, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error to an HTTP status so functions can return store
// errors directly
func (e *StoreError) StatusCode() int {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return 404
	case errors.Is(e.Err, ErrAlreadyExists):
		return 409
	case errors.Is(e.Err, ErrConflict):
		return 412
	default:
		return 500
	}
}

func newError(op, resource, id string, err error) error {
	var sqliteErr gosqlite.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == gosqlite.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == gosqlite.ErrConstraintUnique) {
		err = ErrAlreadyExists
	}
	return &StoreError{Op: op, Resource: resource, ID: id, Err: err}
}

// IsNotFound reports whether err means the resource does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err means the resource already exists
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict reports whether err means a conditional update lost a race
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
