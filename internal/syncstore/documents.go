package syncstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Document is a Sync document
type Document struct {
	SID         string         `json:"sid"`
	ServiceSID  string         `json:"service_sid"`
	UniqueName  string         `json:"unique_name,omitempty"`
	Data        map[string]any `json:"data"`
	Revision    int            `json:"revision"`
	DateCreated time.Time      `json:"date_created"`
	DateUpdated time.Time      `json:"date_updated"`
}

const documentColumns = `sid, service_sid, unique_name, data, revision, date_created, date_updated`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var (
		doc                    Document
		uniqueName             sql.NullString
		data, created, updated string
	)
	if err := row.Scan(&doc.SID, &doc.ServiceSID, &uniqueName, &data, &doc.Revision, &created, &updated); err != nil {
		return nil, err
	}
	doc.UniqueName = uniqueName.String
	doc.Data = decodeData(data)
	doc.DateCreated = parseTime(created)
	doc.DateUpdated = parseTime(updated)
	return &doc, nil
}

// CreateDocument creates a document in service. uniqueName may be empty.
func (s *Store) CreateDocument(ctx context.Context, service, uniqueName string, data map[string]any) (*Document, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("create", "document", uniqueName, err)
	}

	ts := now()
	doc := &Document{
		SID:         newSID("ET"),
		ServiceSID:  service,
		UniqueName:  uniqueName,
		Data:        decodeData(encoded),
		DateCreated: ts,
		DateUpdated: ts,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		doc.SID, service, nullable(uniqueName), encoded, formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, newError("create", "document", uniqueName, err)
	}
	return doc, nil
}

// FetchDocument reads a document by SID or unique name
func (s *Store) FetchDocument(ctx context.Context, service, id string) (*Document, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE service_sid = ? AND (sid = ? OR unique_name = ?)`,
		service, id, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError("fetch", "document", id, ErrNotFound)
	}
	if err != nil {
		return nil, newError("fetch", "document", id, err)
	}
	return doc, nil
}

// UpdateDocument replaces the data of a document and bumps its revision
func (s *Store) UpdateDocument(ctx context.Context, service, id string, data map[string]any) (*Document, error) {
	return s.updateDocument(ctx, service, id, data, -1)
}

// UpdateDocumentIf is UpdateDocument guarded by the revision the caller
// read. It fails with ErrConflict when the document changed since.
func (s *Store) UpdateDocumentIf(ctx context.Context, service, id string, revision int, data map[string]any) (*Document, error) {
	return s.updateDocument(ctx, service, id, data, revision)
}

// updateDocument ignores the revision when it is negative
func (s *Store) updateDocument(ctx context.Context, service, id string, data map[string]any, revision int) (*Document, error) {
	doc, err := s.FetchDocument(ctx, service, id)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("update", "document", id, err)
	}

	query := `UPDATE documents SET data = ?, revision = revision + 1, date_updated = ? WHERE sid = ?`
	ts := now()
	args := []any{encoded, formatTime(ts), doc.SID}
	if revision >= 0 {
		query += ` AND revision = ?`
		args = append(args, revision)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, newError("update", "document", id, err)
	}
	if revision >= 0 {
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, newError("update", "document", id, err)
		}
		if affected == 0 {
			return nil, newError("update", "document", id, ErrConflict)
		}
		doc.Revision = revision
	}

	doc.Data = decodeData(encoded)
	doc.Revision++
	doc.DateUpdated = ts
	return doc, nil
}

// RemoveDocument deletes a document
func (s *Store) RemoveDocument(ctx context.Context, service, id string) error {
	doc, err := s.FetchDocument(ctx, service, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE sid = ?`, doc.SID); err != nil {
		return newError("remove", "document", id, err)
	}
	return nil
}

// ListDocuments returns the documents of service, oldest first
func (s *Store) ListDocuments(ctx context.Context, service string) ([]*Document, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE service_sid = ? ORDER BY date_created, sid`, service)
	if err != nil {
		return nil, newError("list", "document", "", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, newError("list", "document", "", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("list", "document", "", err)
	}
	return docs, nil
}
