package syncstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// List is a Sync list
type List struct {
	SID         string    `json:"sid"`
	ServiceSID  string    `json:"service_sid"`
	UniqueName  string    `json:"unique_name,omitempty"`
	DateCreated time.Time `json:"date_created"`
}

// ListItem is an entry of a Sync list. Indexes only grow and are never
// reused, even after the last item is removed.
type ListItem struct {
	ListSID     string         `json:"list_sid"`
	Index       int            `json:"index"`
	Data        map[string]any `json:"data"`
	Revision    int            `json:"revision"`
	DateCreated time.Time      `json:"date_created"`
	DateUpdated time.Time      `json:"date_updated"`
}

const listItemColumns = `list_sid, item_index, data, revision, date_created, date_updated`

// CreateList creates a list in service
func (s *Store) CreateList(ctx context.Context, service, uniqueName string) (*List, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	l := &List{SID: newSID("ES"), ServiceSID: service, UniqueName: uniqueName, DateCreated: now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (sid, service_sid, unique_name, date_created) VALUES (?, ?, ?, ?)`,
		l.SID, service, nullable(uniqueName), formatTime(l.DateCreated))
	if err != nil {
		return nil, newError("create", "list", uniqueName, err)
	}
	return l, nil
}

// FetchList reads a list by SID or unique name
func (s *Store) FetchList(ctx context.Context, service, id string) (*List, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	var (
		l          List
		uniqueName sql.NullString
		created    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT sid, service_sid, unique_name, date_created FROM lists WHERE service_sid = ? AND (sid = ? OR unique_name = ?)`,
		service, id, id).Scan(&l.SID, &l.ServiceSID, &uniqueName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError("fetch", "list", id, ErrNotFound)
	}
	if err != nil {
		return nil, newError("fetch", "list", id, err)
	}
	l.UniqueName = uniqueName.String
	l.DateCreated = parseTime(created)
	return &l, nil
}

// RemoveList deletes a list and its items
func (s *Store) RemoveList(ctx context.Context, service, id string) error {
	l, err := s.FetchList(ctx, service, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE sid = ?`, l.SID); err != nil {
		return newError("remove", "list", id, err)
	}
	return nil
}

func scanListItem(row interface{ Scan(...any) error }) (*ListItem, error) {
	var (
		item                   ListItem
		data, created, updated string
	)
	if err := row.Scan(&item.ListSID, &item.Index, &data, &item.Revision, &created, &updated); err != nil {
		return nil, err
	}
	item.Data = decodeData(data)
	item.DateCreated = parseTime(created)
	item.DateUpdated = parseTime(updated)
	return &item, nil
}

// CreateListItem appends an item to a list
func (s *Store) CreateListItem(ctx context.Context, service, listID string, data map[string]any) (*ListItem, error) {
	l, err := s.FetchList(ctx, service, listID)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("create", "list item", listID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, newError("create", "list item", listID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE lists SET next_index = next_index + 1 WHERE sid = ?`, l.SID); err != nil {
		return nil, newError("create", "list item", listID, err)
	}
	var next int
	err = tx.QueryRowContext(ctx, `SELECT next_index - 1 FROM lists WHERE sid = ?`, l.SID).Scan(&next)
	if err != nil {
		return nil, newError("create", "list item", listID, err)
	}

	ts := now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO list_items (`+listItemColumns+`) VALUES (?, ?, ?, 0, ?, ?)`,
		l.SID, next, encoded, formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, newError("create", "list item", listID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, newError("create", "list item", listID, err)
	}

	return &ListItem{ListSID: l.SID, Index: next, Data: decodeData(encoded), DateCreated: ts, DateUpdated: ts}, nil
}

// FetchListItem reads the item at index
func (s *Store) FetchListItem(ctx context.Context, service, listID string, index int) (*ListItem, error) {
	l, err := s.FetchList(ctx, service, listID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+listItemColumns+` FROM list_items WHERE list_sid = ? AND item_index = ?`, l.SID, index)
	item, err := scanListItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError("fetch", "list item", strconv.Itoa(index), ErrNotFound)
	}
	if err != nil {
		return nil, newError("fetch", "list item", strconv.Itoa(index), err)
	}
	return item, nil
}

// UpdateListItem replaces the data of the item at index
func (s *Store) UpdateListItem(ctx context.Context, service, listID string, index int, data map[string]any) (*ListItem, error) {
	item, err := s.FetchListItem(ctx, service, listID, index)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("update", "list item", strconv.Itoa(index), err)
	}

	ts := now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE list_items SET data = ?, revision = revision + 1, date_updated = ? WHERE list_sid = ? AND item_index = ?`,
		encoded, formatTime(ts), item.ListSID, index)
	if err != nil {
		return nil, newError("update", "list item", strconv.Itoa(index), err)
	}

	item.Data = decodeData(encoded)
	item.Revision++
	item.DateUpdated = ts
	return item, nil
}

// RemoveListItem deletes the item at index
func (s *Store) RemoveListItem(ctx context.Context, service, listID string, index int) error {
	item, err := s.FetchListItem(ctx, service, listID, index)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM list_items WHERE list_sid = ? AND item_index = ?`, item.ListSID, index)
	if err != nil {
		return newError("remove", "list item", strconv.Itoa(index), err)
	}
	return nil
}

// ListListItems returns the items of a list in index order
func (s *Store) ListListItems(ctx context.Context, service, listID string) ([]*ListItem, error) {
	l, err := s.FetchList(ctx, service, listID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listItemColumns+` FROM list_items WHERE list_sid = ? ORDER BY item_index`, l.SID)
	if err != nil {
		return nil, newError("list", "list item", listID, err)
	}
	defer rows.Close()

	var items []*ListItem
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, newError("list", "list item", listID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("list", "list item", listID, err)
	}
	return items, nil
}
