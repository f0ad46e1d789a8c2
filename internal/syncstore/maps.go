package syncstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Map is a Sync map
type Map struct {
	SID         string    `json:"sid"`
	ServiceSID  string    `json:"service_sid"`
	UniqueName  string    `json:"unique_name,omitempty"`
	DateCreated time.Time `json:"date_created"`
}

// MapItem is an entry of a Sync map
type MapItem struct {
	MapSID      string         `json:"map_sid"`
	Key         string         `json:"key"`
	Data        map[string]any `json:"data"`
	Revision    int            `json:"revision"`
	DateCreated time.Time      `json:"date_created"`
	DateUpdated time.Time      `json:"date_updated"`
}

const mapItemColumns = `map_sid, item_key, data, revision, date_created, date_updated`

// CreateMap creates a map in service
func (s *Store) CreateMap(ctx context.Context, service, uniqueName string) (*Map, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	m := &Map{SID: newSID("MP"), ServiceSID: service, UniqueName: uniqueName, DateCreated: now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO maps (sid, service_sid, unique_name, date_created) VALUES (?, ?, ?, ?)`,
		m.SID, service, nullable(uniqueName), formatTime(m.DateCreated))
	if err != nil {
		return nil, newError("create", "map", uniqueName, err)
	}
	return m, nil
}

// FetchMap reads a map by SID or unique name
func (s *Store) FetchMap(ctx context.Context, service, id string) (*Map, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	var (
		m          Map
		uniqueName sql.NullString
		created    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT sid, service_sid, unique_name, date_created FROM maps WHERE service_sid = ? AND (sid = ? OR unique_name = ?)`,
		service, id, id).Scan(&m.SID, &m.ServiceSID, &uniqueName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError("fetch", "map", id, ErrNotFound)
	}
	if err != nil {
		return nil, newError("fetch", "map", id, err)
	}
	m.UniqueName = uniqueName.String
	m.DateCreated = parseTime(created)
	return &m, nil
}

// RemoveMap deletes a map and its items
func (s *Store) RemoveMap(ctx context.Context, service, id string) error {
	m, err := s.FetchMap(ctx, service, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM maps WHERE sid = ?`, m.SID); err != nil {
		return newError("remove", "map", id, err)
	}
	return nil
}

func scanMapItem(row interface{ Scan(...any) error }) (*MapItem, error) {
	var (
		item                   MapItem
		data, created, updated string
	)
	if err := row.Scan(&item.MapSID, &item.Key, &data, &item.Revision, &created, &updated); err != nil {
		return nil, err
	}
	item.Data = decodeData(data)
	item.DateCreated = parseTime(created)
	item.DateUpdated = parseTime(updated)
	return &item, nil
}

// CreateMapItem adds key to a map
func (s *Store) CreateMapItem(ctx context.Context, service, mapID, key string, data map[string]any) (*MapItem, error) {
	m, err := s.FetchMap(ctx, service, mapID)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("create", "map item", key, err)
	}

	ts := now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO map_items (`+mapItemColumns+`) VALUES (?, ?, ?, 0, ?, ?)`,
		m.SID, key, encoded, formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, newError("create", "map item", key, err)
	}

	return &MapItem{MapSID: m.SID, Key: key, Data: decodeData(encoded), DateCreated: ts, DateUpdated: ts}, nil
}

// FetchMapItem reads key from a map
func (s *Store) FetchMapItem(ctx context.Context, service, mapID, key string) (*MapItem, error) {
	m, err := s.FetchMap(ctx, service, mapID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+mapItemColumns+` FROM map_items WHERE map_sid = ? AND item_key = ?`, m.SID, key)
	item, err := scanMapItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError("fetch", "map item", key, ErrNotFound)
	}
	if err != nil {
		return nil, newError("fetch", "map item", key, err)
	}
	return item, nil
}

// UpdateMapItem replaces the data of key and bumps its revision
func (s *Store) UpdateMapItem(ctx context.Context, service, mapID, key string, data map[string]any) (*MapItem, error) {
	item, err := s.FetchMapItem(ctx, service, mapID, key)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeData(data)
	if err != nil {
		return nil, newError("update", "map item", key, err)
	}

	ts := now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE map_items SET data = ?, revision = revision + 1, date_updated = ? WHERE map_sid = ? AND item_key = ?`,
		encoded, formatTime(ts), item.MapSID, key)
	if err != nil {
		return nil, newError("update", "map item", key, err)
	}

	item.Data = decodeData(encoded)
	item.Revision++
	item.DateUpdated = ts
	return item, nil
}

// RemoveMapItem deletes key from a map
func (s *Store) RemoveMapItem(ctx context.Context, service, mapID, key string) error {
	item, err := s.FetchMapItem(ctx, service, mapID, key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM map_items WHERE map_sid = ? AND item_key = ?`, item.MapSID, key)
	if err != nil {
		return newError("remove", "map item", key, err)
	}
	return nil
}

// ListMapItems returns the items of a map ordered by key
func (s *Store) ListMapItems(ctx context.Context, service, mapID string) ([]*MapItem, error) {
	m, err := s.FetchMap(ctx, service, mapID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mapItemColumns+` FROM map_items WHERE map_sid = ? ORDER BY item_key`, m.SID)
	if err != nil {
		return nil, newError("list", "map item", mapID, err)
	}
	defer rows.Close()

	var items []*MapItem
	for rows.Next() {
		item, err := scanMapItem(rows)
		if err != nil {
			return nil, newError("list", "map item", mapID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("list", "map item", mapID, err)
	}
	return items, nil
}
