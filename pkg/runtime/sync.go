package runtime

import (
	"context"

	"twilio-functions-utils/internal/syncstore"
)

// SyncService is one Sync service of the runtime. Every resource it hands
// out is scoped to the service.
type SyncService struct {
	store *syncstore.Store
	name  string
}

// NewSyncService scopes store to the service name
func NewSyncService(store *syncstore.Store, name string) *SyncService {
	return &SyncService{store: store, name: name}
}

// Name returns the service name
func (s *SyncService) Name() string {
	return s.name
}

// Documents returns the documents of the service
func (s *SyncService) Documents() *Documents {
	return &Documents{svc: s}
}

// Maps returns the maps of the service
func (s *SyncService) Maps() *Maps {
	return &Maps{svc: s}
}

// Lists returns the lists of the service
func (s *SyncService) Lists() *Lists {
	return &Lists{svc: s}
}

// Documents manages Sync documents
type Documents struct {
	svc *SyncService
}

func (d *Documents) Create(ctx context.Context, uniqueName string, data map[string]any) (*syncstore.Document, error) {
	return d.svc.store.CreateDocument(ctx, d.svc.name, uniqueName, data)
}

func (d *Documents) Fetch(ctx context.Context, id string) (*syncstore.Document, error) {
	return d.svc.store.FetchDocument(ctx, d.svc.name, id)
}

func (d *Documents) Update(ctx context.Context, id string, data map[string]any) (*syncstore.Document, error) {
	return d.svc.store.UpdateDocument(ctx, d.svc.name, id, data)
}

// UpdateIf updates the document only while it is still at revision
func (d *Documents) UpdateIf(ctx context.Context, id string, revision int, data map[string]any) (*syncstore.Document, error) {
	return d.svc.store.UpdateDocumentIf(ctx, d.svc.name, id, revision, data)
}

func (d *Documents) Remove(ctx context.Context, id string) error {
	return d.svc.store.RemoveDocument(ctx, d.svc.name, id)
}

func (d *Documents) List(ctx context.Context) ([]*syncstore.Document, error) {
	return d.svc.store.ListDocuments(ctx, d.svc.name)
}

// Maps manages Sync maps
type Maps struct {
	svc *SyncService
}

func (m *Maps) Create(ctx context.Context, uniqueName string) (*syncstore.Map, error) {
	return m.svc.store.CreateMap(ctx, m.svc.name, uniqueName)
}

func (m *Maps) Fetch(ctx context.Context, id string) (*syncstore.Map, error) {
	return m.svc.store.FetchMap(ctx, m.svc.name, id)
}

func (m *Maps) Remove(ctx context.Context, id string) error {
	return m.svc.store.RemoveMap(ctx, m.svc.name, id)
}

// Items returns the items of the map identified by SID or unique name
func (m *Maps) Items(mapID string) *MapItems {
	return &MapItems{svc: m.svc, mapID: mapID}
}

// MapItems manages the items of one map
type MapItems struct {
	svc   *SyncService
	mapID string
}

func (m *MapItems) Create(ctx context.Context, key string, data map[string]any) (*syncstore.MapItem, error) {
	return m.svc.store.CreateMapItem(ctx, m.svc.name, m.mapID, key, data)
}

func (m *MapItems) Fetch(ctx context.Context, key string) (*syncstore.MapItem, error) {
	return m.svc.store.FetchMapItem(ctx, m.svc.name, m.mapID, key)
}

func (m *MapItems) Update(ctx context.Context, key string, data map[string]any) (*syncstore.MapItem, error) {
	return m.svc.store.UpdateMapItem(ctx, m.svc.name, m.mapID, key, data)
}

func (m *MapItems) Remove(ctx context.Context, key string) error {
	return m.svc.store.RemoveMapItem(ctx, m.svc.name, m.mapID, key)
}

func (m *MapItems) List(ctx context.Context) ([]*syncstore.MapItem, error) {
	return m.svc.store.ListMapItems(ctx, m.svc.name, m.mapID)
}

// Lists manages Sync lists
type Lists struct {
	svc *SyncService
}

func (l *Lists) Create(ctx context.Context, uniqueName string) (*syncstore.List, error) {
	return l.svc.store.CreateList(ctx, l.svc.name, uniqueName)
}

func (l *Lists) Fetch(ctx context.Context, id string) (*syncstore.List, error) {
	return l.svc.store.FetchList(ctx, l.svc.name, id)
}

func (l *Lists) Remove(ctx context.Context, id string) error {
	return l.svc.store.RemoveList(ctx, l.svc.name, id)
}

// Items returns the items of the list identified by SID or unique name
func (l *Lists) Items(listID string) *ListItems {
	return &ListItems{svc: l.svc, listID: listID}
}

// ListItems manages the items of one list
type ListItems struct {
	svc    *SyncService
	listID string
}

func (l *ListItems) Create(ctx context.Context, data map[string]any) (*syncstore.ListItem, error) {
	return l.svc.store.CreateListItem(ctx, l.svc.name, l.listID, data)
}

func (l *ListItems) Fetch(ctx context.Context, index int) (*syncstore.ListItem, error) {
	return l.svc.store.FetchListItem(ctx, l.svc.name, l.listID, index)
}

func (l *ListItems) Update(ctx context.Context, index int, data map[string]any) (*syncstore.ListItem, error) {
	return l.svc.store.UpdateListItem(ctx, l.svc.name, l.listID, index, data)
}

func (l *ListItems) Remove(ctx context.Context, index int) error {
	return l.svc.store.RemoveListItem(ctx, l.svc.name, l.listID, index)
}

func (l *ListItems) List(ctx context.Context) ([]*syncstore.ListItem, error) {
	return l.svc.store.ListListItems(ctx, l.svc.name, l.listID)
}
