package syncstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testService = "IS00000000000000000000000000000000"

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := Open(&Config{Path: MemoryPath, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_FileStore(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	path := filepath.Join(t.TempDir(), "nested", "sync.db")
	store, err := Open(&Config{Path: path, Logger: logger})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.NoError(t, store.HealthCheck(context.Background()))
	assert.NoError(t, store.Migrations().ValidateSchema())

	info, err := store.Migrations().GetMigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(2), info.Version)
	assert.False(t, info.Dirty)
}

func TestStore_Close(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "closing twice should be a no-op")

	_, err := store.CreateDocument(context.Background(), testService, "", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, testService, "settings", map[string]any{"theme": "dark"})
	require.NoError(t, err)
	assert.Len(t, doc.SID, 34)
	assert.Equal(t, "ET", doc.SID[:2])
	assert.Equal(t, 0, doc.Revision)

	t.Run("fetch by unique name and sid", func(t *testing.T) {
		byName, err := store.FetchDocument(ctx, testService, "settings")
		require.NoError(t, err)
		bySID, err := store.FetchDocument(ctx, testService, doc.SID)
		require.NoError(t, err)

		assert.Equal(t, doc.SID, byName.SID)
		assert.Equal(t, byName, bySID)
		assert.Equal(t, "dark", byName.Data["theme"])
	})

	t.Run("duplicate unique name", func(t *testing.T) {
		_, err := store.CreateDocument(ctx, testService, "settings", nil)
		assert.True(t, IsAlreadyExists(err))

		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, 409, storeErr.StatusCode())
	})

	t.Run("unique names are scoped to the service", func(t *testing.T) {
		_, err := store.CreateDocument(ctx, "IS11111111111111111111111111111111", "settings", nil)
		assert.NoError(t, err)
	})

	t.Run("update bumps revision", func(t *testing.T) {
		updated, err := store.UpdateDocument(ctx, testService, "settings", map[string]any{"theme": "light"})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Revision)

		fetched, err := store.FetchDocument(ctx, testService, doc.SID)
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.Revision)
		assert.Equal(t, "light", fetched.Data["theme"])
	})

	t.Run("list", func(t *testing.T) {
		_, err := store.CreateDocument(ctx, testService, "", map[string]any{"n": 1})
		require.NoError(t, err)

		docs, err := store.ListDocuments(ctx, testService)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.RemoveDocument(ctx, testService, "settings"))

		_, err := store.FetchDocument(ctx, testService, "settings")
		assert.True(t, IsNotFound(err))

		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, 404, storeErr.StatusCode())
		assert.Equal(t, "sync document fetch failed for 'settings': sync resource not found", err.Error())
	})
}

func TestDocuments_ConditionalUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, testService, "tally", map[string]any{"count": 1})
	require.NoError(t, err)

	updated, err := store.UpdateDocumentIf(ctx, testService, "tally", doc.Revision, map[string]any{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Revision)

	_, err = store.UpdateDocumentIf(ctx, testService, "tally", doc.Revision, map[string]any{"count": 99})
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, 412, storeErr.StatusCode())

	current, err := store.FetchDocument(ctx, testService, "tally")
	require.NoError(t, err)
	assert.Equal(t, float64(2), current.Data["count"])
	assert.Equal(t, 1, current.Revision)

	_, err = store.UpdateDocumentIf(ctx, testService, "missing", 0, nil)
	assert.True(t, IsNotFound(err))
}

func TestMaps(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	m, err := store.CreateMap(ctx, testService, "users")
	require.NoError(t, err)
	assert.Equal(t, "MP", m.SID[:2])

	_, err = store.CreateMapItem(ctx, testService, "users", "bob", map[string]any{"age": 30})
	require.NoError(t, err)
	_, err = store.CreateMapItem(ctx, testService, m.SID, "alice", map[string]any{"age": 28})
	require.NoError(t, err)

	_, err = store.CreateMapItem(ctx, testService, "users", "bob", nil)
	assert.True(t, IsAlreadyExists(err))

	items, err := store.ListMapItems(ctx, testService, "users")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alice", items[0].Key)
	assert.Equal(t, "bob", items[1].Key)

	item, err := store.UpdateMapItem(ctx, testService, "users", "bob", map[string]any{"age": 31})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Revision)
	assert.EqualValues(t, 31, item.Data["age"])

	require.NoError(t, store.RemoveMapItem(ctx, testService, "users", "alice"))
	_, err = store.FetchMapItem(ctx, testService, "users", "alice")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.RemoveMap(ctx, testService, "users"))
	_, err = store.FetchMap(ctx, testService, "users")
	assert.True(t, IsNotFound(err))

	var count int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM map_items`).Scan(&count))
	assert.Equal(t, 0, count, "map items should be removed with their map")
}

func TestLists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l, err := store.CreateList(ctx, testService, "queue")
	require.NoError(t, err)
	assert.Equal(t, "ES", l.SID[:2])

	for i := 0; i < 3; i++ {
		item, err := store.CreateListItem(ctx, testService, "queue", map[string]any{"position": i})
		require.NoError(t, err)
		assert.Equal(t, i, item.Index)
	}

	require.NoError(t, store.RemoveListItem(ctx, testService, "queue", 2))

	item, err := store.CreateListItem(ctx, testService, "queue", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Index, "a removed index is never handed out again")

	_, err = store.FetchListItem(ctx, testService, "queue", 2)
	assert.True(t, IsNotFound(err))

	updated, err := store.UpdateListItem(ctx, testService, l.SID, 0, map[string]any{"done": true})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Revision)
	assert.Equal(t, true, updated.Data["done"])

	items, err := store.ListListItems(ctx, testService, "queue")
	require.NoError(t, err)
	require.Len(t, items, 3)
	indexes := make([]int, 0, len(items))
	for _, item := range items {
		indexes = append(indexes, item.Index)
	}
	assert.Equal(t, []int{0, 1, 3}, indexes)

	_, err = store.FetchListItem(ctx, testService, "queue", 42)
	assert.True(t, IsNotFound(err))

	_, err = store.CreateListItem(ctx, testService, "missing", nil)
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.RemoveList(ctx, testService, "queue"))
	_, err = store.ListListItems(ctx, testService, "queue")
	assert.True(t, IsNotFound(err))
}

func TestLists_RemoveLastThenAppend(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateList(ctx, testService, "chat")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := store.CreateListItem(ctx, testService, "chat", map[string]any{"n": i})
		require.NoError(t, err)
	}
	require.NoError(t, store.RemoveListItem(ctx, testService, "chat", 1))
	require.NoError(t, store.RemoveListItem(ctx, testService, "chat", 0))

	item, err := store.CreateListItem(ctx, testService, "chat", map[string]any{"n": "new"})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Index)
}

func TestMigrations_BackfillNextIndex(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := Open(&Config{Path: filepath.Join(t.TempDir(), "sync.db"), Logger: logger})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Migrations().RollbackMigration())
	info, err := store.Migrations().GetMigrationStatus()
	require.NoError(t, err)
	require.Equal(t, uint(1), info.Version)

	l, err := store.CreateList(ctx, testService, "legacy")
	require.NoError(t, err)
	for _, index := range []int{0, 4} {
		_, err := store.db.ExecContext(ctx,
			`INSERT INTO list_items (list_sid, item_index, data, revision, date_created, date_updated) VALUES (?, ?, '{}', 0, ?, ?)`,
			l.SID, index, formatTime(now()), formatTime(now()))
		require.NoError(t, err)
	}

	require.NoError(t, store.Migrations().RunMigrations())

	item, err := store.CreateListItem(ctx, testService, "legacy", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Index)
}
