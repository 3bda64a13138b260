package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository/sqlstore"
	"browser-sync/internal/storage"
)

// memStorage is an in-memory storage.Service.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) PutObject(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStorage) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestBackupService(t *testing.T, stores *testStores, store storage.Service, now func() time.Time) BackupService {
	t.Helper()
	svc := NewBackupService(
		store,
		"/browser-sync/",
		sqlstore.NewHistoryRepository(stores.db),
		sqlstore.NewBookmarkRepository(stores.db),
		sqlstore.NewSettingRepository(stores.db),
	).(*backupService)
	svc.now = now
	return svc
}

func TestBackupCreateAndOpen(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	alice := stores.register(t, "alice")

	_, err := stores.history.RecordVisit(ctx, alice, "https://go.dev", strPtr("Go"))
	require.NoError(t, err)
	_, err = stores.bookmarks.Create(ctx, alice, BookmarkInput{URL: "https://pkg.go.dev"})
	require.NoError(t, err)
	_, err = stores.settings.Upsert(ctx, alice, "theme", "dark")
	require.NoError(t, err)

	mem := newMemStorage()
	at := time.Date(2024, 6, 1, 8, 30, 15, 0, time.UTC)
	svc := newTestBackupService(t, stores, mem, func() time.Time { return at })

	backup, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(backup.Name, "20240601T083015Z-"))
	assert.True(t, strings.HasSuffix(backup.Name, ".json"))
	assert.Equal(t, "browser-sync/users/1/"+backup.Name, backup.Key)
	assert.Equal(t, at, backup.CreatedAt)

	body, err := svc.Open(ctx, alice, backup.Name)
	require.NoError(t, err)
	defer body.Close()

	var snapshot Snapshot
	require.NoError(t, json.NewDecoder(body).Decode(&snapshot))
	assert.Equal(t, alice, snapshot.UserID)
	require.Len(t, snapshot.History, 1)
	assert.Equal(t, "https://go.dev", snapshot.History[0].URL)
	require.Len(t, snapshot.Bookmarks, 1)
	assert.Equal(t, map[string]string{"theme": "dark"}, snapshot.Settings)
}

func TestBackupListScopedAndNewestFirst(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	alice := stores.register(t, "alice")
	bob := stores.register(t, "bob")

	mem := newMemStorage()
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := newTestBackupService(t, stores, mem, func() time.Time { return at })

	older, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	at = at.Add(time.Hour)
	newer, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob)
	require.NoError(t, err)

	backups, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer.Name, backups[0].Name)
	assert.Equal(t, older.Name, backups[1].Name)
	assert.Positive(t, backups[0].Size)

	bobs, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)

	_, err = svc.Open(ctx, bob, older.Name)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackupOpenRejectsPaths(t *testing.T) {
	stores := newTestStores(t)
	alice := stores.register(t, "alice")
	svc := newTestBackupService(t, stores, newMemStorage(), time.Now)

	for _, name := range []string{"", "../2/x.json", "a/b.json", ".json", "backup.txt"} {
		_, err := svc.Open(context.Background(), alice, name)
		assert.ErrorIs(t, err, domain.ErrNotFound, name)
	}
}
