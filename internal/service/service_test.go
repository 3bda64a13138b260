package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"browser-sync/internal/repository/sqlstore"
)

type testStores struct {
	db        *sqlstore.DB
	users     UserService
	history   HistoryService
	bookmarks BookmarkService
	settings  SettingService
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()

	db, err := sqlstore.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(db))

	users, err := NewUserService(sqlstore.NewUserRepository(db), bcrypt.MinCost)
	require.NoError(t, err)

	return &testStores{
		db:        db,
		users:     users,
		history:   NewHistoryService(sqlstore.NewHistoryRepository(db)),
		bookmarks: NewBookmarkService(sqlstore.NewBookmarkRepository(db)),
		settings:  NewSettingService(sqlstore.NewSettingRepository(db)),
	}
}

func (s *testStores) register(t *testing.T, username string) int64 {
	t.Helper()
	user, err := s.users.Register(context.Background(), username, "correct horse battery")
	require.NoError(t, err)
	return user.ID
}

func strPtr(s string) *string { return &s }
