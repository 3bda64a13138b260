package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"browser-sync/internal/domain"
)

const postgresDSNEnv = "BROWSERSYNC_TEST_POSTGRES_DSN"

var userSeq atomic.Int64

// eachStore runs fn against a freshly migrated sqlite database and, when
// BROWSERSYNC_TEST_POSTGRES_DSN is set, against a reset postgres schema.
func eachStore(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, openSQLiteForTest(t))
	})

	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		return
	}
	t.Run("postgres", func(t *testing.T) {
		fn(t, openPostgresForTest(t, dsn))
	})
}

func openSQLiteForTest(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), string(DialectSQLite), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func openPostgresForTest(t *testing.T, dsn string) *DB {
	t.Helper()

	db, err := Open(context.Background(), string(DialectPostgres), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mg, err := NewMigrator(db)
	require.NoError(t, err)
	require.NoError(t, mg.Down())
	require.NoError(t, mg.Up())
	return db
}

func createUser(t *testing.T, db *DB) int64 {
	t.Helper()

	user := &domain.User{
		Username:     fmt.Sprintf("user-%d", userSeq.Add(1)),
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhashnotar",
	}
	id, err := NewUserRepository(db).Create(context.Background(), user)
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string { return &s }
