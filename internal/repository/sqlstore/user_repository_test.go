package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-sync/internal/domain"
)

func TestUserRepository(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewUserRepository(db)

		user := &domain.User{Username: "alice", PasswordHash: "hash"}
		id, err := repo.Create(ctx, user)
		require.NoError(t, err)
		assert.Positive(t, id)
		assert.Equal(t, id, user.ID)

		byName, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, byName.ID)
		assert.Equal(t, "hash", byName.PasswordHash)
		assert.WithinDuration(t, user.CreatedAt, byName.CreatedAt, 0)

		byID, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)

		_, err = repo.GetByUsername(ctx, "bob")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.GetByID(ctx, id+100)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepositoryDuplicateUsername(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewUserRepository(db)

		_, err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "one"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "two"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConflict)

		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "one", user.PasswordHash)
	})
}
