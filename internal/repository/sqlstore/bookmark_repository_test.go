package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-sync/internal/domain"
)

func TestBookmarkCreateAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewBookmarkRepository(db)
		userID := createUser(t, db)

		folder := int64(7)
		bookmark := &domain.Bookmark{
			URL:         "https://go.dev",
			Title:       strPtr("Go"),
			Description: strPtr("The Go site"),
			FolderID:    &folder,
		}
		require.NoError(t, repo.Create(ctx, userID, bookmark))
		assert.Positive(t, bookmark.ID)
		assert.Equal(t, userID, bookmark.UserID)

		got, err := repo.Get(ctx, userID, bookmark.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://go.dev", got.URL)
		require.NotNil(t, got.Title)
		assert.Equal(t, "Go", *got.Title)
		require.NotNil(t, got.FolderID)
		assert.Equal(t, folder, *got.FolderID)

		bare := &domain.Bookmark{URL: "https://example.com"}
		require.NoError(t, repo.Create(ctx, userID, bare))
		got, err = repo.Get(ctx, userID, bare.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Title)
		assert.Nil(t, got.Description)
		assert.Nil(t, got.FolderID)
	})
}

func TestBookmarkCreateDoesNotDeduplicate(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewBookmarkRepository(db)
		userID := createUser(t, db)

		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(ctx, userID, &domain.Bookmark{URL: "https://go.dev"}))
		}

		bookmarks, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, bookmarks, 3)
	})
}

func TestBookmarkIsolatedPerUser(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewBookmarkRepository(db)
		alice := createUser(t, db)
		bob := createUser(t, db)

		bookmark := &domain.Bookmark{URL: "https://alice.example"}
		require.NoError(t, repo.Create(ctx, alice, bookmark))

		_, err := repo.Get(ctx, bob, bookmark.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		bookmarks, err := repo.ListByUser(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, bookmarks)

		bookmarks, err = repo.ListByUser(ctx, alice)
		require.NoError(t, err)
		require.Len(t, bookmarks, 1)
		assert.Equal(t, bookmark.ID, bookmarks[0].ID)
	})
}
