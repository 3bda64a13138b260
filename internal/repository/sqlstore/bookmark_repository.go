package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
)

const bookmarkColumns = `id, user_id, url, title, description, folder_id, created_at, updated_at`

type BookmarkRepository struct {
	db *DB
}

func NewBookmarkRepository(db *DB) repository.BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE user_id = ?
ORDER BY id ASC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		bookmark, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, *bookmark)
	}

	return bookmarks, rows.Err()
}

// Create always inserts; the same URL may be bookmarked any number of times.
func (r *BookmarkRepository) Create(ctx context.Context, userID int64, bookmark *domain.Bookmark) error {
	ts := now()
	bookmark.UserID = userID
	bookmark.CreatedAt = ts
	bookmark.UpdatedAt = ts

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, r.db.rebind(`
INSERT INTO bookmarks (user_id, url, title, description, folder_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
			bookmark.UserID,
			bookmark.URL,
			nullString(bookmark.Title),
			nullString(bookmark.Description),
			nullInt64(bookmark.FolderID),
			bookmark.CreatedAt,
			bookmark.UpdatedAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert bookmark: %w", err)
		}
		bookmark.ID = id
		return nil
	})
}

func (r *BookmarkRepository) Get(ctx context.Context, userID, id int64) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE id = ? AND user_id = ?`),
		id,
		userID,
	)
	return scanBookmark(row)
}

func scanBookmark(row scanner) (*domain.Bookmark, error) {
	var (
		bookmark    domain.Bookmark
		title       sql.NullString
		description sql.NullString
		folderID    sql.NullInt64
	)
	if err := row.Scan(
		&bookmark.ID,
		&bookmark.UserID,
		&bookmark.URL,
		&title,
		&description,
		&folderID,
		&bookmark.CreatedAt,
		&bookmark.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bookmark: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}

	bookmark.Title = stringPtr(title)
	bookmark.Description = stringPtr(description)
	bookmark.FolderID = int64Ptr(folderID)
	bookmark.CreatedAt = bookmark.CreatedAt.UTC()
	bookmark.UpdatedAt = bookmark.UpdatedAt.UTC()
	return &bookmark, nil
}
