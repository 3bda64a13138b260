package repository

import (
	"context"
	"time"

	"browser-sync/internal/domain"
)

// Every method below is scoped to the userID it receives; none of them reads or
// writes rows without naming their owner.

// HistoryRepository persists visited URLs, one row per (user, url).
type HistoryRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.HistoryItem, error)
	// RecordVisit inserts the row with a visit count of 1, or atomically bumps the
	// count and last visit time of the existing row.
	RecordVisit(ctx context.Context, userID int64, url string, title *string, visitedAt time.Time) (*domain.HistoryItem, error)
}

// BookmarkRepository persists bookmarks. Creates never deduplicate.
type BookmarkRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Bookmark, error)
	Create(ctx context.Context, userID int64, bookmark *domain.Bookmark) error
	Get(ctx context.Context, userID, id int64) (*domain.Bookmark, error)
}

// SettingRepository persists key/value settings, one row per (user, key).
type SettingRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Setting, error)
	Get(ctx context.Context, userID int64, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, userID int64, key, value string) (*domain.Setting, error)
}
