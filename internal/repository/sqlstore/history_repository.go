package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
)

const historyColumns = `id, user_id, url, title, visit_count, last_visit_time, created_at`

type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) repository.HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64) ([]domain.HistoryItem, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`
SELECT `+historyColumns+`
FROM history
WHERE user_id = ?
ORDER BY last_visit_time DESC, id DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := []domain.HistoryItem{}
	for rows.Next() {
		item, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// RecordVisit relies on the (user_id, url) unique constraint: concurrent first
// visits collapse into one row instead of racing a read-then-insert.
func (r *HistoryRepository) RecordVisit(ctx context.Context, userID int64, url string, title *string, visitedAt time.Time) (*domain.HistoryItem, error) {
	visitedAt = visitedAt.UTC().Truncate(time.Microsecond)
	created := now()

	var item *domain.HistoryItem
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO history (user_id, url, title, visit_count, last_visit_time, created_at)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT (user_id, url) DO UPDATE SET
	visit_count = history.visit_count + 1,
	last_visit_time = CASE
		WHEN excluded.last_visit_time > history.last_visit_time THEN excluded.last_visit_time
		ELSE history.last_visit_time
	END,
	title = COALESCE(excluded.title, history.title)`),
			userID,
			url,
			nullString(title),
			visitedAt,
			created,
		); err != nil {
			return fmt.Errorf("upsert history: %w", err)
		}

		row := tx.QueryRowContext(ctx, r.db.rebind(`
SELECT `+historyColumns+`
FROM history
WHERE user_id = ? AND url = ?`),
			userID,
			url,
		)
		var err error
		item, err = scanHistoryItem(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanHistoryItem(row scanner) (*domain.HistoryItem, error) {
	var (
		item  domain.HistoryItem
		title sql.NullString
	)
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.URL,
		&title,
		&item.VisitCount,
		&item.LastVisitTime,
		&item.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("history item: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan history item: %w", err)
	}

	item.Title = stringPtr(title)
	item.LastVisitTime = item.LastVisitTime.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}
