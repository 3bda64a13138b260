package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
)

const settingColumns = `id, user_id, key, value, created_at, updated_at`

type SettingRepository struct {
	db *DB
}

func NewSettingRepository(db *DB) repository.SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Setting, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`
SELECT `+settingColumns+`
FROM settings
WHERE user_id = ?
ORDER BY key ASC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := []domain.Setting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *setting)
	}

	return settings, rows.Err()
}

func (r *SettingRepository) Get(ctx context.Context, userID int64, key string) (*domain.Setting, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`
SELECT `+settingColumns+`
FROM settings
WHERE user_id = ? AND key = ?`),
		userID,
		key,
	)
	return scanSetting(row)
}

// Upsert overwrites the value of an existing (user, key) row or inserts it.
func (r *SettingRepository) Upsert(ctx context.Context, userID int64, key, value string) (*domain.Setting, error) {
	ts := now()

	var setting *domain.Setting
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO settings (user_id, key, value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at`),
			userID,
			key,
			value,
			ts,
			ts,
		); err != nil {
			return fmt.Errorf("upsert setting: %w", err)
		}

		row := tx.QueryRowContext(ctx, r.db.rebind(`
SELECT `+settingColumns+`
FROM settings
WHERE user_id = ? AND key = ?`),
			userID,
			key,
		)
		var err error
		setting, err = scanSetting(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func scanSetting(row scanner) (*domain.Setting, error) {
	var setting domain.Setting
	if err := row.Scan(
		&setting.ID,
		&setting.UserID,
		&setting.Key,
		&setting.Value,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("setting: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan setting: %w", err)
	}
	setting.CreatedAt = setting.CreatedAt.UTC()
	setting.UpdatedAt = setting.UpdatedAt.UTC()
	return &setting, nil
}
