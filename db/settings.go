package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dgexport/core"
)

// LocalSetting is one row of the local key-value store
type LocalSetting struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt string `db:"updated_at"`
}

// SQLiteSettingsRepository is the durable key-value store behind the persisted selections.
// It survives process restarts the way browser local storage survives reloads.
type SQLiteSettingsRepository struct {
	db *sqlx.DB
}

func NewSQLiteSettingsRepository(db *sqlx.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

// Get returns the stored value or an error wrapping core.ErrNotFound
func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var setting LocalSetting
	err := r.db.GetContext(ctx, &setting, `SELECT key, value, updated_at FROM local_settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return setting.Value, nil
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO local_settings (key, value, updated_at)
		VALUES (:key, :value, :updated_at)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, LocalSetting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}

// Delete removes the key; deleting a missing key is not an error
func (r *SQLiteSettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM local_settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}

	return nil
}

// List returns every stored setting ordered by key
func (r *SQLiteSettingsRepository) List(ctx context.Context) ([]LocalSetting, error) {
	var settings []LocalSetting
	if err := r.db.SelectContext(ctx, &settings, `SELECT key, value, updated_at FROM local_settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	return settings, nil
}
