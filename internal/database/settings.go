package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ye-allison/SyllaBud/internal/theme"
)

const themeKey = "theme"

// Setting returns a stored value and whether it exists.
func (db *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a value.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Theme returns the selected theme, or theme.Default when none is stored.
func (db *DB) Theme(ctx context.Context) (string, error) {
	name, ok, err := db.Setting(ctx, themeKey)
	if err != nil {
		return "", err
	}
	if !ok || theme.Validate(name) != nil {
		return theme.Default, nil
	}
	return name, nil
}

// SetTheme persists the selection.
func (db *DB) SetTheme(ctx context.Context, name string) error {
	if err := theme.Validate(name); err != nil {
		return err
	}
	return db.SetSetting(ctx, themeKey, name)
}

var _ theme.Store = (*DB)(nil)

// SeedTheme stores name as the selection unless one is already stored.
func (db *DB) SeedTheme(ctx context.Context, name string) error {
	if err := theme.Validate(name); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, themeKey, name)
	if err != nil {
		return fmt.Errorf("seeding theme: %w", err)
	}
	return nil
}
