package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"LeitnerBot/internal/ports"
)

// PostgresSettings stores per-user key/value configuration.
type PostgresSettings struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.SettingsStore = (*PostgresSettings)(nil)

// NewPostgresSettings wires a sql.DB implementation.
func NewPostgresSettings(db *sql.DB) *PostgresSettings {
	return &PostgresSettings{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetOrInit reads a setting, writing the default row on the first read of a
// missing key. The ON CONFLICT guard keeps the write idempotent when two
// first reads race.
func (s *PostgresSettings) GetOrInit(ctx context.Context, owner int64, key, def string) (string, error) {
	query, args, err := s.sb.
		Select("value").
		From("settings").
		Where(sq.Eq{"user_id": owner}).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if err == nil {
		return value, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("query setting: %w", err)
	}

	insert, insertArgs, err := s.sb.
		Insert("settings").
		Columns("user_id", "key", "value").
		Values(owner, key, def).
		Suffix("ON CONFLICT (user_id, key) DO NOTHING").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build init: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, insert, insertArgs...); err != nil {
		return "", fmt.Errorf("init setting: %w", err)
	}

	return def, nil
}

// Set upserts the setting value.
func (s *PostgresSettings) Set(ctx context.Context, owner int64, key, value string) error {
	query, args, err := s.sb.
		Insert("settings").
		Columns("user_id", "key", "value").
		Values(owner, key, value).
		Suffix("ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}
