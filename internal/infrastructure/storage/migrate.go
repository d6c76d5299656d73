package storage

import (
	"context"
	"database/sql"
	"fmt"

	"LeitnerBot/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		chat_id BIGINT NOT NULL,
		message_id BIGINT NOT NULL,
		leitner_box INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		user_id BIGINT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY(user_id, key)
	)`,
}

// InitSchema creates the items and settings tables if they are absent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	log := logger.New("storage.migrate")

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	log.Printf("schema ready (%d statements)", len(schema))
	return nil
}
