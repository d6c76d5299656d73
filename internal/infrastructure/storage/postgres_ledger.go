package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

// PostgresLedger is the box ledger backed by Postgres.
type PostgresLedger struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.BoxLedger = (*PostgresLedger)(nil)

// NewPostgresLedger wires a sql.DB implementation.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Add inserts the item into box 1. A duplicate (owner, itemID) submission is
// absorbed by the unique constraint and treated as success.
func (l *PostgresLedger) Add(ctx context.Context, owner, location, itemID int64) error {
	query, args, err := l.sb.
		Insert("items").
		Columns("user_id", "chat_id", "message_id", "leitner_box").
		Values(owner, location, itemID, domain.MinBox).
		Suffix("ON CONFLICT (user_id, message_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// Stats aggregates per-box counts for one owner, zero-filling empty boxes.
func (l *PostgresLedger) Stats(ctx context.Context, owner int64) (domain.BoxStats, error) {
	stats := domain.BoxStats{PerBox: make(map[int]int, domain.MaxBox)}
	for box := domain.MinBox; box <= domain.MaxBox; box++ {
		stats.PerBox[box] = 0
	}

	query, args, err := l.sb.
		Select("leitner_box", "COUNT(*)").
		From("items").
		Where(sq.Eq{"user_id": owner}).
		GroupBy("leitner_box").
		ToSql()
	if err != nil {
		return domain.BoxStats{}, fmt.Errorf("build stats: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.BoxStats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var box, count int
		if err := rows.Scan(&box, &count); err != nil {
			return domain.BoxStats{}, fmt.Errorf("scan stats row: %w", err)
		}
		if box >= domain.MinBox && box <= domain.MaxBox {
			stats.PerBox[box] = count
			stats.Total += count
		}
	}

	if err := rows.Err(); err != nil {
		return domain.BoxStats{}, fmt.Errorf("stats rows: %w", err)
	}

	return stats, nil
}

// Promote moves the item one box up, capped at domain.MaxBox. The bounded
// arithmetic runs inside the UPDATE itself so concurrent feedback on the same
// item can never push it past the last box.
func (l *PostgresLedger) Promote(ctx context.Context, owner, itemID int64) (int, error) {
	return l.move(ctx, owner, itemID, sq.Expr("LEAST(leitner_box + 1, ?)", domain.MaxBox))
}

// Reset moves the item back to box 1 unconditionally.
func (l *PostgresLedger) Reset(ctx context.Context, owner, itemID int64) (int, error) {
	return l.move(ctx, owner, itemID, domain.MinBox)
}

// move applies a box transition and returns the resulting box via RETURNING.
// A missing row yields the 0 sentinel, not an error.
func (l *PostgresLedger) move(ctx context.Context, owner, itemID int64, value interface{}) (int, error) {
	query, args, err := l.sb.
		Update("items").
		Set("leitner_box", value).
		Where(sq.Eq{"user_id": owner}).
		Where(sq.Eq{"message_id": itemID}).
		Suffix("RETURNING leitner_box").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build move: %w", err)
	}

	var box int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&box); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("move item: %w", err)
	}

	return box, nil
}

// Delete permanently removes the item. Missing rows are a silent no-op.
func (l *PostgresLedger) Delete(ctx context.Context, owner, itemID int64) error {
	query, args, err := l.sb.
		Delete("items").
		Where(sq.Eq{"user_id": owner}).
		Where(sq.Eq{"message_id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// ListByBox returns one box's items in insertion order.
func (l *PostgresLedger) ListByBox(ctx context.Context, owner int64, box int) ([]domain.Item, error) {
	builder := l.itemSelect().
		Where(sq.Eq{"user_id": owner}).
		Where(sq.Eq{"leitner_box": box}).
		OrderBy("id ASC")
	return l.queryItems(ctx, builder)
}

// ListAll returns all of the owner's items in insertion order.
func (l *PostgresLedger) ListAll(ctx context.Context, owner int64) ([]domain.Item, error) {
	builder := l.itemSelect().
		Where(sq.Eq{"user_id": owner}).
		OrderBy("id ASC")
	return l.queryItems(ctx, builder)
}

// ReviewTargets enumerates owners holding items. DISTINCT ON with a
// descending id keeps the most recently seen chat as the delivery location.
func (l *PostgresLedger) ReviewTargets(ctx context.Context) ([]domain.ReviewTarget, error) {
	query, args, err := l.sb.
		Select("DISTINCT ON (user_id) user_id", "chat_id").
		From("items").
		OrderBy("user_id", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build targets: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.ReviewTarget
	for rows.Next() {
		var t domain.ReviewTarget
		if err := rows.Scan(&t.Owner, &t.Location); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("targets rows: %w", err)
	}

	return targets, nil
}

func (l *PostgresLedger) itemSelect() sq.SelectBuilder {
	return l.sb.
		Select("id", "user_id", "chat_id", "message_id", "leitner_box").
		From("items")
}

func (l *PostgresLedger) queryItems(ctx context.Context, builder sq.SelectBuilder) ([]domain.Item, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.Seq, &it.Owner, &it.Location, &it.ID, &it.Box); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("items rows: %w", err)
	}

	return items, nil
}
