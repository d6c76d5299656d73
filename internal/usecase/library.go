package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

// LibraryDeps wires the archive operations' collaborators.
type LibraryDeps struct {
	Ledger       ports.BoxLedger
	Delivery     ports.DeliveryChannel
	ForwardPause time.Duration
	Logger       *slog.Logger
}

// Library covers the archive side of the system: submitting new items,
// reporting box statistics, and re-sending a box or the whole collection.
type Library struct {
	ledger       ports.BoxLedger
	delivery     ports.DeliveryChannel
	forwardPause time.Duration
	logger       *slog.Logger
}

// NewLibrary constructs the archive use case.
func NewLibrary(deps LibraryDeps) *Library {
	return &Library{
		ledger:       deps.Ledger,
		delivery:     deps.Delivery,
		forwardPause: deps.ForwardPause,
		logger:       deps.Logger,
	}
}

// AddItem files a newly submitted item into box 1 and returns the owner's
// resulting total. Re-submitting a known item is a no-op. A non-nil error
// means the submission itself failed and the user should retry.
func (l *Library) AddItem(ctx context.Context, owner, location, itemID int64) (int, error) {
	if err := l.ledger.Add(ctx, owner, location, itemID); err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}

	stats, err := l.ledger.Stats(ctx, owner)
	if err != nil {
		// The submission already succeeded; a missing total is cosmetic.
		l.warn("stats after add", "owner", owner, "error", err)
		return 0, nil
	}

	return stats.Total, nil
}

// Stats returns the owner's per-box counts.
func (l *Library) Stats(ctx context.Context, owner int64) (domain.BoxStats, error) {
	return l.ledger.Stats(ctx, owner)
}

// SendBox re-presents every item of one box with review controls, pacing
// sends with the configured pause. Items whose source content vanished are
// skipped. Returns the number of items actually sent.
func (l *Library) SendBox(ctx context.Context, owner, dest int64, box int) (int, error) {
	items, err := l.ledger.ListByBox(ctx, owner, box)
	if err != nil {
		return 0, fmt.Errorf("list box %d: %w", box, err)
	}

	var sent int
	for i, item := range items {
		if err := l.delivery.SendCopy(ctx, dest, item, ReviewControls(item.ID)); err != nil {
			l.skip("copy from box view", item, err)
		} else {
			sent++
		}
		if i < len(items)-1 && !l.pause(ctx) {
			break
		}
	}

	return sent, nil
}

// ForwardAll forwards the owner's entire archive to dest in insertion order.
// Returns the number of items actually forwarded.
func (l *Library) ForwardAll(ctx context.Context, owner, dest int64) (int, error) {
	items, err := l.ledger.ListAll(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list all: %w", err)
	}

	var sent int
	for i, item := range items {
		if err := l.delivery.Forward(ctx, dest, item); err != nil {
			l.skip("forward from archive", item, err)
		} else {
			sent++
		}
		if i < len(items)-1 && !l.pause(ctx) {
			break
		}
	}

	return sent, nil
}

func (l *Library) skip(op string, item domain.Item, err error) {
	if errors.Is(err, ports.ErrContentGone) {
		l.warn(op+": content gone, skipping", "owner", item.Owner, "item", item.ID)
		return
	}
	l.warn(op+" failed", "owner", item.Owner, "item", item.ID, "error", err)
}

func (l *Library) pause(ctx context.Context) bool {
	if l.forwardPause <= 0 {
		return true
	}

	select {
	case <-time.After(l.forwardPause):
		return true
	case <-ctx.Done():
		return false
	}
}

func (l *Library) warn(msg string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
