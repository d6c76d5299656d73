package ports

import (
	"context"
	"errors"

	"LeitnerBot/internal/domain"
)

// Delivery failure modes. ErrContentGone means the source content no longer
// exists at its origin location and the item should be skipped, never treated
// as fatal.
var (
	ErrDeliveryUnavailable = errors.New("delivery unavailable")
	ErrContentGone         = errors.New("content gone")
)

// Control is one inline button attached to a presented item.
type Control struct {
	Label   string
	Payload string
}

// MessageRef points at a presentation message already shown to a user.
type MessageRef struct {
	Chat    int64
	Message int64
}

// BoxLedger is the authoritative mapping of items to owners and boxes.
type BoxLedger interface {
	// Add inserts the item into box 1. Re-submitting an existing
	// (owner, itemID) pair is a no-op.
	Add(ctx context.Context, owner, location, itemID int64) error
	// Stats returns per-box counts for one owner, zero-filled for empty boxes.
	Stats(ctx context.Context, owner int64) (domain.BoxStats, error)
	// Promote moves the item one box up, capped at domain.MaxBox, and returns
	// the resulting box. A result of 0 means the item does not exist for that
	// owner; this is a signal, not an error.
	Promote(ctx context.Context, owner, itemID int64) (int, error)
	// Reset moves the item back to box 1 and returns the resulting box, with
	// the same not-found signal as Promote.
	Reset(ctx context.Context, owner, itemID int64) (int, error)
	// Delete permanently removes the item. Deleting a missing item is a no-op.
	Delete(ctx context.Context, owner, itemID int64) error
	// ListByBox returns one box's items in insertion order.
	ListByBox(ctx context.Context, owner int64, box int) ([]domain.Item, error)
	// ListAll returns all of the owner's items in insertion order.
	ListAll(ctx context.Context, owner int64) ([]domain.Item, error)
	// ReviewTargets enumerates every owner holding at least one item, paired
	// with the most recently seen delivery location.
	ReviewTargets(ctx context.Context) ([]domain.ReviewTarget, error)
}

// SettingsStore keeps per-user configuration values.
type SettingsStore interface {
	// GetOrInit reads a setting; on first read of a missing key it writes the
	// default value and returns it. The write side effect happens at most once
	// per (owner, key).
	GetOrInit(ctx context.Context, owner int64, key, def string) (string, error)
	Set(ctx context.Context, owner int64, key, value string) error
}

// DeliveryChannel re-sends stored content to users and maintains the
// presentation messages carrying feedback controls.
type DeliveryChannel interface {
	SendCopy(ctx context.Context, dest int64, source domain.Item, controls []Control) error
	Forward(ctx context.Context, dest int64, source domain.Item) error
	EditPresentation(ctx context.Context, ref MessageRef, text string, controls []Control) error
	RemovePresentation(ctx context.Context, ref MessageRef) error
}

// Scheduler controls when the recurring review job executes.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}
