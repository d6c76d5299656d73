package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

// Per-user setting governing the review batch size.
const (
	SettingDailyReviews = "daily_reviews"
	DefaultDailyReviews = 2
	MinDailyReviews     = 1
	MaxDailyReviews     = 20
)

// SelectorDeps wires the selector's collaborators.
type SelectorDeps struct {
	Ledger   ports.BoxLedger
	Settings ports.SettingsStore
	Rand     *rand.Rand
	Logger   *slog.Logger
}

// Selector picks the item batch to present next. Items in low boxes are
// surfaced first; order within a box is randomized so a fixed presentation
// order cannot starve later-inserted items.
type Selector struct {
	ledger   ports.BoxLedger
	settings ports.SettingsStore
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector constructs the selector. A nil Rand gets a time-seeded source.
func NewSelector(deps SelectorDeps) *Selector {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		ledger:   deps.Ledger,
		settings: deps.Settings,
		logger:   deps.Logger,
		rng:      rng,
	}
}

// SelectForReview returns up to the owner's daily review count of items,
// box-ascending with a random tie-break inside each box. The limit is read
// from settings on every call so a mid-session change applies immediately.
func (s *Selector) SelectForReview(ctx context.Context, owner int64) ([]domain.Item, error) {
	limit := s.DailyLimit(ctx, owner)

	items, err := s.ledger.ListAll(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	s.mu.Unlock()

	// Stable sort keeps the shuffled order inside each box.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Box < items[j].Box
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// DailyLimit reads the owner's review batch size, initializing the default on
// first read. Unreadable or malformed values fall back to the default.
func (s *Selector) DailyLimit(ctx context.Context, owner int64) int {
	raw, err := s.settings.GetOrInit(ctx, owner, SettingDailyReviews, strconv.Itoa(DefaultDailyReviews))
	if err != nil {
		s.warn("read daily limit", "owner", owner, "error", err)
		return DefaultDailyReviews
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < MinDailyReviews || limit > MaxDailyReviews {
		s.warn("malformed daily limit", "owner", owner, "value", raw)
		return DefaultDailyReviews
	}

	return limit
}

func (s *Selector) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
