package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"LeitnerBot/internal/ports"
)

// SettingsFlowDeps wires the settings conversation's collaborators.
type SettingsFlowDeps struct {
	Settings ports.SettingsStore
	Logger   *slog.Logger
}

// SettingsFlow is the two-state settings conversation: Idle until Begin,
// AwaitingInput until a valid value or a cancel. Retries are unbounded.
type SettingsFlow struct {
	settings ports.SettingsStore
	logger   *slog.Logger

	mu       sync.Mutex
	awaiting map[int64]struct{}
}

// NewSettingsFlow constructs the conversation handler.
func NewSettingsFlow(deps SettingsFlowDeps) *SettingsFlow {
	return &SettingsFlow{
		settings: deps.Settings,
		logger:   deps.Logger,
		awaiting: make(map[int64]struct{}),
	}
}

// Begin enters AwaitingInput for the owner and returns the prompt reporting
// the current daily review count.
func (f *SettingsFlow) Begin(ctx context.Context, owner int64) string {
	current, err := f.settings.GetOrInit(ctx, owner, SettingDailyReviews, strconv.Itoa(DefaultDailyReviews))
	if err != nil {
		f.warn("read current setting", "owner", owner, "error", err)
		current = strconv.Itoa(DefaultDailyReviews)
	}

	f.mu.Lock()
	f.awaiting[owner] = struct{}{}
	f.mu.Unlock()

	return fmt.Sprintf(
		"⚙️ <b>Settings</b>\n\nDaily review count is currently: <b>%s</b>\n\n"+
			"Send the new count as a number between %d and %d, or /cancel to keep it.",
		current, MinDailyReviews, MaxDailyReviews)
}

// Active reports whether the owner is in AwaitingInput.
func (f *SettingsFlow) Active(owner int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.awaiting[owner]
	return ok
}

// HandleInput consumes one message while AwaitingInput. done=false keeps the
// conversation open for another attempt; done=true returns the owner to Idle.
func (f *SettingsFlow) HandleInput(ctx context.Context, owner int64, text string) (string, bool) {
	if !f.Active(owner) {
		return "", true
	}

	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return "❌ That is not a number. Please send just a number.", false
	}
	if value < MinDailyReviews || value > MaxDailyReviews {
		return fmt.Sprintf("❌ Please send a number between %d and %d.", MinDailyReviews, MaxDailyReviews), false
	}

	if err := f.settings.Set(ctx, owner, SettingDailyReviews, strconv.Itoa(value)); err != nil {
		f.warn("store setting", "owner", owner, "error", err)
		return "⚠️ Could not save the new value, please try again.", false
	}

	f.end(owner)
	return fmt.Sprintf("✅ Daily review count changed to <b>%d</b>.", value), true
}

// Cancel returns the owner to Idle without mutation.
func (f *SettingsFlow) Cancel(owner int64) string {
	f.end(owner)
	return "Operation cancelled."
}

func (f *SettingsFlow) end(owner int64) {
	f.mu.Lock()
	delete(f.awaiting, owner)
	f.mu.Unlock()
}

func (f *SettingsFlow) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
