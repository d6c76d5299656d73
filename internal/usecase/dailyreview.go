package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

// Report summarizes one daily review run for observability.
type Report struct {
	Owners    int
	Delivered int
	Failures  int
}

// DailyReviewDeps wires the daily review coordinator's collaborators.
type DailyReviewDeps struct {
	Ledger     ports.BoxLedger
	Selector   *Selector
	Delivery   ports.DeliveryChannel
	OwnerPause time.Duration
	Logger     *slog.Logger
}

// DailyReview fans one review pass out across every owner holding items. The
// pause between owners is backpressure against the delivery channel's rate
// limits, not a correctness requirement.
type DailyReview struct {
	ledger     ports.BoxLedger
	selector   *Selector
	delivery   ports.DeliveryChannel
	ownerPause time.Duration
	logger     *slog.Logger
}

// NewDailyReview constructs the coordinator.
func NewDailyReview(deps DailyReviewDeps) *DailyReview {
	return &DailyReview{
		ledger:     deps.Ledger,
		selector:   deps.Selector,
		delivery:   deps.Delivery,
		ownerPause: deps.OwnerPause,
		logger:     deps.Logger,
	}
}

// RunOnce executes one full pass over all owners. It never returns an error:
// every per-owner and per-item failure is logged, counted, and skipped so one
// broken owner cannot block the rest.
func (d *DailyReview) RunOnce(ctx context.Context) Report {
	var report Report

	targets, err := d.ledger.ReviewTargets(ctx)
	if err != nil {
		d.log(slog.LevelError, "enumerate review targets", "error", err)
		report.Failures++
		return report
	}

	d.log(slog.LevelInfo, "daily review run started", "owners", len(targets))

	for i, target := range targets {
		sent, failed := d.deliverOwner(ctx, target.Owner, target.Location)
		report.Owners++
		report.Delivered += sent
		report.Failures += failed

		if i < len(targets)-1 && !d.pause(ctx) {
			break
		}
	}

	d.log(slog.LevelInfo, "daily review run finished",
		"owners", report.Owners,
		"delivered", report.Delivered,
		"failures", report.Failures)

	return report
}

// ReviewNow serves a manually triggered review session for one owner and
// returns the number of items presented.
func (d *DailyReview) ReviewNow(ctx context.Context, owner, dest int64) (int, error) {
	items, err := d.selector.SelectForReview(ctx, owner)
	if err != nil {
		return 0, err
	}

	sent, _ := d.send(ctx, dest, items)
	return sent, nil
}

func (d *DailyReview) deliverOwner(ctx context.Context, owner, dest int64) (int, int) {
	items, err := d.selector.SelectForReview(ctx, owner)
	if err != nil {
		d.log(slog.LevelError, "select batch", "owner", owner, "error", err)
		return 0, 1
	}

	return d.send(ctx, dest, items)
}

func (d *DailyReview) send(ctx context.Context, dest int64, items []domain.Item) (int, int) {
	var sent, failed int
	for _, item := range items {
		err := d.delivery.SendCopy(ctx, dest, item, ReviewControls(item.ID))
		if err == nil {
			sent++
			continue
		}

		failed++
		if errors.Is(err, ports.ErrContentGone) {
			d.log(slog.LevelWarn, "source content gone, skipping",
				"owner", item.Owner, "item", item.ID)
		} else {
			d.log(slog.LevelError, "deliver item",
				"owner", item.Owner, "item", item.ID, "error", err)
		}
	}

	return sent, failed
}

// pause waits the configured per-owner gap; false means the context ended and
// the run should stop. The interrupted run resumes correctly next trigger
// since it re-reads current state.
func (d *DailyReview) pause(ctx context.Context) bool {
	if d.ownerPause <= 0 {
		return true
	}

	select {
	case <-time.After(d.ownerPause):
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *DailyReview) log(level slog.Level, msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Log(context.Background(), level, msg, args...)
	}
}
