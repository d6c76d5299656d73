package scheduler

import (
	"context"
	"time"

	"LeitnerBot/internal/ports"
)

// TickerScheduler fires the job on a coarse fixed interval. The first run
// happens after a short initial delay so a restarting process does not blast
// the delivery channel immediately.
type TickerScheduler struct {
	interval     time.Duration
	initialDelay time.Duration
	stop         chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given period and start delay.
func NewTickerScheduler(interval, initialDelay time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TickerScheduler{interval: interval, initialDelay: initialDelay}
}

// Start launches the ticking goroutine.
func (s *TickerScheduler) Start(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop
	go func() {
		delay := time.NewTimer(s.initialDelay)
		defer delay.Stop()

		select {
		case <-delay.C:
			job()
		case <-ctx.Done():
			return
		case <-stop:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				job()
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
