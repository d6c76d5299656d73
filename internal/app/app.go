package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"LeitnerBot/internal/config"
	"LeitnerBot/internal/infrastructure/scheduler"
	"LeitnerBot/internal/infrastructure/storage"
	"LeitnerBot/internal/infrastructure/telegram"
	"LeitnerBot/internal/logging"
	"LeitnerBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB

	daily    *usecase.DailyReview
	feedback *usecase.Processor
	settings *usecase.SettingsFlow
	library  *usecase.Library
	driver   *scheduler.TickerScheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ledger := storage.NewPostgresLedger(db)
	settingsStore := storage.NewPostgresSettings(db)
	delivery := telegram.NewDelivery(cfg.Telegram.BotToken)

	selector := usecase.NewSelector(usecase.SelectorDeps{
		Ledger:   ledger,
		Settings: settingsStore,
		Logger:   baseLogger.With("component", "selector"),
	})

	daily := usecase.NewDailyReview(usecase.DailyReviewDeps{
		Ledger:     ledger,
		Selector:   selector,
		Delivery:   delivery,
		OwnerPause: cfg.Review.OwnerPauseDuration(),
		Logger:     baseLogger.With("component", "daily_review"),
	})

	feedback := usecase.NewProcessor(usecase.ProcessorDeps{
		Ledger: ledger,
		Logger: baseLogger.With("component", "feedback"),
	})

	settingsFlow := usecase.NewSettingsFlow(usecase.SettingsFlowDeps{
		Settings: settingsStore,
		Logger:   baseLogger.With("component", "settings"),
	})

	library := usecase.NewLibrary(usecase.LibraryDeps{
		Ledger:       ledger,
		Delivery:     delivery,
		ForwardPause: cfg.Review.ForwardPauseDuration(),
		Logger:       baseLogger.With("component", "library"),
	})

	driver := scheduler.NewTickerScheduler(cfg.Scheduler.IntervalDuration(), cfg.Scheduler.InitialDelayDuration())

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		daily:    daily,
		feedback: feedback,
		settings: settingsFlow,
		library:  library,
		driver:   driver,
	}, nil
}

// Run prepares storage, starts the recurring review job, and blocks until the
// context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := storage.InitSchema(ctx, a.db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	job := func() {
		report := a.daily.RunOnce(ctx)
		a.logger.Info("scheduled review pass done",
			"owners", report.Owners,
			"delivered", report.Delivered,
			"failures", report.Failures)
	}

	if err := a.driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("review engine running",
		"interval", a.cfg.Scheduler.IntervalDuration(),
		"initial_delay", a.cfg.Scheduler.InitialDelayDuration())

	<-ctx.Done()

	if err := a.driver.Stop(context.Background()); err != nil {
		a.logger.Warn("stop scheduler", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}

	return nil
}

// DailyReview exposes the review coordinator to the transport layer.
func (a *Application) DailyReview() *usecase.DailyReview { return a.daily }

// Feedback exposes the feedback processor to the transport layer.
func (a *Application) Feedback() *usecase.Processor { return a.feedback }

// SettingsFlow exposes the settings conversation to the transport layer.
func (a *Application) SettingsFlow() *usecase.SettingsFlow { return a.settings }

// Library exposes the archive operations to the transport layer.
func (a *Application) Library() *usecase.Library { return a.library }
