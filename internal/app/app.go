package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/VictorSaf/ainvestorhood5/internal/classify"
	"github.com/VictorSaf/ainvestorhood5/internal/config"
	"github.com/VictorSaf/ainvestorhood5/internal/dedup"
	"github.com/VictorSaf/ainvestorhood5/internal/feeds"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/analysis"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/feed"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/scheduler"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/storage"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/symbols"
	"github.com/VictorSaf/ainvestorhood5/internal/infrastructure/telegram"
	"github.com/VictorSaf/ainvestorhood5/internal/logging"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
	"github.com/VictorSaf/ainvestorhood5/internal/usecase"
)

// Application wires configuration into use cases and owns lifecycle.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance. Unconfigured collaborators
// (analyzer, resolver, notifier) degrade to their fallback behavior rather
// than fail wiring.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := feeds.NewRegistry()
	registry.Register(feed.NewRSSSource(nil, 0))

	source := feed.NewConfigSource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	var analyzer ports.Analyzer
	if cfg.Analysis.Endpoint != "" {
		analyzer = analysis.NewClient(cfg.Analysis.Endpoint, cfg.Analysis.APIKey, cfg.Analysis.TimeoutDuration())
	}

	var resolver ports.SymbolResolver
	if cfg.Symbols.Endpoint != "" {
		resolver = symbols.NewClient(cfg.Symbols.Endpoint, cfg.Symbols.APIKey, cfg.Symbols.TimeoutDuration())
	}

	var db *sql.DB
	var repository ports.ArticleRepository
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
		repository = storage.NewPostgresRepository(db)
	} else {
		repository = storage.NewPostgresRepository(nil)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	allowUnverified := cfg.Pipeline.AllowUnverifiedInstruments()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source,
		Deduplicator: dedup.New(cfg.Pipeline.DedupWindow, cfg.Pipeline.SimilarityThreshold, baseLogger.With("component", "dedup")),
		Classifier:   classify.NewClassifier(analyzer, allowUnverified, baseLogger.With("component", "classifier")),
		Persister:    usecase.NewPersister(repository, resolver, allowUnverified, baseLogger.With("component", "persister")),
		Notifier:     notifier,
		Workers:      cfg.Pipeline.Workers,
		Logger:       baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.IntervalDuration())

	return &Application{
		cfg:       cfg,
		db:        db,
		scheduler: usecase.NewScheduler(driver, pipeline),
	}, nil
}

// Run starts the recurring collection schedule and blocks until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler == nil {
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	if err := a.scheduler.Stop(context.Background()); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}
