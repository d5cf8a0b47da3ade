package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/document"
	"HackNewsBot/internal/infrastructure/feed"
	"HackNewsBot/internal/infrastructure/lock"
	"HackNewsBot/internal/infrastructure/scheduler"
	"HackNewsBot/internal/infrastructure/storage"
	"HackNewsBot/internal/infrastructure/telegram"
	"HackNewsBot/internal/infrastructure/translate"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/ports"
	"HackNewsBot/internal/scanner"
	"HackNewsBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	log       *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	closers   []io.Closer
}

// New builds every adapter selected by cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	a := &Application{cfg: cfg, log: baseLogger}

	registry := scanner.NewRegistry()
	httpClient := feed.NewHTTPClient(cfg.Feed.RequestTimeout)
	registry.Register(feed.NewAPIScanner(httpClient, cfg.Feed, baseLogger.With("component", "scanner.api")))
	registry.Register(feed.NewHTMLScanner(httpClient, cfg.Feed, baseLogger.With("component", "scanner.html")))
	registry.Register(feed.NewRSSScanner(httpClient, cfg.Feed, baseLogger.With("component", "scanner.rss")))
	if _, err := registry.Resolve(cfg.Feed.Strategy); err != nil {
		return nil, err
	}
	source := feed.NewStrategySource(registry, cfg.Feed.Strategy, baseLogger.With("component", "source"))

	service, err := newTranslationService(cfg.Translator)
	if err != nil {
		return nil, err
	}
	translator, err := usecase.NewTranslator(service, usecase.TranslatorOptions{
		SourceLang:  cfg.Translator.SourceLang,
		TargetLang:  cfg.Translator.TargetLang,
		Timeout:     cfg.Translator.Timeout,
		Concurrency: cfg.Translator.Concurrency,
		CacheSize:   cfg.Translator.CacheSize,
	}, baseLogger.With("component", "translator"))
	if err != nil {
		return nil, err
	}

	store, err := a.newStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	locker, err := a.newLocker()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n != nil {
		notifier = n
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Translator: translator,
		Store:      store,
		Renderer:   document.NewRenderer(document.LinkStyle(cfg.Document.LinkStyle)),
		Locker:     locker,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	}, usecase.PipelineOptions{
		Directory:          cfg.Document.Directory,
		Limit:              cfg.Feed.Limit,
		MaxConflictRetries: cfg.Document.ConflictRetries(),
		Location:           cfg.Scheduler.Location(),
	})
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		a.pipeline,
		baseLogger.With("component", "scheduler"),
	)

	return a, nil
}

// RunOnce executes a single cycle for the current time.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.scheduler.RunOnce(ctx, time.Now())
}

// Run starts the scheduler (and the metrics endpoint when configured) and
// blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	var srv *http.Server
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server stopped", "error", err)
			}
		}()
		a.log.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
	}

	a.log.Info("scheduler started", "interval", a.cfg.Scheduler.Interval, "strategy", a.cfg.Feed.Strategy, "storage", a.cfg.Storage.Backend)
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	a.log.Info("scheduler stopped")
	return errors.Join(errs...)
}

// Close releases storage and lock connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newTranslationService(cfg config.TranslatorConfig) (ports.TranslationService, error) {
	switch cfg.Provider {
	case "", "google":
		return translate.NewGoogleClient(cfg.Endpoint, cfg.Timeout), nil
	case "openai":
		return translate.NewOpenAIClient(cfg.OpenAI)
	case "libretranslate":
		return translate.NewLibreClient(cfg.LibreTranslate, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown translator provider %q", cfg.Provider)
	}
}

func (a *Application) newStore(ctx context.Context) (ports.DocumentStore, error) {
	cfg := a.cfg.Storage
	switch cfg.Backend {
	case "", "github":
		return storage.NewGitHubStore(nil, cfg.GitHub)
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store, err := storage.NewPostgresStore(db, cfg.Postgres.Table)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return storage.NewFileStore(cfg.File.Root)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (a *Application) newLocker() (ports.Locker, error) {
	cfg := a.cfg.Lock
	switch cfg.Backend {
	case "", "local":
		return lock.NewLocal(false), nil
	case "redis":
		l, err := lock.NewRedis(cfg.RedisURL, cfg.TTL, a.log.With("component", "lock"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, l)
		return l, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
