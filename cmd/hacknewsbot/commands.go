package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"HackNewsBot/internal/app"
	"HackNewsBot/internal/config"
	"HackNewsBot/internal/logging"
)

type options struct {
	configPath string
	interval   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "hacknewsbot",
		Short: "Publish translated Hacker News headlines to a daily document",
		Long: `hacknewsbot polls the Hacker News ranking, translates the titles of
today's items and appends the ones not yet listed to the day's markdown post.

Example usage:
  hacknewsbot run                 # poll every scheduler.interval
  hacknewsbot run --interval 1h   # override the interval
  hacknewsbot once                # run a single cycle and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduler(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $HACKNEWS_BOT_CONFIG)")
	root.PersistentFlags().DurationVar(&opts.interval, "interval", 0, "interval between cycles (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run cycles on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduler(cmd.Context(), opts)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), opts)
		},
	})

	return root
}

func loadConfig(opts *options) config.Config {
	var cfg config.Config
	if opts.configPath != "" {
		cfg = config.LoadFile(opts.configPath)
	} else {
		cfg = config.Load()
	}
	if opts.interval > 0 {
		cfg.Scheduler.Interval = opts.interval
	}
	return cfg
}

func bootstrap(ctx context.Context, opts *options) (*app.Application, *slog.Logger, func(), error) {
	cfg := loadConfig(opts)

	logger, logCloser, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, nil, fmt.Errorf("init application: %w", err)
	}

	cleanup := func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
		_ = logCloser.Close()
	}
	return application, logger, cleanup, nil
}

func runScheduler(parent context.Context, opts *options) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, _, cleanup, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	return application.Run(ctx)
}

func runOnce(parent context.Context, opts *options) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, logger, cleanup, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := application.RunOnce(ctx); err != nil {
		return err
	}
	logger.Info("cycle finished")
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
