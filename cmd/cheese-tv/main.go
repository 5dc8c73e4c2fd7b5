package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/cheese-tv/internal/board"
	appcfg "github.com/park285/cheese-tv/internal/config"
	"github.com/park285/cheese-tv/internal/obslog"
	"github.com/park285/cheese-tv/internal/screen"
	"github.com/park285/cheese-tv/internal/viewer"
	"github.com/park285/cheese-tv/internal/viewerbuilder"
)

func main() {
	os.Exit(run())
}

// run returns the exit status. Deferred teardown, including the terminal
// restore, runs before main exits and also while a panic unwinds.
func run() int {
	cfg, err := appcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return 1
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	// A loop failure is reported once the screen has been restored.
	var fatal error
	defer func() {
		if fatal != nil {
			fmt.Fprintf(os.Stderr, "cheese-tv: %v\n", fatal)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := viewerbuilder.New(cfg, logger)
	if err != nil {
		logger.Error("init_failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		return 1
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := deps.Metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Warn("metrics_server_failed", zap.Error(err))
			}
		}()
	}

	src, err := deps.OpenFeed(ctx)
	if err != nil {
		logger.Error("feed_open_failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "feed error: %v\n", err)
		return 1
	}
	defer func() { _ = src.Close() }()

	scr, err := screen.Open(deps.Theme)
	if err != nil {
		logger.Error("screen_open_failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "terminal error: %v\n", err)
		return 1
	}
	defer func() {
		if err := scr.Close(); err != nil {
			logger.Warn("screen_close_failed", zap.Error(err))
		}
	}()

	w, h := scr.Size()
	renderer := board.NewRenderer(board.NewLayout(w, h), scr, deps.Catalog)
	ctl := viewer.New(src, screen.NewKeyPoller(os.Stdin), renderer,
		viewer.WithLogger(logger),
		viewer.WithMetrics(deps.Metrics),
		viewer.WithPollTimeout(cfg.PollTimeout),
	)

	logger.Info("viewer_started", zap.String("feed", cfg.FeedURL), zap.Int("width", w), zap.Int("height", h))
	if err := ctl.Run(ctx); err != nil {
		logger.Error("viewer_failed", zap.Error(err))
		fatal = err
		return 1
	}
	logger.Info("viewer_stopped")
	return 0
}
