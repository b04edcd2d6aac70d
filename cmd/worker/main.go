// Command worker runs the scheduled collection pipeline: it scrapes every
// company's PR Times listing and homepage news section, stores new articles,
// and posts the results to Slack.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/db"
	"github.com/20yuto20/slack-news-aggregator/internal/notify"
	"github.com/20yuto20/slack-news-aggregator/internal/storage"
)

// collectionSchedule fires the daily run at 8:00 JST.
const collectionSchedule = "CRON_TZ=Asia/Tokyo 0 8 * * *"

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("worker: starting news aggregator worker")

	_ = godotenv.Load()
	cfg := config.Load()

	// Root context cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("worker: database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Snapshots are best-effort; a broken S3 config never stops collection.
	snapshots, err := storage.NewSnapshots(ctx, cfg.S3)
	if err != nil {
		slog.Warn("worker: page snapshots not available", "err", err)
		snapshots = nil
	}

	notifier := notify.NewSlackNotifier(cfg.Slack)
	runner := collector.Build(cfg, pool, snapshots, notifier)

	// Track in-flight runs for graceful shutdown.
	var wg sync.WaitGroup

	runOnce := func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, time.Hour)
		defer jobCancel()

		if _, err := runner.Run(jobCtx); err != nil {
			slog.Error("worker: collection run failed", "err", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(collectionSchedule, func() {
		slog.Info("cron: collection run triggered")
		runOnce()
	}); err != nil {
		slog.Error("worker: add collection cron", "err", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("worker: cron scheduler started", "schedule", collectionSchedule)

	// Run once on startup so a fresh deployment doesn't sit idle until the
	// next scheduled slot.
	wg.Add(1)
	go func() {
		defer wg.Done()

		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}

		slog.Info("worker: running initial collection on startup")
		runOnce()
	}()

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	slog.Info("worker: stopping cron scheduler")
	cronCtx := c.Stop()

	cancel()

	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight runs complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight runs")
	}

	pool.Close()
	slog.Info("worker: shutdown complete")
}
