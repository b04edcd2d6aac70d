// Command api starts the news aggregator HTTP API and Slack event receiver.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/db"
	"github.com/20yuto20/slack-news-aggregator/internal/handlers"
	"github.com/20yuto20/slack-news-aggregator/internal/middleware"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
	"github.com/20yuto20/slack-news-aggregator/internal/notify"
	"github.com/20yuto20/slack-news-aggregator/internal/slackbot"
	"github.com/20yuto20/slack-news-aggregator/internal/storage"
)

func main() {
	// Structured logging.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Database connection.
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	articleStore := models.NewArticleStore(pool)

	// Page snapshot storage (optional).
	snapshots, err := storage.NewSnapshots(ctx, cfg.S3)
	if err != nil {
		slog.Warn("page snapshots not available", "err", err)
		snapshots = nil
	}

	notifier := notify.NewSlackNotifier(cfg.Slack)
	runner := collector.Build(cfg, pool, snapshots, notifier)

	var bot *slackbot.Bot
	if cfg.Slack.BotToken != "" {
		bot = slackbot.New(cfg.Slack.BotToken, articleStore, runner)
	}

	// Handlers.
	healthHandler := handlers.NewHealthHandler(pool)
	statsHandler := handlers.NewStatsHandler(articleStore)
	runHandler := handlers.NewRunHandler(runner)

	// Router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Check)
	r.Get("/stats", statsHandler.Get)
	r.Get("/run", runHandler.Trigger)
	r.Post("/run", runHandler.Trigger)

	// Slack Events API. Signature verification runs before parsing; the
	// collection a "run" mention starts can outlive the request timeout,
	// so this group carries none.
	if bot != nil {
		eventsHandler := handlers.NewSlackEventsHandler(bot)
		r.Group(func(r chi.Router) {
			r.Use(middleware.VerifySlackSignature(cfg.Slack.SigningSecret))
			r.Post("/slack/events", eventsHandler.Receive)
		})
	} else {
		slog.Warn("Slack bot token not configured, event endpoint disabled")
	}

	// Start server.
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	slog.Info("server stopped")
}
