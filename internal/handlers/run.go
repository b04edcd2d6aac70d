package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
)

// CollectionRunner triggers a full collection run.
type CollectionRunner interface {
	Run(ctx context.Context) (*collector.Summary, error)
}

// RunHandler triggers collection runs over HTTP.
type RunHandler struct {
	runner CollectionRunner
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(runner CollectionRunner) *RunHandler {
	return &RunHandler{runner: runner}
}

// Trigger handles POST /run. The run executes synchronously; task-level
// failures are reported in the summary, only a run-level failure is a 500.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		slog.Error("triggered run failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "run failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"completed_at": time.Now().UTC().Format(time.RFC3339),
		"total_tasks":  summary.TotalTasks,
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"new_articles": summary.NewArticles,
		"duration_sec": summary.Duration.Seconds(),
	})
}
