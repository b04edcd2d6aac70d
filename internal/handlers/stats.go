package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/20yuto20/slack-news-aggregator/internal/models"
)

// ArticleCounter is the slice of the article store the stats endpoint reads.
type ArticleCounter interface {
	TotalCount(ctx context.Context) (int, error)
	CountByCompany(ctx context.Context) (map[string]int, error)
	CountBySource(ctx context.Context) (map[string]int, error)
	Latest(ctx context.Context, limit int) ([]models.Article, error)
}

// StatsHandler serves aggregate article counts.
type StatsHandler struct {
	articles ArticleCounter
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(articles ArticleCounter) *StatsHandler {
	return &StatsHandler{articles: articles}
}

// Get handles GET /stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.articles.TotalCount(ctx)
	if err != nil {
		slog.Error("stats total count", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	byCompany, err := h.articles.CountByCompany(ctx)
	if err != nil {
		slog.Error("stats count by company", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	bySource, err := h.articles.CountBySource(ctx)
	if err != nil {
		slog.Error("stats count by source", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	latest, err := h.articles.Latest(ctx, 10)
	if err != nil {
		slog.Error("stats latest articles", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_articles":  total,
		"by_company":      byCompany,
		"by_source":       bySource,
		"latest_articles": latest,
	})
}
