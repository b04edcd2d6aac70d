// Package collector runs the extraction pipeline: it fans scraping tasks
// out over a bounded worker pool, funnels every extracted article through a
// dedup gateway into Postgres, and reports outcomes to Slack.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/20yuto20/slack-news-aggregator/internal/models"
	"github.com/20yuto20/slack-news-aggregator/internal/scraper"
)

// maxFutureDrift is how far in the future a claimed publication time may be
// before it is treated as a parsing artifact and discarded.
const maxFutureDrift = 24 * time.Hour

// ArticleDB is the slice of the article store the gateway writes through.
type ArticleDB interface {
	ExistsByURL(ctx context.Context, rawURL string) (bool, error)
	InsertBatch(ctx context.Context, articles []*models.Article) error
}

// Gateway is the single write path for extracted articles. Everything the
// scrapers produce passes through SaveNewArticles, which drops invalid and
// already-stored entries before anything touches the database.
type Gateway struct {
	db ArticleDB
}

// NewGateway creates a gateway over the given store.
func NewGateway(db ArticleDB) *Gateway {
	return &Gateway{db: db}
}

// SaveNewArticles persists the articles not yet in the store and returns the
// inserted rows. Duplicates inside the batch and against the store are
// silently skipped; lookup and insert errors abort the whole batch.
func (g *Gateway) SaveNewArticles(ctx context.Context, articles []scraper.Article, companyID, companyName string) ([]models.Article, error) {
	seen := make(map[string]bool, len(articles))
	var fresh []*models.Article

	for _, a := range articles {
		if !scraper.IsValidArticleURL(a.URL) {
			slog.Debug("gateway: invalid article url", "company", companyID, "url", a.URL)
			continue
		}
		if seen[a.URL] {
			continue
		}
		seen[a.URL] = true

		exists, err := g.db.ExistsByURL(ctx, a.URL)
		if err != nil {
			return nil, fmt.Errorf("collector: dedup lookup: %w", err)
		}
		if exists {
			continue
		}

		published := a.PublishedAt
		if published != nil && time.Until(*published) > maxFutureDrift {
			slog.Warn("gateway: publication time in the future, dropping timestamp",
				"company", companyID, "url", a.URL, "published_at", *published)
			published = nil
		}

		name := a.CompanyName
		if name == "" {
			name = companyName
		}

		fresh = append(fresh, &models.Article{
			CompanyID:   companyID,
			CompanyName: name,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: published,
			Content:     a.Content,
			ImageURL:    a.ImageURL,
			Source:      a.Source,
		})
	}

	if len(fresh) == 0 {
		return nil, nil
	}

	if err := g.db.InsertBatch(ctx, fresh); err != nil {
		return nil, fmt.Errorf("collector: insert batch: %w", err)
	}

	saved := make([]models.Article, len(fresh))
	for i, a := range fresh {
		saved[i] = *a
	}

	slog.Info("gateway: saved new articles", "company", companyID, "count", len(saved))
	return saved, nil
}
