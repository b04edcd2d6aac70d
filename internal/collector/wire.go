package collector

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
	"github.com/20yuto20/slack-news-aggregator/internal/scraper"
	"github.com/20yuto20/slack-news-aggregator/internal/storage"
)

// Build wires a ready-to-run collector from the application configuration.
// notifier may be nil when Slack is not configured.
func Build(cfg config.Config, pool *pgxpool.Pool, snapshots *storage.Snapshots, notifier Notifier) *Collector {
	static := scraper.NewStaticFetcher()
	if cfg.Scraper.Timeout > 0 {
		static.Timeout = cfg.Scraper.Timeout
	}
	if cfg.Scraper.Retries > 0 {
		static.Retries = cfg.Scraper.Retries
	}

	browser := scraper.NewBrowserFetcher()
	if cfg.Scraper.MaxLoadMoreClicks > 0 {
		browser.MaxClicks = cfg.Scraper.MaxLoadMoreClicks
	}
	browser.Headful = !cfg.Scraper.Headless

	return &Collector{
		LoadRoster: func() ([]config.Company, error) {
			return config.LoadCompanies(cfg.CompaniesFile)
		},
		Saver:    NewGateway(models.NewArticleStore(pool)),
		Notifier: notifier,
		Results:  models.NewScrapingResultStore(pool),
		PRTimes:  scraper.NewPRTimesScraper(browser, snapshots),
		NewHomepage: func(c config.Company) Extractor {
			return scraper.NewHPScraper(c.ID, hpSelectors(c.HPNews.Parser), static, snapshots)
		},
		Workers: cfg.Scraper.Workers,
	}
}

func hpSelectors(p config.ParserConfig) scraper.HPSelectors {
	return scraper.HPSelectors{
		List:    p.List,
		Item:    p.Item,
		Title:   p.Title,
		Date:    p.Date,
		Content: p.Content,
		Image:   p.Image,
	}
}
