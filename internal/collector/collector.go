package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
	"github.com/20yuto20/slack-news-aggregator/internal/scraper"
)

// DefaultWorkers bounds concurrent scraping tasks.
const DefaultWorkers = 4

// Extractor pulls articles from one listing page.
type Extractor interface {
	GetNews(ctx context.Context, pageURL string) []scraper.Article
}

// ArticleSaver is the dedup write path for extracted articles.
type ArticleSaver interface {
	SaveNewArticles(ctx context.Context, articles []scraper.Article, companyID, companyName string) ([]models.Article, error)
}

// Notifier delivers run outcomes to the chat channel.
type Notifier interface {
	NotifyNewArticles(ctx context.Context, companyName string, articles []models.Article) error
	NotifyRunSummary(ctx context.Context, summary *Summary) error
	NotifyCriticalError(ctx context.Context, message string, err error) error
}

// ResultSink persists per-task outcome rows.
type ResultSink interface {
	Save(ctx context.Context, r *models.ScrapingResult) error
}

// Summary aggregates one full collection run.
type Summary struct {
	StartedAt   time.Time
	Duration    time.Duration
	TotalTasks  int
	Succeeded   int
	Failed      int
	NewArticles int
	Results     []models.ScrapingResult
}

// Collector runs the whole pipeline: roster, scrape fan-out, dedup save,
// notification.
type Collector struct {
	LoadRoster  func() ([]config.Company, error)
	Saver       ArticleSaver
	Notifier    Notifier
	Results     ResultSink
	PRTimes     Extractor
	NewHomepage func(c config.Company) Extractor
	Workers     int
}

// task is one company/source scraping unit.
type task struct {
	company   config.Company
	source    string
	pageURL   string
	extractor Extractor
}

// Run executes one collection run and returns its summary. Individual task
// failures are recorded in the summary; only a roster failure aborts the run.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()

	companies, err := c.LoadRoster()
	if err != nil {
		c.notifyCritical(ctx, "会社リストの読み込みに失敗しました", err)
		return nil, fmt.Errorf("collector: load roster: %w", err)
	}

	var tasks []task
	for _, company := range companies {
		if company.PRTimes.IsEnabled() {
			tasks = append(tasks, task{
				company:   company,
				source:    scraper.SourcePRTimes,
				pageURL:   company.PRTimes.URL,
				extractor: c.PRTimes,
			})
		}
		if company.HPNews.IsEnabled() {
			tasks = append(tasks, task{
				company:   company,
				source:    scraper.SourceHP,
				pageURL:   company.HPNews.URL,
				extractor: c.NewHomepage(company),
			})
		}
	}

	slog.Info("collection run started", "companies", len(companies), "tasks", len(tasks))

	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, workers)
		results = make([]models.ScrapingResult, 0, len(tasks))
		saved   int
	)
	for _, t := range tasks {
		t := t
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			result, newArticles := c.runTask(ctx, t)

			mu.Lock()
			results = append(results, result)
			saved += newArticles
			mu.Unlock()
		}()
	}
	wg.Wait()

	summary := &Summary{
		StartedAt:   started,
		Duration:    time.Since(started),
		TotalTasks:  len(tasks),
		NewArticles: saved,
		Results:     results,
	}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	c.persistResults(ctx, results)

	if c.Notifier != nil {
		if err := c.Notifier.NotifyRunSummary(ctx, summary); err != nil {
			slog.Error("run summary notification failed", "err", err)
		}
	}

	slog.Info("collection run finished",
		"tasks", summary.TotalTasks,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"new_articles", summary.NewArticles,
		"duration", summary.Duration)
	return summary, nil
}

// runTask scrapes one company/source and saves what it found. A panicking
// scraper is contained here so one broken site never takes down the run.
func (c *Collector) runTask(ctx context.Context, t task) (result models.ScrapingResult, newArticles int) {
	started := time.Now()
	result = models.ScrapingResult{
		CompanyID: t.company.ID,
		Source:    t.source,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("scraping task panicked",
				"company", t.company.ID, "source", t.source, "panic", r)
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("panic: %v", r)
		}
		result.ExecutionTime = time.Since(started).Seconds()
	}()

	articles := t.extractor.GetNews(ctx, t.pageURL)
	result.ArticlesCount = len(articles)

	saved, err := c.Saver.SaveNewArticles(ctx, articles, t.company.ID, t.company.Name)
	if err != nil {
		slog.Error("saving articles failed",
			"company", t.company.ID, "source", t.source, "err", err)
		result.ErrorMessage = err.Error()
		return result, 0
	}
	result.Success = true

	if len(saved) > 0 && c.Notifier != nil {
		if err := c.Notifier.NotifyNewArticles(ctx, t.company.Name, saved); err != nil {
			slog.Error("new-article notification failed",
				"company", t.company.ID, "err", err)
		}
	}

	return result, len(saved)
}

func (c *Collector) persistResults(ctx context.Context, results []models.ScrapingResult) {
	if c.Results == nil {
		return
	}
	for i := range results {
		if err := c.Results.Save(ctx, &results[i]); err != nil {
			slog.Error("persisting scraping result failed",
				"company", results[i].CompanyID, "err", err)
		}
	}
}

func (c *Collector) notifyCritical(ctx context.Context, message string, err error) {
	if c.Notifier == nil {
		return
	}
	if nerr := c.Notifier.NotifyCriticalError(ctx, message, err); nerr != nil {
		slog.Error("critical-error notification failed", "err", nerr)
	}
}
