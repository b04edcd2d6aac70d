package collector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
	"github.com/20yuto20/slack-news-aggregator/internal/scraper"
)

type fakeExtractor struct {
	articles []scraper.Article
	panics   bool
}

func (f *fakeExtractor) GetNews(context.Context, string) []scraper.Article {
	if f.panics {
		panic("selector went sideways")
	}
	return f.articles
}

type fakeSaver struct {
	mu  sync.Mutex
	err error
}

func (f *fakeSaver) SaveNewArticles(_ context.Context, articles []scraper.Article, companyID, companyName string) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(articles) == 0 {
		return nil, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	saved := make([]models.Article, len(articles))
	for i, a := range articles {
		saved[i] = models.Article{CompanyID: companyID, CompanyName: companyName, Title: a.Title, URL: a.URL}
	}
	return saved, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	articles  []models.Article
	summaries int
	criticals int
}

func (f *fakeNotifier) NotifyNewArticles(_ context.Context, _ string, articles []models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles = append(f.articles, articles...)
	return nil
}

func (f *fakeNotifier) NotifyRunSummary(context.Context, *Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return nil
}

func (f *fakeNotifier) NotifyCriticalError(context.Context, string, error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criticals++
	return nil
}

type fakeResultSink struct {
	mu      sync.Mutex
	results []models.ScrapingResult
}

func (f *fakeResultSink) Save(_ context.Context, r *models.ScrapingResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *r)
	return nil
}

func boolPtr(b bool) *bool { return &b }

func roster() []config.Company {
	return []config.Company{
		{
			ID:      "alpha",
			Name:    "株式会社アルファ",
			PRTimes: config.SourceConfig{URL: "https://prtimes.jp/a"},
			HPNews: config.HPNewsConfig{
				SourceConfig: config.SourceConfig{URL: "https://alpha.example/news"},
			},
		},
		{
			ID:      "beta",
			Name:    "株式会社ベータ",
			PRTimes: config.SourceConfig{Enabled: boolPtr(false), URL: "https://prtimes.jp/b"},
			HPNews: config.HPNewsConfig{
				SourceConfig: config.SourceConfig{URL: "https://beta.example/news"},
			},
		},
	}
}

func TestCollectorRun(t *testing.T) {
	notifier := &fakeNotifier{}
	sink := &fakeResultSink{}
	c := &Collector{
		LoadRoster: func() ([]config.Company, error) { return roster(), nil },
		Saver:      &fakeSaver{},
		Notifier:   notifier,
		Results:    sink,
		PRTimes: &fakeExtractor{articles: []scraper.Article{
			{Title: "リリースA", URL: "https://prtimes.jp/a/1", Source: scraper.SourcePRTimes},
		}},
		NewHomepage: func(config.Company) Extractor {
			return &fakeExtractor{articles: []scraper.Article{
				{Title: "お知らせ", URL: "https://alpha.example/news/1", Source: scraper.SourceHP},
			}}
		},
	}

	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	// alpha prtimes + alpha hp + beta hp; beta prtimes is disabled.
	assert.Equal(t, 3, summary.TotalTasks)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 3, summary.NewArticles)
	assert.Len(t, notifier.articles, 3)
	assert.Equal(t, 1, notifier.summaries)
	assert.Len(t, sink.results, 3)
}

func TestCollectorRunIsolatesPanic(t *testing.T) {
	notifier := &fakeNotifier{}
	c := &Collector{
		LoadRoster: func() ([]config.Company, error) { return roster(), nil },
		Saver:      &fakeSaver{},
		Notifier:   notifier,
		PRTimes:    &fakeExtractor{panics: true},
		NewHomepage: func(config.Company) Extractor {
			return &fakeExtractor{articles: []scraper.Article{
				{Title: "無事", URL: "https://ok.example/1"},
			}}
		},
	}

	summary, err := c.Run(context.Background())
	require.NoError(t, err, "a panicking task never aborts the run")

	assert.Equal(t, 3, summary.TotalTasks)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.NewArticles)

	var failed *models.ScrapingResult
	for i := range summary.Results {
		if !summary.Results[i].Success {
			failed = &summary.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.ErrorMessage, "panic")
}

func TestCollectorRunSaveFailure(t *testing.T) {
	c := &Collector{
		LoadRoster: func() ([]config.Company, error) { return roster()[:1], nil },
		Saver:      &fakeSaver{err: errors.New("db down")},
		PRTimes:    &fakeExtractor{articles: []scraper.Article{{Title: "x", URL: "https://prtimes.jp/a/1"}}},
		NewHomepage: func(config.Company) Extractor {
			return &fakeExtractor{}
		},
	}

	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, 1, summary.Failed, "failed save marks the task failed")
	assert.Equal(t, 1, summary.Succeeded, "empty extraction still succeeds")
	assert.Zero(t, summary.NewArticles)
}

func TestCollectorRunRosterFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	c := &Collector{
		LoadRoster: func() ([]config.Company, error) { return nil, errors.New("yaml broken") },
		Saver:      &fakeSaver{},
		Notifier:   notifier,
	}

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, notifier.criticals)
}
