package collector

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/scraper"
)

// fixtureFetcher serves one fixed page to the real extractor.
type fixtureFetcher struct {
	html string
}

func (f *fixtureFetcher) Fetch(context.Context, string) (*goquery.Document, []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(f.html)))
	if err != nil {
		return nil, nil
	}
	return doc, []byte(f.html)
}

// One well-formed item and one missing its date element.
const pipelineFixture = `
<ul class="news-list">
  <li class="news-item">
    <span class="news-date">2024/12/19</span>
    <a class="news-title" href="/news/1">新製品のお知らせ</a>
  </li>
  <li class="news-item">
    <a class="news-title" href="/news/2">日付なし</a>
  </li>
</ul>`

func TestPipelineExtractSaveSummarize(t *testing.T) {
	db := &fakeArticleDB{}
	notifier := &fakeNotifier{}
	fetcher := &fixtureFetcher{html: pipelineFixture}

	c := &Collector{
		LoadRoster: func() ([]config.Company, error) {
			return []config.Company{{
				ID:   "sample-co",
				Name: "株式会社サンプル",
				HPNews: config.HPNewsConfig{
					SourceConfig: config.SourceConfig{URL: "https://example.co.jp/news"},
				},
			}}, nil
		},
		Saver:    NewGateway(db),
		Notifier: notifier,
		NewHomepage: func(company config.Company) Extractor {
			return scraper.NewHPScraper(company.ID, scraper.HPSelectors{}, fetcher, nil)
		},
	}

	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	r := summary.Results[0]
	assert.True(t, r.Success)
	assert.Equal(t, 1, r.ArticlesCount, "date-missing item dropped before the gateway")

	require.Len(t, db.inserted, 1)
	assert.Equal(t, "新製品のお知らせ", db.inserted[0].Title)
	assert.Equal(t, "https://example.co.jp/news/1", db.inserted[0].URL)
	assert.Equal(t, 1, summary.NewArticles)
	assert.Len(t, notifier.articles, 1)

	// A second run over the same page writes nothing new.
	db.existing = map[string]bool{db.inserted[0].URL: true}
	summary, err = c.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.NewArticles)
	assert.Len(t, db.inserted, 1, "idempotent under re-runs")
}
