package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hpNewsHTML = `
<html><body>
<header><nav><a href="/">ホーム</a></nav></header>
<ul class="news-list">
  <li class="news-item">
    <span class="news-date">2024/12/19</span>
    <a class="news-title" href="/news/2024/new-office">新オフィス開設のお知らせ</a>
    <p class="news-content">2025年1月より新オフィスにて営業を開始します。</p>
  </li>
  <li class="news-item">
    <a class="news-title" href="/news/2024/no-date">日付のないお知らせ</a>
  </li>
</ul>
</body></html>`

func TestHPGetNews(t *testing.T) {
	s := NewHPScraper("sample-co", HPSelectors{}, &fakeFetcher{html: hpNewsHTML}, nil)

	articles := s.GetNews(context.Background(), "https://example.co.jp/news")
	require.Len(t, articles, 1, "item without a date is dropped")

	a := articles[0]
	assert.Equal(t, "新オフィス開設のお知らせ", a.Title)
	assert.Equal(t, "https://example.co.jp/news/2024/new-office", a.URL)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, 2024, a.PublishedAt.Year())
	assert.Equal(t, 12, int(a.PublishedAt.Month()))
	assert.Equal(t, 19, a.PublishedAt.Day())
	assert.Equal(t, "2025年1月より新オフィスにて営業を開始します。", a.Content)
	assert.Equal(t, SourceHP, a.Source)
}

func TestHPGetNewsConfiguredSelectors(t *testing.T) {
	// A site with bespoke markup reachable only through configured selectors.
	html := `
<div class="press-wrap">
  <div class="press-entry">
    <em class="when">2024年3月1日</em>
    <strong class="what"><a href="https://example.jp/press/1">提携のお知らせ</a></strong>
  </div>
</div>`
	sel := HPSelectors{
		List:  "div.press-wrap",
		Item:  "div.press-entry",
		Title: ".what",
		Date:  ".when",
	}
	s := NewHPScraper("bespoke-co", sel, &fakeFetcher{html: html}, nil)

	articles := s.GetNews(context.Background(), "https://example.jp/press")
	require.Len(t, articles, 1)
	assert.Equal(t, "提携のお知らせ", articles[0].Title)
	assert.Equal(t, "https://example.jp/press/1", articles[0].URL)
	require.NotNil(t, articles[0].PublishedAt)
	assert.Equal(t, 3, int(articles[0].PublishedAt.Month()))
}

func TestHPGetNewsHeuristicFallback(t *testing.T) {
	// No recognised list class at all: class regex picks up the wrapper,
	// generic element chains find the fields.
	html := `
<section class="company-news-area">
  <article>
    <h3>決算発表</h3>
    <time datetime="2024-05-10">2024-5-10</time>
    <a href="/ir/2024-q1">詳細</a>
  </article>
</section>`
	s := NewHPScraper("fallback-co", HPSelectors{}, &fakeFetcher{html: html}, nil)

	articles := s.GetNews(context.Background(), "https://example.com/ir")
	require.Len(t, articles, 1)
	assert.Equal(t, "決算発表", articles[0].Title)
	assert.Equal(t, "https://example.com/ir/2024-q1", articles[0].URL)
	require.NotNil(t, articles[0].PublishedAt)
	assert.Equal(t, 10, articles[0].PublishedAt.Day())
}

func TestHPGetNewsNoList(t *testing.T) {
	s := NewHPScraper("empty-co", HPSelectors{}, &fakeFetcher{html: "<html><body><p>under construction</p></body></html>"}, nil)

	articles := s.GetNews(context.Background(), "https://example.com/")
	assert.Empty(t, articles)
}

func TestHPGetNewsFetchFailure(t *testing.T) {
	s := NewHPScraper("down-co", HPSelectors{}, &fakeFetcher{}, nil)

	articles := s.GetNews(context.Background(), "https://example.com/news")
	assert.Empty(t, articles)
}
