package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Defaults for the static fetcher.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchRetries = 3

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// StaticFetcher retrieves pages with a plain GET and returns them parsed.
// Each fetch gets its own Colly collector to avoid state leaking between
// requests; transport errors are retried up to Retries times and exhausted
// retries yield a nil document, never an error.
type StaticFetcher struct {
	UserAgent string
	Timeout   time.Duration
	Retries   int
}

// NewStaticFetcher returns a fetcher with a realistic browser user-agent
// and the default timeout/retry budget.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		UserAgent: defaultUserAgent,
		Timeout:   DefaultFetchTimeout,
		Retries:   DefaultFetchRetries,
	}
}

// Fetch GETs pageURL and returns the parsed document plus the raw HTML.
// Returns (nil, nil) after exhausting retries or when ctx is done.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, []byte) {
	retries := f.Retries
	if retries <= 0 {
		retries = DefaultFetchRetries
	}

	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return nil, nil
		}

		body, err := f.get(pageURL)
		if err != nil {
			slog.Error("fetch: request failed", "url", pageURL, "attempt", attempt, "err", err)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			slog.Error("fetch: parse failed", "url", pageURL, "err", err)
			return nil, nil
		}
		return doc, body
	}

	return nil, nil
}

// get performs a single GET via a fresh collector and returns the body.
func (f *StaticFetcher) get(pageURL string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.AllowURLRevisit(),
	)
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	})

	var (
		body   []byte
		reqErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	if reqErr != nil {
		return nil, reqErr
	}
	return body, nil
}
