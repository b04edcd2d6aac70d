package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/20yuto20/slack-news-aggregator/internal/storage"
)

// PRTimesBaseURL is the site root article permalinks resolve against.
const PRTimesBaseURL = "https://prtimes.jp"

// prtimesMarkers is the versioned selector table for the PR Times listing
// markup. The site's build pipeline appends volatile suffixes to class
// names, so every entry is a class-name prefix matched with
// findByClassPrefix rather than an exact string. Markup drift only
// requires updating this table.
var prtimesMarkers = struct {
	itemTag    string
	itemClass  string
	titleClass string
	summary    string
	imageClass string
	company    string
}{
	itemTag:    "article",
	itemClass:  "list-article",
	titleClass: "list-article_title",
	summary:    "list-article__summary",
	imageClass: "list-article_image",
	company:    "list-article_company",
}

// PageFetcher retrieves a page as a parsed document plus its raw HTML.
// Both the static and the scripted fetcher satisfy it.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, []byte)
}

// PRTimesScraper extracts press releases from a company's PR Times listing
// page. The listing loads additional entries dynamically, so it is fetched
// through the scripted browser fetcher.
type PRTimesScraper struct {
	BaseURL   string
	Fetcher   PageFetcher
	Snapshots *storage.Snapshots
}

// NewPRTimesScraper wires the scraper to its fetcher. snapshots may be nil.
func NewPRTimesScraper(fetcher PageFetcher, snapshots *storage.Snapshots) *PRTimesScraper {
	return &PRTimesScraper{
		BaseURL:   PRTimesBaseURL,
		Fetcher:   fetcher,
		Snapshots: snapshots,
	}
}

// GetNews returns every press release found on the listing page. It never
// fails loudly: a fetch failure yields an empty slice and individual
// articles that don't parse are skipped.
func (s *PRTimesScraper) GetNews(ctx context.Context, pageURL string) []Article {
	doc, raw := s.Fetcher.Fetch(ctx, pageURL)
	if doc == nil {
		return nil
	}

	if err := s.Snapshots.StorePage(ctx, SourcePRTimes, pageURL, raw); err != nil {
		slog.Warn("prtimes: snapshot failed", "url", pageURL, "err", err)
	}

	var articles []Article
	items := findByClassPrefix(doc.Selection, prtimesMarkers.itemTag, prtimesMarkers.itemClass)
	items.Each(func(_ int, item *goquery.Selection) {
		a, ok := s.parseItem(item)
		if !ok {
			slog.Debug("prtimes: item skipped", "url", pageURL)
			return
		}
		articles = append(articles, a)
	})

	slog.Info("prtimes: extracted articles", "url", pageURL, "count", len(articles))
	return articles
}

// parseItem extracts one listing entry. Title, permalink and timestamp are
// mandatory; an item missing any of them is dropped.
func (s *PRTimesScraper) parseItem(item *goquery.Selection) (Article, bool) {
	titleEl := findByClassPrefix(item, "h2", prtimesMarkers.titleClass).First()
	link := titleEl.Find("a").First()
	if link.Length() == 0 {
		return Article{}, false
	}

	title := CleanText(link.Text(), 0)
	href, _ := link.Attr("href")
	if title == "" || href == "" {
		return Article{}, false
	}

	base := s.BaseURL
	if base == "" {
		base = PRTimesBaseURL
	}
	articleURL := NormalizeURL(href, base)

	timeEl := item.Find("time").First()
	if timeEl.Length() == 0 {
		return Article{}, false
	}
	var published *time.Time
	if dt := timeEl.AttrOr("datetime", ""); dt != "" {
		if ts, err := time.Parse(time.RFC3339, dt); err == nil {
			published = &ts
		} else {
			published = ExtractDate(dt)
		}
	}
	if published == nil {
		published = ExtractDate(timeEl.Text())
	}
	if published == nil {
		return Article{}, false
	}

	a := Article{
		Title:       title,
		URL:         articleURL,
		PublishedAt: published,
		Source:      SourcePRTimes,
	}

	if img := findByClassPrefix(item, "img", prtimesMarkers.imageClass).First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok {
			a.ImageURL = NormalizeURL(src, base)
		}
	}
	if sum := findByClassPrefix(item, "p", prtimesMarkers.summary).First(); sum.Length() > 0 {
		a.Content = CleanText(sum.Text(), 0)
	}

	if company := findByClassPrefix(item, "a", prtimesMarkers.company).First(); company.Length() > 0 {
		a.CompanyName = CleanText(company.Text(), 0)
	}
	if a.CompanyName == "" {
		a.CompanyName = ExtractCompanyName(item.Text())
	}

	return a, true
}

// findByClassPrefix returns the elements with the given tag that carry at
// least one class starting with prefix. This tolerates the hashed class
// suffixes styling tools generate ("list-article" matches
// "list-article--x7f3a").
func findByClassPrefix(s *goquery.Selection, tag, prefix string) *goquery.Selection {
	return s.Find(tag).FilterFunction(func(_ int, el *goquery.Selection) bool {
		cls, ok := el.Attr("class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(cls) {
			if strings.HasPrefix(c, prefix) {
				return true
			}
		}
		return false
	})
}
