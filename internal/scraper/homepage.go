package scraper

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/20yuto20/slack-news-aggregator/internal/storage"
)

// HPSelectors carries the per-company CSS selectors for a homepage news
// listing. Every field is optional; blanks fall back to the common
// selector chains below.
type HPSelectors struct {
	List    string
	Item    string
	Title   string
	Date    string
	Content string
	Image   string
}

// Fallback selector chains for homepages whose configuration is missing or
// stale. Evaluated in order; first hit wins.
var (
	hpListFallbacks    = []string{"ul.news-list", "div.news-list", "div.news", "div.news-contents"}
	hpItemFallbacks    = []string{"li.news-item", "article", "li"}
	hpTitleFallbacks   = []string{".news-title", ".article-title", ".title"}
	hpDateFallbacks    = []string{".news-date", ".article-date", ".date"}
	hpContentFallbacks = []string{".news-content", ".article-content", ".description"}

	reDateClass    = regexp.MustCompile(`date|time|published`)
	reContentClass = regexp.MustCompile(`content|description|text`)
	reNewsClass    = regexp.MustCompile(`news|article|post`)
)

// HPScraper extracts news entries from a company homepage using the
// company's configured selectors with heuristic fallbacks.
type HPScraper struct {
	CompanyID string
	Selectors HPSelectors
	Fetcher   PageFetcher
	Snapshots *storage.Snapshots
}

// NewHPScraper builds a homepage scraper for one company. snapshots may be
// nil.
func NewHPScraper(companyID string, selectors HPSelectors, fetcher PageFetcher, snapshots *storage.Snapshots) *HPScraper {
	return &HPScraper{
		CompanyID: companyID,
		Selectors: selectors,
		Fetcher:   fetcher,
		Snapshots: snapshots,
	}
}

// GetNews returns the articles found on the company's news page. Items
// missing a title or a parseable date are dropped: both are mandatory for
// article identity and ordering. Never fails loudly.
func (s *HPScraper) GetNews(ctx context.Context, pageURL string) []Article {
	doc, raw := s.Fetcher.Fetch(ctx, pageURL)
	if doc == nil {
		return nil
	}

	if err := s.Snapshots.StorePage(ctx, SourceHP, pageURL, raw); err != nil {
		slog.Warn("homepage: snapshot failed", "company", s.CompanyID, "err", err)
	}

	list := s.findList(doc)
	if list == nil {
		slog.Warn("homepage: no article list found", "company", s.CompanyID, "url", pageURL)
		return nil
	}

	var articles []Article
	s.findItems(list).Each(func(_ int, item *goquery.Selection) {
		a, ok := s.parseItem(item, pageURL)
		if !ok {
			slog.Debug("homepage: item skipped", "company", s.CompanyID)
			return
		}
		articles = append(articles, a)
	})

	slog.Info("homepage: extracted articles", "company", s.CompanyID, "url", pageURL, "count", len(articles))
	return articles
}

// findList locates the article-list wrapper: configured selector first,
// then the common chains, then any element that merely looks news-like.
func (s *HPScraper) findList(doc *goquery.Document) *goquery.Selection {
	chain := append([]string{s.Selectors.List}, hpListFallbacks...)
	for _, sel := range chain {
		if sel == "" {
			continue
		}
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}

	found := doc.Find("div, section, ul").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return reNewsClass.MatchString(el.AttrOr("class", ""))
	}).First()
	if found.Length() > 0 {
		return found
	}
	return nil
}

// findItems enumerates article items inside the wrapper.
func (s *HPScraper) findItems(list *goquery.Selection) *goquery.Selection {
	chain := append([]string{s.Selectors.Item}, hpItemFallbacks...)
	for _, sel := range chain {
		if sel == "" {
			continue
		}
		if items := list.Find(sel); items.Length() > 0 {
			return items
		}
	}
	return list.Children()
}

// parseItem extracts one entry.
func (s *HPScraper) parseItem(item *goquery.Selection, baseURL string) (Article, bool) {
	titleEl := s.findTitle(item)
	if titleEl == nil {
		return Article{}, false
	}
	title := CleanText(titleEl.Text(), 0)
	if title == "" {
		return Article{}, false
	}

	href := s.findLink(item, titleEl)
	if href == "" {
		return Article{}, false
	}
	articleURL := NormalizeURL(href, baseURL)
	if !IsValidArticleURL(articleURL) {
		return Article{}, false
	}

	dateEl := s.findDate(item)
	if dateEl == nil {
		return Article{}, false
	}
	published := ExtractDate(dateEl.Text())
	if published == nil {
		published = ExtractDate(dateEl.AttrOr("datetime", ""))
	}
	if published == nil {
		return Article{}, false
	}

	a := Article{
		Title:       title,
		URL:         articleURL,
		PublishedAt: published,
		Source:      SourceHP,
	}

	if contentEl := s.findContent(item); contentEl != nil {
		a.Content = CleanText(contentEl.Text(), 0)
	}

	imgSel := s.Selectors.Image
	if imgSel == "" {
		imgSel = "img"
	}
	if img := item.Find(imgSel).First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok && src != "" {
			a.ImageURL = NormalizeURL(src, baseURL)
		}
	}

	return a, true
}

func (s *HPScraper) findTitle(item *goquery.Selection) *goquery.Selection {
	chain := append([]string{s.Selectors.Title}, hpTitleFallbacks...)
	for _, sel := range chain {
		if sel == "" {
			continue
		}
		if el := item.Find(sel).First(); el.Length() > 0 {
			return el
		}
	}
	if el := item.Find("h1, h2, h3, h4").First(); el.Length() > 0 {
		return el
	}
	return nil
}

func (s *HPScraper) findDate(item *goquery.Selection) *goquery.Selection {
	chain := append([]string{s.Selectors.Date}, hpDateFallbacks...)
	for _, sel := range chain {
		if sel == "" {
			continue
		}
		if el := item.Find(sel).First(); el.Length() > 0 {
			return el
		}
	}

	el := item.Find("time, span, div").FilterFunction(func(_ int, e *goquery.Selection) bool {
		if goquery.NodeName(e) == "time" {
			return true
		}
		return reDateClass.MatchString(e.AttrOr("class", ""))
	}).First()
	if el.Length() > 0 {
		return el
	}
	return nil
}

func (s *HPScraper) findContent(item *goquery.Selection) *goquery.Selection {
	chain := append([]string{s.Selectors.Content}, hpContentFallbacks...)
	for _, sel := range chain {
		if sel == "" {
			continue
		}
		if el := item.Find(sel).First(); el.Length() > 0 {
			return el
		}
	}

	el := item.Find("p, div").FilterFunction(func(_ int, e *goquery.Selection) bool {
		return reContentClass.MatchString(e.AttrOr("class", ""))
	}).First()
	if el.Length() > 0 {
		return el
	}
	return nil
}

// findLink resolves the article permalink: a link inside the title element
// first, the title element itself if it is an anchor, then any anchor in
// the item.
func (s *HPScraper) findLink(item, titleEl *goquery.Selection) string {
	if a := titleEl.Find("a").First(); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			return href
		}
	}
	if goquery.NodeName(titleEl) == "a" {
		if href, ok := titleEl.Attr("href"); ok {
			return href
		}
	}
	if a := item.Find("a").First(); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			return href
		}
	}
	return ""
}
