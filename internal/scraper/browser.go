package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Defaults for the scripted browser fetch.
const (
	DefaultMaxLoadMoreClicks = 10
	DefaultControlWait       = 5 * time.Second
	DefaultClickWait         = 2 * time.Second
	DefaultBrowserTimeout    = 2 * time.Minute

	// prtimesLoadMoreSelector finds the「もっと見る」pagination control.
	prtimesLoadMoreSelector = `button[class*="more"]`
)

// errControlGone signals that the load-more control is absent, i.e. the
// page is fully loaded.
var errControlGone = errors.New("load-more control not found")

// pager abstracts the page interactions of the load-more loop so the
// bounded click protocol can be exercised without a browser.
type pager interface {
	// WaitControl waits for the load-more control to be visible. It
	// returns errControlGone once the control no longer appears.
	WaitControl(ctx context.Context) error
	// Click triggers the control.
	Click(ctx context.Context) error
	// WaitLoad waits for the newly requested content to mount.
	WaitLoad(ctx context.Context) error
	// HTML captures the current full page markup.
	HTML(ctx context.Context) (string, error)
}

// expandAll drives the load-more loop: wait for the control, click it,
// wait for content, repeat. maxClicks bounds the loop so a misbehaving
// page cannot spin forever. Any failure exits the loop; whatever the page
// holds at that point is still captured and returned.
func expandAll(ctx context.Context, p pager, maxClicks int) (string, error) {
	if maxClicks <= 0 {
		maxClicks = DefaultMaxLoadMoreClicks
	}

	for i := 0; i < maxClicks; i++ {
		if err := p.WaitControl(ctx); err != nil {
			if !errors.Is(err, errControlGone) {
				slog.Debug("browser: wait for load-more control", "err", err)
			}
			break
		}
		if err := p.Click(ctx); err != nil {
			slog.Error("browser: load-more click failed", "click", i+1, "err", err)
			break
		}
		if err := p.WaitLoad(ctx); err != nil {
			slog.Debug("browser: wait after click", "err", err)
			break
		}
	}

	return p.HTML(ctx)
}

// BrowserFetcher retrieves pages that require script execution: it drives
// a headless Chrome session, expands dynamic pagination via the load-more
// loop, and returns the fully loaded document. One fetch spins up one
// dedicated browser process.
type BrowserFetcher struct {
	UserAgent        string
	LoadMoreSelector string
	MaxClicks        int
	ControlWait      time.Duration
	ClickWait        time.Duration
	Timeout          time.Duration

	// Headful runs a visible browser for local debugging.
	Headful bool
}

// NewBrowserFetcher returns a fetcher tuned for the PR Times listing pages.
func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{
		UserAgent:        defaultUserAgent,
		LoadMoreSelector: prtimesLoadMoreSelector,
		MaxClicks:        DefaultMaxLoadMoreClicks,
		ControlWait:      DefaultControlWait,
		ClickWait:        DefaultClickWait,
		Timeout:          DefaultBrowserTimeout,
	}
}

// Fetch navigates to pageURL, clicks the load-more control until it stops
// appearing (or the click budget runs out), and returns the accumulated
// page. On unrecoverable errors it logs and returns whatever was loaded so
// far, possibly nil, rather than propagating.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, []byte) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.UserAgent),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		slog.Error("browser: navigation failed", "url", pageURL, "err", err)
		return nil, nil
	}

	p := &chromePager{
		selector:    f.LoadMoreSelector,
		controlWait: f.ControlWait,
		clickWait:   f.ClickWait,
	}
	html, err := expandAll(browserCtx, p, f.MaxClicks)
	if err != nil {
		slog.Error("browser: page capture failed", "url", pageURL, "err", err)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Error("browser: parse failed", "url", pageURL, "err", err)
		return nil, nil
	}
	return doc, []byte(html)
}

// chromePager implements pager against a live chromedp session.
type chromePager struct {
	selector    string
	controlWait time.Duration
	clickWait   time.Duration
}

func (p *chromePager) WaitControl(ctx context.Context) error {
	wait := p.controlWait
	if wait <= 0 {
		wait = DefaultControlWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	err := chromedp.Run(waitCtx, chromedp.WaitVisible(p.selector, chromedp.ByQuery))
	if err != nil {
		// A timeout here means the control never showed up: the page is
		// fully loaded. The parent context expiring is a real abort.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errControlGone
	}
	return nil
}

func (p *chromePager) Click(ctx context.Context) error {
	err := chromedp.Run(ctx,
		chromedp.ScrollIntoView(p.selector, chromedp.ByQuery),
		chromedp.Click(p.selector, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Overlays sometimes intercept the direct click; scroll once more and
	// click from script instead.
	js := fmt.Sprintf(`document.querySelector(%q).click()`, p.selector)
	if err := chromedp.Run(ctx,
		chromedp.ScrollIntoView(p.selector, chromedp.ByQuery),
		chromedp.Evaluate(js, nil),
	); err != nil {
		return fmt.Errorf("browser: fallback click: %w", err)
	}
	return nil
}

func (p *chromePager) WaitLoad(ctx context.Context) error {
	wait := p.clickWait
	if wait <= 0 {
		wait = DefaultClickWait
	}
	return chromedp.Run(ctx, chromedp.Sleep(wait))
}

func (p *chromePager) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: capture html: %w", err)
	}
	return html, nil
}
