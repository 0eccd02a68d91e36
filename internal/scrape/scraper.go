// Package scrape renders job posting pages in a headless browser and
// extracts the structured content the rest of the pipeline works from.
// Job boards are almost universally JavaScript-rendered, so a plain HTTP
// fetch would see an empty shell; every page goes through Chrome.
package scrape

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// DefaultTimeout bounds a single page render.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent mimics a desktop browser. Several job boards serve a
// captcha page to anything that identifies as a bot.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper fetches job postings with a headless browser.
type Scraper struct {
	Timeout time.Duration
	Verbose bool
}

// New returns a Scraper with default settings.
func New() *Scraper {
	return &Scraper{Timeout: DefaultTimeout}
}

// Scrape renders the page at url and extracts its job posting content.
// Extraction problems (missing title, restricted page) are reported through
// the returned JobData and error together: a partial JobData may accompany
// a non-nil error so the caller can persist what was found.
func (s *Scraper) Scrape(ctx context.Context, url string) (*types.JobData, error) {
	html, err := s.render(ctx, url)
	if err != nil {
		return nil, &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	if s.Verbose {
		log.Printf("[SCRAPE] Rendered %s: %d bytes", url, len(html))
	}

	return Extract(url, html)
}

// render loads the page in headless Chrome and returns the rendered HTML.
func (s *Scraper) render(ctx context.Context, url string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering time to fill the page in.
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Dismiss cookie banners; ignore when absent.
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Some boards truncate the description behind a show-more button.
			_ = chromedp.Click(`button[class*="show-more"], button[class*="read-more"], button[aria-label*="more"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
