package browser

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/types"
	"mapleads-engine/internal/scrape/util"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// feedSelector is the scrollable results panel on the maps search page.
const feedSelector = `div[role="feed"]`

type Options struct {
	Headless      bool
	NavTimeout    time.Duration
	ScrollSettle  time.Duration
	ScrollTimeout time.Duration
	Limiter       *util.HostLimiter
}

func (o Options) withDefaults() Options {
	if o.NavTimeout <= 0 {
		o.NavTimeout = 30 * time.Second
	}
	if o.ScrollSettle <= 0 {
		o.ScrollSettle = 1500 * time.Millisecond
	}
	if o.ScrollTimeout <= 0 {
		o.ScrollTimeout = 60 * time.Second
	}
	return o
}

// Session owns one browser process. Each Search/Fetch opens its own tab, so
// a Session is safe for the pipeline's bounded worker fan-out.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	opts        Options
}

// NewSession launches the browser. Failure here is a setup error: the whole
// run can't proceed without a working browser.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(1280, 920),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	// Probe tab: forces the browser to actually start.
	probeCtx, probeCancel := chromedp.NewContext(allocCtx)
	defer probeCancel()
	if err := chromedp.Run(probeCtx); err != nil {
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Session{allocCtx: allocCtx, allocCancel: allocCancel, opts: opts}, nil
}

func (s *Session) Close() {
	s.allocCancel()
}

func (s *Session) Name() string { return "browser" }

// Search renders the maps search feed for the region, scrolls it until the
// content extent settles (two consecutive non-growing measurements), a hard
// timeout elapses, or enough cards are loaded, then parses the markup.
// Scroll timeout is recoverable: whatever loaded is returned.
func (s *Session) Search(ctx context.Context, region domain.Region, maxResults int) ([]domain.RawListing, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.WaitHost(ctx, "www.google.com"); err != nil {
			return nil, err
		}
	}

	tabCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()

	// Region processing must still observe the caller's cancellation.
	stop := propagateCancel(ctx, cancel)
	defer stop()

	searchURL := searchBaseURL + url.PathEscape(region.SearchText()) + "?hl=en"

	navCtx, navCancel := context.WithTimeout(tabCtx, s.opts.NavTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible(feedSelector, chromedp.ByQuery),
	)
	if err != nil {
		// No results panel at all: either a consent/captcha wall or a layout
		// change. Treat as denied so the pipeline retries then skips.
		return nil, fmt.Errorf("maps feed not found for %q: %w (%v)", region.SearchText(), types.ErrSourceDenied, err)
	}

	s.scrollFeed(tabCtx, region, maxResults)

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read feed markup: %w", err)
	}

	listings, err := ParseFeed(html, maxResults)
	if err != nil {
		return nil, fmt.Errorf("parse feed for %q: %w", region.SearchText(), err)
	}
	return listings, nil
}

// scrollFeed runs the settle-detection loop. Errors are logged, never
// returned: partial feed content is still worth parsing.
func (s *Session) scrollFeed(tabCtx context.Context, region domain.Region, maxResults int) {
	deadline := time.Now().Add(s.opts.ScrollTimeout)
	lastExtent := -1
	stable := 0

	for {
		if time.Now().After(deadline) {
			log.Printf("[browser] scroll timeout region=%q, keeping partial feed", region.Name)
			return
		}

		var extent int
		err := chromedp.Run(tabCtx, chromedp.Evaluate(
			`(() => {
				const f = document.querySelector('div[role="feed"]');
				if (!f) return 0;
				f.scrollBy(0, f.scrollHeight);
				return f.scrollHeight;
			})()`, &extent))
		if err != nil {
			log.Printf("[browser] scroll failed region=%q err=%v", region.Name, err)
			return
		}

		if maxResults > 0 {
			var cards int
			_ = chromedp.Run(tabCtx, chromedp.Evaluate(
				`document.querySelectorAll('div[role="feed"] a[href*="/maps/place/"]').length`, &cards))
			if cards >= maxResults {
				return
			}
		}

		if err := sleepCtx(tabCtx, s.opts.ScrollSettle); err != nil {
			return
		}

		if extent == lastExtent {
			stable++
			if stable >= 2 {
				return
			}
		} else {
			stable = 0
		}
		lastExtent = extent
	}
}

// fetchRendered loads an arbitrary URL in a fresh tab and returns its
// rendered markup. Shared by the details fetcher and the email fetcher.
func (s *Session) fetchRendered(ctx context.Context, pageURL string) (string, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.WaitURL(ctx, pageURL); err != nil {
			return "", err
		}
	}

	tabCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	navCtx, navCancel := context.WithTimeout(tabCtx, s.opts.NavTimeout)
	defer navCancel()

	var html string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// PageFetcher adapts the session to the email extractor's fetch contract.
type PageFetcher struct {
	Session *Session
}

func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	return f.Session.fetchRendered(ctx, pageURL)
}

// propagateCancel ties a tab's lifetime to the caller's context. chromedp
// tabs descend from the allocator context, not the per-region one, so cancel
// has to be forwarded by hand.
func propagateCancel(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ types.Source = (*Session)(nil)
