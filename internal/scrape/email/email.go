package email

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mapleads-engine/internal/scrape/util"
)

var emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9][a-z0-9.\-]*\.[a-z]{2,}\b`)

// Substrings that mark an email-shaped match as a placeholder or junk
// (template samples, standards documents, asset filenames picked up by the regex).
var placeholderPatterns = []string{
	"example.com",
	"example.org",
	"example.net",
	"@example",
	"w3.org",
	"yourdomain",
	"youremail",
	"email@domain",
	"sentry.io",
	"wixpress.com",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".webp",
	".svg",
}

// PageFetcher retrieves the markup of one page. The HTTP variant does a
// plain GET; the browser variant renders the page first.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

type Options struct {
	// ProbePaths are tried in order relative to the site root; "" means the
	// website URL as given. First path that yields an email wins.
	ProbePaths []string

	// RequireScheme rejects bare-domain input instead of defaulting to
	// http:// (the browser fetcher can only navigate qualified URLs).
	RequireScheme bool

	Limiter *util.HostLimiter
}

type Extractor struct {
	fetcher PageFetcher
	opts    Options
}

func New(fetcher PageFetcher, opts Options) *Extractor {
	if len(opts.ProbePaths) == 0 {
		opts.ProbePaths = []string{""}
	}
	return &Extractor{fetcher: fetcher, opts: opts}
}

// Extract probes the site's likely contact pages and returns the first
// plausible email, or "". Never returns an error: any fetch failure just
// means "no email from that page".
func (e *Extractor) Extract(ctx context.Context, websiteURL string) string {
	websiteURL = strings.TrimSpace(websiteURL)
	if websiteURL == "" {
		return ""
	}
	if !strings.Contains(websiteURL, "://") {
		if e.opts.RequireScheme {
			return ""
		}
		websiteURL = "http://" + websiteURL
	}

	base, err := url.Parse(websiteURL)
	if err != nil || base.Host == "" {
		return ""
	}
	root := base.Scheme + "://" + base.Host

	for _, p := range e.opts.ProbePaths {
		if ctx.Err() != nil {
			return ""
		}

		pageURL := websiteURL
		if p != "" {
			pageURL = root + p
		}

		if e.opts.Limiter != nil {
			if err := e.opts.Limiter.WaitURL(ctx, pageURL); err != nil {
				return ""
			}
		}

		html, err := e.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Printf("[email] fetch failed url=%s err=%v", pageURL, err)
			continue
		}

		if found := FindEmail(html); found != "" {
			return found
		}
	}
	return ""
}

// FindEmail scans one page's markup. mailto: links win over free-text
// matches; both are checked against the placeholder blocklist. Deterministic
// for fixed content: document order decides ties.
func FindEmail(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		var fromMailto string
		doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexAny(addr, "?&"); i >= 0 {
				addr = addr[:i]
			}
			addr = strings.TrimSpace(addr)
			if isPlausibleEmail(addr) {
				fromMailto = addr
				return false
			}
			return true
		})
		if fromMailto != "" {
			return strings.ToLower(fromMailto)
		}
	}

	for _, m := range emailRe.FindAllString(html, 20) {
		if isPlausibleEmail(m) {
			return strings.ToLower(m)
		}
	}
	return ""
}

func isPlausibleEmail(s string) bool {
	if !emailRe.MatchString(s) {
		return false
	}
	ls := strings.ToLower(s)
	for _, p := range placeholderPatterns {
		if strings.Contains(ls, p) {
			return false
		}
	}
	return true
}
