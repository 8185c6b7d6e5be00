package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/util"
)

var phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-/]{6,18}\d`)

// infoSeparator splits the card's detail lines ("Dentist · 12 High St").
const infoSeparator = "·"

// ParseFeed extracts raw listings from the rendered search feed markup.
// The card structure is third-party markup and changes without notice; all
// per-card extraction is positional best-effort, and everything layout-
// dependent stays inside this file.
func ParseFeed(html string, maxResults int) ([]domain.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("feed markup: %w", err)
	}

	seen := map[string]bool{}
	var out []domain.RawListing

	doc.Find(`a[href*="/maps/place/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		id := canonicalPlaceURL(href)
		if id == "" || seen[id] {
			return true
		}

		listing := domain.RawListing{
			ID:        id,
			SourceURL: id,
			Name:      util.CleanText(a.AttrOr("aria-label", "")),
		}

		if card := a.Closest("div.Nv2PK"); card.Length() > 0 {
			fillFromCard(&listing, card)
		}
		if listing.Name == "" {
			return true // decorative anchor, no usable card around it
		}

		seen[id] = true
		out = append(out, listing)
		return maxResults <= 0 || len(out) < maxResults
	})

	return out, nil
}

// fillFromCard pulls address/phone/website out of one result card using
// positional heuristics: the first info line ends with the address, the last
// one may carry a phone number.
func fillFromCard(listing *domain.RawListing, card *goquery.Selection) {
	if listing.Name == "" {
		listing.Name = util.CleanText(card.Find("div.qBF1Pd").First().Text())
	}

	var lines []string
	card.Find("div.W4Efsd").Each(func(_ int, s *goquery.Selection) {
		if t := util.CleanText(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})

	if len(lines) > 0 {
		first := splitInfoLine(lines[0])
		if len(first) > 0 {
			if addr := first[len(first)-1]; looksLikeAddress(addr) {
				listing.Address = addr
			}
		}
		last := splitInfoLine(lines[len(lines)-1])
		for _, part := range last {
			if m := phoneRe.FindString(part); m != "" {
				listing.Phone = util.CleanText(m)
				break
			}
		}
	}

	// An outbound website button in the card saves a detail-page visit.
	card.Find(`a[data-value="Website"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if w := util.NormalizeWebsiteURL(a.AttrOr("href", "")); w != "" {
			listing.InlineWebsite = w
			return false
		}
		return true
	})
}

func splitInfoLine(line string) []string {
	raw := strings.Split(line, infoSeparator)
	var parts []string
	for _, p := range raw {
		if p = util.CleanText(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// looksLikeAddress filters out ratings/hours that land in the same slot.
func looksLikeAddress(s string) bool {
	if s == "" || len(s) < 4 {
		return false
	}
	ls := strings.ToLower(s)
	for _, junk := range []string{"open", "closed", "opens", "closes", "24 hours", "⋅"} {
		if strings.Contains(ls, junk) {
			return false
		}
	}
	if phoneRe.MatchString(s) && len(strings.Fields(s)) <= 2 {
		return false
	}
	return true
}

// canonicalPlaceURL strips query/fragment noise so the same place collapses
// to one dedup key across scroll passes.
func canonicalPlaceURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		href = "https://www.google.com" + href
	}
	if !strings.Contains(href, "/maps/place/") {
		return ""
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return href
}
