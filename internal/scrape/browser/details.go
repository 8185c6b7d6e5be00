package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/util"
)

// Fetch resolves details for one listing. If the feed card already exposed an
// outbound website link, no navigation happens; otherwise the place's own
// detail page is rendered and searched.
func (s *Session) Fetch(ctx context.Context, listing domain.RawListing) (domain.Details, error) {
	if listing.InlineWebsite != "" {
		return domain.Details{
			Website: listing.InlineWebsite,
			Phone:   listing.Phone,
			Address: listing.Address,
		}, nil
	}

	html, err := s.fetchRendered(ctx, listing.ID)
	if err != nil {
		return domain.Details{}, fmt.Errorf("detail page: %w", err)
	}

	return ExtractDetails(html)
}

// ExtractDetails pulls website/phone/address out of a rendered place page.
// Preference order for the website: explicit website link, any anchor to an
// external domain, bare-domain text. All best-effort; missing stays empty.
func ExtractDetails(html string) (domain.Details, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Details{}, fmt.Errorf("detail markup: %w", err)
	}

	var d domain.Details

	doc.Find(`a[data-item-id="authority"], a[data-value="Website"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if w := util.NormalizeWebsiteURL(a.AttrOr("href", "")); w != "" {
			d.Website = w
			return false
		}
		return true
	})

	if d.Website == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			if !strings.HasPrefix(href, "http") {
				return true
			}
			if w := util.NormalizeWebsiteURL(href); w != "" {
				d.Website = w
				return false
			}
			return true
		})
	}

	if d.Website == "" {
		d.Website = util.FindBareDomain(doc.Text())
	}

	if btn := doc.Find(`button[data-item-id^="phone"]`).First(); btn.Length() > 0 {
		label := btn.AttrOr("aria-label", "")
		if m := phoneRe.FindString(label); m != "" {
			d.Phone = util.CleanText(m)
		}
	}

	if btn := doc.Find(`button[data-item-id="address"]`).First(); btn.Length() > 0 {
		addr := btn.AttrOr("aria-label", "")
		addr = strings.TrimPrefix(addr, "Address: ")
		d.Address = util.CleanText(addr)
	}

	return d, nil
}
