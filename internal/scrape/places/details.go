package places

import (
	"context"
	"fmt"
	"log"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/util"
)

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Website              string `json:"website"`
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		FormattedAddress     string `json:"formatted_address"`
	} `json:"result"`
}

// Fetch resolves website/phone/address via a place-details request. A non-OK
// API status degrades to all-empty details rather than an error; only
// transport failures propagate.
func (c *Client) Fetch(ctx context.Context, listing domain.RawListing) (domain.Details, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.WaitHost(ctx, util.HostOf(c.opts.BaseURL)); err != nil {
			return domain.Details{}, err
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.opts.APIKey).
		SetQueryParam("place_id", listing.ID).
		SetQueryParam("fields", "website,formatted_phone_number,formatted_address").
		SetResult(&detailsResponse{}).
		Get("/details/json")
	if err != nil {
		return domain.Details{}, fmt.Errorf("places details: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return domain.Details{}, fmt.Errorf("places details status %d", res.StatusCode())
	}

	body, ok := res.Result().(*detailsResponse)
	if !ok || body == nil {
		return domain.Details{}, fmt.Errorf("places details: malformed response")
	}
	if body.Status != "OK" {
		log.Printf("[places] details status=%s place=%s", body.Status, listing.ID)
		return domain.Details{}, nil
	}

	return domain.Details{
		Website: util.NormalizeWebsiteURL(body.Result.Website),
		Phone:   util.CleanText(body.Result.FormattedPhoneNumber),
		Address: util.CleanText(body.Result.FormattedAddress),
	}, nil
}
