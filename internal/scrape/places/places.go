package places

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/types"
	"mapleads-engine/internal/scrape/util"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Radius used when a region carries coordinates; wide enough to cover a city.
const biasRadiusMeters = 30000

type Options struct {
	APIKey string

	// MaxPages caps text-search pagination (3 pages ~ 60 results).
	MaxPages int

	// TokenDelay is the mandatory wait before a next_page_token becomes
	// valid on the API side. Minimum ~2s or the follow-up request 400s.
	TokenDelay time.Duration

	Limiter *util.HostLimiter

	// BaseURL overrides the API endpoint; tests point it at a local server.
	BaseURL string
}

// Client is the Places-API-backed Source: text search for listings,
// place-details for enrichment.
type Client struct {
	http *resty.Client
	opts Options
}

func New(opts Options) *Client {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}
	if opts.TokenDelay < 2*time.Second {
		opts.TokenDelay = 2 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(20 * time.Second)
	client.SetHeader("User-Agent", "mapleads/1.0")

	return &Client{http: client, opts: opts}
}

func (c *Client) Name() string { return "places" }

type searchResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

type textSearchResponse struct {
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
	NextPageToken string         `json:"next_page_token"`
	Results       []searchResult `json:"results"`
}

// Search issues a text search plus up to MaxPages-1 continuation requests,
// waiting TokenDelay before each continuation so the token is live.
func (c *Client) Search(ctx context.Context, region domain.Region, maxResults int) ([]domain.RawListing, error) {
	var out []domain.RawListing
	pageToken := ""

	for page := 0; page < c.opts.MaxPages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, c.opts.TokenDelay); err != nil {
				return out, err
			}
		}

		resp, err := c.textSearch(ctx, region, pageToken)
		if err != nil {
			return out, err
		}

		for _, r := range resp.Results {
			if r.PlaceID == "" {
				continue
			}
			out = append(out, domain.RawListing{
				ID:        r.PlaceID,
				Name:      util.CleanText(r.Name),
				Address:   util.CleanText(r.FormattedAddress),
				SourceURL: "https://www.google.com/maps/place/?q=place_id:" + r.PlaceID,
			})
			if maxResults > 0 && len(out) >= maxResults {
				return out, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return out, nil
}

func (c *Client) textSearch(ctx context.Context, region domain.Region, pageToken string) (*textSearchResponse, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.WaitHost(ctx, util.HostOf(c.opts.BaseURL)); err != nil {
			return nil, err
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.opts.APIKey).
		SetResult(&textSearchResponse{})

	if pageToken != "" {
		req.SetQueryParam("pagetoken", pageToken)
	} else {
		req.SetQueryParam("query", region.SearchText())
		if region.Lat != 0 || region.Lng != 0 {
			req.SetQueryParam("location", strconv.FormatFloat(region.Lat, 'f', -1, 64)+","+strconv.FormatFloat(region.Lng, 'f', -1, 64))
			req.SetQueryParam("radius", strconv.Itoa(biasRadiusMeters))
		}
	}

	res, err := req.Get("/textsearch/json")
	if err != nil {
		return nil, fmt.Errorf("places textsearch: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, fmt.Errorf("places textsearch status %d", res.StatusCode())
	}

	body, ok := res.Result().(*textSearchResponse)
	if !ok || body == nil {
		return nil, fmt.Errorf("places textsearch: malformed response")
	}

	switch body.Status {
	case "OK", "ZERO_RESULTS":
		return body, nil
	case "REQUEST_DENIED", "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("places textsearch %s (%s): %w", body.Status, body.ErrorMessage, types.ErrSourceDenied)
	default:
		return nil, fmt.Errorf("places textsearch status %s: %s", body.Status, body.ErrorMessage)
	}
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

var _ types.Source = (*Client)(nil)
