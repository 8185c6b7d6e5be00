package types

import (
	"context"
	"errors"

	"mapleads-engine/internal/domain"
)

// ErrSourceDenied marks a source-level rejection (bad API key, exhausted
// quota, missing results panel). Not retried at the operation level; the
// pipeline surfaces it as a regional failure.
var ErrSourceDenied = errors.New("source denied request")

// ListingSource produces the raw listings for one region. Each call is a
// fresh session/query; the returned slice is finite and already capped at
// maxResults. Partial results with a nil error are valid (scroll timeout,
// short feed).
type ListingSource interface {
	Name() string
	Search(ctx context.Context, region domain.Region, maxResults int) ([]domain.RawListing, error)
}

// DetailsFetcher resolves the richer fields (website, phone, address) for a
// raw listing. Missing fields come back empty, not as errors; only transport
// failures on the listing's own detail page return an error.
type DetailsFetcher interface {
	Fetch(ctx context.Context, listing domain.RawListing) (domain.Details, error)
}

// EmailExtractor crawls a listing's website for a contact email. Best-effort:
// returns "" when nothing plausible is found or any fetch fails.
type EmailExtractor interface {
	Extract(ctx context.Context, websiteURL string) string
}

// Source bundles the search and detail halves of one backend so the pipeline
// can treat browser and API variants uniformly.
type Source interface {
	ListingSource
	DetailsFetcher
}
