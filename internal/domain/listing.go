package domain

import "time"

// Region is one geographic search target. Query overrides the run-wide
// query when set; Lat/Lng bias API-backed searches.
type Region struct {
	Name  string
	Query string
	Lat   float64
	Lng   float64
}

// SearchText is the full query string sent to the source for this region.
func (r Region) SearchText() string {
	if r.Name == "" {
		return r.Query
	}
	return r.Query + " in " + r.Name
}

// RawListing is what a listing source yields before enrichment. ID is the
// source's stable place identifier and the dedup key across regions.
type RawListing struct {
	ID      string
	Name    string
	Address string
	Phone   string
	// SourceURL points back at the listing on the source (maps place URL).
	SourceURL string
	// InlineWebsite is a website URL already visible in the search results,
	// letting enrichment skip the detail fetch.
	InlineWebsite string
}

// Details are the richer fields resolved from a listing's own detail page
// or API record. Empty fields mean "not found", not failure.
type Details struct {
	Website string
	Phone   string
	Address string
}

// EnrichedListing is the final record of a run.
type EnrichedListing struct {
	RawListing

	Website   string
	Email     string
	Region    string
	ScrapedAt time.Time
}

// Merge folds fetched details into the listing. First-seen raw fields win;
// fetched values only fill gaps.
func (e *EnrichedListing) Merge(d Details) {
	if e.Website == "" {
		e.Website = d.Website
	}
	if e.Phone == "" {
		e.Phone = d.Phone
	}
	if e.Address == "" {
		e.Address = d.Address
	}
}
