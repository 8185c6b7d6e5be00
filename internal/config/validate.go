package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, trims region lists, and reports
// anything that would make a run pointless or impolite.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	// ---- Normalization ----

	out.Source.Kind = strings.ToLower(strings.TrimSpace(out.Source.Kind))
	out.Search.Query = strings.TrimSpace(out.Search.Query)

	seen := map[string]bool{}
	var regions []Region
	for _, r := range out.Search.Regions {
		r.Name = strings.TrimSpace(r.Name)
		r.Query = strings.TrimSpace(r.Query)
		if r.Name == "" && r.Query == "" {
			continue
		}
		key := strings.ToLower(r.Name + "|" + r.Query)
		if seen[key] {
			continue
		}
		seen[key] = true
		regions = append(regions, r)
	}
	out.Search.Regions = regions

	// ---- Defaults ----

	if out.Search.MaxResults <= 0 {
		out.Search.MaxResults = 100
	}
	if out.Search.PerRegionMax <= 0 {
		out.Search.PerRegionMax = 60
	}
	if out.Search.RegionAttempts <= 0 {
		out.Search.RegionAttempts = 2
	}
	if out.Concurrency.Regions <= 0 {
		out.Concurrency.Regions = 2
	}
	if out.Concurrency.Listings <= 0 {
		out.Concurrency.Listings = 3
	}
	if out.Rate.RequestsPerSecond <= 0 {
		out.Rate.RequestsPerSecond = 1
	}
	if out.Rate.Burst <= 0 {
		out.Rate.Burst = 2
	}
	if out.Source.Browser.NavTimeoutSeconds <= 0 {
		out.Source.Browser.NavTimeoutSeconds = 30
	}
	if out.Source.Browser.ScrollSettleMs <= 0 {
		out.Source.Browser.ScrollSettleMs = 1500
	}
	if out.Source.Browser.ScrollTimeoutSecs <= 0 {
		out.Source.Browser.ScrollTimeoutSecs = 60
	}
	if out.Source.Places.MaxPages <= 0 {
		out.Source.Places.MaxPages = 3
	}
	if out.Source.Places.TokenDelaySeconds < 2 {
		// pagination tokens need a warm-up before they become valid
		out.Source.Places.TokenDelaySeconds = 2
	}
	if out.Enrich.PageTimeoutSeconds <= 0 {
		out.Enrich.PageTimeoutSeconds = 12
	}
	if out.Enrich.ListingDelayMs <= 0 {
		out.Enrich.ListingDelayMs = 400
	}
	if len(out.Enrich.ProbePaths) == 0 {
		out.Enrich.ProbePaths = []string{"", "/contact", "/contact-us", "/about", "/about-us"}
	}
	if out.Output.CSV == "" && out.Output.JSON == "" {
		out.Output.CSV = "leads.csv"
	}

	// ---- Validation rules ----

	if out.Source.Kind != "browser" && out.Source.Kind != "places" {
		res.addErr("source.kind must be \"browser\" or \"places\", got %q", cfg.Source.Kind)
	}
	if len(out.Search.Regions) == 0 {
		res.addErr("search.regions is empty; nothing to scrape")
	}
	if out.Search.Query == "" {
		hasPerRegion := len(out.Search.Regions) > 0
		for _, r := range out.Search.Regions {
			if r.Query == "" {
				hasPerRegion = false
				break
			}
		}
		if !hasPerRegion {
			res.addErr("search.query is empty and not every region sets its own query")
		}
	}
	if out.Concurrency.Regions > 4 {
		res.addWarn("concurrency.regions=%d is aggressive; the source may rate-limit you", out.Concurrency.Regions)
	}
	if out.Concurrency.Listings > 5 {
		res.addWarn("concurrency.listings=%d is aggressive for per-site crawling", out.Concurrency.Listings)
	}
	if out.Search.MaxResults > 500 {
		res.addWarn("search.max_results=%d is very high; runs will be slow", out.Search.MaxResults)
	}

	return out, res
}
