package pipeline

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/events"
	"mapleads-engine/internal/scrape/types"
)

type RegionState string

const (
	StatePending          RegionState = "PENDING"
	StateFetchingListings RegionState = "FETCHING_LISTINGS"
	StateFetchingDetails  RegionState = "FETCHING_DETAILS"
	StateDone             RegionState = "DONE"
	StateFailedSkipped    RegionState = "FAILED_SKIPPED"
)

type RegionStatus struct {
	Region   string      `json:"region"`
	State    RegionState `json:"state"`
	Attempts int         `json:"attempts"`
	Listings int         `json:"listings"`
	Added    int         `json:"added"`
	LastErr  string      `json:"last_error,omitempty"`
}

type Options struct {
	MaxResults     int // global cap on the result set
	PerRegionMax   int // listings pulled per region before dedup
	RegionAttempts int // search tries before a region is skipped

	RegionWorkers  int
	ListingWorkers int

	// ListingDelay spaces per-listing detail/email fetches inside a region.
	ListingDelay time.Duration
	// RegionStagger offsets concurrent region starts so they don't hit the
	// source at the same instant.
	RegionStagger time.Duration

	EmailEnabled bool

	// SkipKnown holds place identifiers already enriched by earlier runs
	// (from the lead store); they are dropped before reservation.
	SkipKnown map[string]struct{}
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = 100
	}
	if o.PerRegionMax <= 0 {
		o.PerRegionMax = 60
	}
	if o.RegionAttempts <= 0 {
		o.RegionAttempts = 2
	}
	if o.RegionWorkers <= 0 {
		o.RegionWorkers = 2
	}
	if o.ListingWorkers <= 0 {
		o.ListingWorkers = 3
	}
	if o.RegionStagger < 0 {
		o.RegionStagger = 0
	}
	return o
}

// Pipeline drives one run: regions in configured order through a bounded
// worker pool, each region's listings deduped into the shared ResultSet,
// then detail+email enrichment with bounded per-listing workers. Region
// failures are retried then skipped; only the caller's context stops a run
// early, besides the global cap.
type Pipeline struct {
	source types.Source
	emails types.EmailExtractor
	hub    *events.Hub
	opts   Options
}

func New(source types.Source, emails types.EmailExtractor, hub *events.Hub, opts Options) *Pipeline {
	return &Pipeline{
		source: source,
		emails: emails,
		hub:    hub,
		opts:   opts.withDefaults(),
	}
}

// Run processes every region and returns the finalized result set plus
// per-region statuses. The error is non-nil only when the caller's context
// was canceled before the cap was reached.
func (p *Pipeline) Run(ctx context.Context, regions []domain.Region) (*ResultSet, []RegionStatus, error) {
	rs := NewResultSet(p.opts.MaxResults)
	statuses := make([]RegionStatus, len(regions))
	for i, r := range regions {
		statuses[i] = RegionStatus{Region: r.Name, State: StatePending}
	}

	// Own cancel scope: once the cap fills, outstanding workers wind down.
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var g errgroup.Group
	g.SetLimit(p.opts.RegionWorkers)

	for i := range regions {
		i := i
		region := regions[i]

		g.Go(func() error {
			if p.opts.RegionStagger > 0 && i > 0 {
				_ = sleepCtx(runCtx, p.opts.RegionStagger)
			}
			statuses[i] = p.runRegion(runCtx, region, rs)
			if rs.Full() {
				p.hub.Publish(events.Event{Type: events.CapReached, Count: rs.Size()})
				stopRun()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil && !rs.Full() {
		return rs, statuses, err
	}
	return rs, statuses, nil
}

func (p *Pipeline) runRegion(ctx context.Context, region domain.Region, rs *ResultSet) RegionStatus {
	st := RegionStatus{Region: region.Name, State: StatePending}

	for attempt := 1; attempt <= p.opts.RegionAttempts; attempt++ {
		if ctx.Err() != nil || rs.Full() {
			// The run is over. An untouched region stays PENDING rather
			// than being reported as failed; one caught mid-retry is done.
			if st.State != StatePending {
				st.State = StateDone
			}
			return st
		}

		st.Attempts = attempt
		st.State = StateFetchingListings
		p.hub.Publish(events.Event{Type: events.RegionStarted, Region: region.Name})

		listings, err := p.source.Search(ctx, region, p.opts.PerRegionMax)
		if err != nil {
			st.LastErr = err.Error()
			log.Printf("[pipeline] region=%q attempt=%d/%d search failed: %v",
				region.Name, attempt, p.opts.RegionAttempts, err)
			continue
		}

		st.Listings = len(listings)
		st.State = StateFetchingDetails
		st.Added = p.enrichListings(ctx, region, listings, rs)

		st.State = StateDone
		p.hub.Publish(events.Event{Type: events.RegionDone, Region: region.Name, Count: st.Added})
		return st
	}

	st.State = StateFailedSkipped
	p.hub.Publish(events.Event{Type: events.RegionFailed, Region: region.Name})
	log.Printf("[pipeline] region=%q skipped after %d attempts: %s",
		region.Name, st.Attempts, st.LastErr)
	return st
}

// enrichListings dedupes the region's listings into the result set and runs
// detail+email enrichment with bounded workers. The cap check sits before
// each reservation, so a region truncates mid-stream when the set fills.
func (p *Pipeline) enrichListings(ctx context.Context, region domain.Region, listings []domain.RawListing, rs *ResultSet) int {
	var g errgroup.Group
	g.SetLimit(p.opts.ListingWorkers)

	added := 0
	for _, raw := range listings {
		if ctx.Err() != nil || rs.Full() {
			break
		}
		if _, known := p.opts.SkipKnown[raw.ID]; known {
			continue
		}
		if !rs.Reserve(region.Name, raw) {
			continue
		}
		added++

		raw := raw
		g.Go(func() error {
			p.enrichOne(ctx, region, raw, rs)
			if p.opts.ListingDelay > 0 {
				_ = sleepCtx(ctx, p.opts.ListingDelay)
			}
			return nil
		})
	}
	_ = g.Wait()
	return added
}

// enrichOne never fails: a fetch error degrades the record's fields to empty.
func (p *Pipeline) enrichOne(ctx context.Context, region domain.Region, raw domain.RawListing, rs *ResultSet) {
	var d domain.Details
	if ctx.Err() == nil {
		var err error
		d, err = p.source.Fetch(ctx, raw)
		if err != nil {
			log.Printf("[pipeline] region=%q listing=%q details failed: %v", region.Name, raw.ID, err)
			d = domain.Details{}
		}
	}

	website := d.Website
	if website == "" {
		website = raw.InlineWebsite
	}

	var mail string
	if p.opts.EmailEnabled && website != "" && p.emails != nil && ctx.Err() == nil {
		mail = p.emails.Extract(ctx, website)
	}

	rs.Complete(raw.ID, d, mail)
	p.hub.Publish(events.Event{Type: events.ListingAdded, Region: region.Name, Listing: raw.Name, Count: rs.Size()})
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
