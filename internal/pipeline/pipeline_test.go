package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/scrape/types"
)

// fakeSource serves canned listings per region name and counts fetches.
type fakeSource struct {
	listings map[string][]domain.RawListing
	denied   map[string]bool

	searches atomic.Int64
	fetches  atomic.Int64
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Search(_ context.Context, region domain.Region, maxResults int) ([]domain.RawListing, error) {
	f.searches.Add(1)
	if f.denied[region.Name] {
		return nil, fmt.Errorf("fake search: %w", types.ErrSourceDenied)
	}
	out := f.listings[region.Name]
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (f *fakeSource) Fetch(_ context.Context, listing domain.RawListing) (domain.Details, error) {
	f.fetches.Add(1)
	return domain.Details{Website: "https://" + listing.ID + ".example-site.org"}, nil
}

type fakeEmails struct {
	calls atomic.Int64
}

func (f *fakeEmails) Extract(_ context.Context, websiteURL string) string {
	f.calls.Add(1)
	return "info@" + websiteURL
}

func listing(id string) domain.RawListing {
	return domain.RawListing{ID: id, Name: "Listing " + id}
}

func TestRunDeduplicatesAcrossRegion(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"Budapest": {listing("A"), listing("B"), listing("A")},
		},
	}

	p := New(src, nil, nil, Options{MaxResults: 10, RegionWorkers: 1, ListingWorkers: 1})
	rs, statuses, err := p.Run(context.Background(), []domain.Region{{Name: "Budapest", Query: "dentist"}})
	require.NoError(t, err)

	items := rs.Items()
	require.Len(t, items, 2)
	require.Equal(t, "A", items[0].ID)
	require.Equal(t, "B", items[1].ID)

	require.Equal(t, StateDone, statuses[0].State)
	require.Equal(t, 2, statuses[0].Added)
	require.EqualValues(t, 2, src.fetches.Load(), "duplicate must not be fetched")
}

func TestRunDeniedRegionSkippedRunContinues(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"Vienna": {listing("V1")},
		},
		denied: map[string]bool{"Budapest": true},
	}

	p := New(src, nil, nil, Options{MaxResults: 10, RegionAttempts: 2, RegionWorkers: 1, ListingWorkers: 1})
	rs, statuses, err := p.Run(context.Background(), []domain.Region{
		{Name: "Budapest", Query: "dentist"},
		{Name: "Vienna", Query: "dentist"},
	})
	require.NoError(t, err)

	require.Equal(t, StateFailedSkipped, statuses[0].State)
	require.Equal(t, 2, statuses[0].Attempts)
	require.Contains(t, statuses[0].LastErr, "denied")

	require.Equal(t, StateDone, statuses[1].State)
	require.Equal(t, 1, rs.Size())
	require.Equal(t, "V1", rs.Items()[0].ID)
}

func TestRunCapStopsFurtherFetches(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"R1": {listing("a"), listing("b")},
			"R2": {listing("c"), listing("d")},
			"R3": {listing("e"), listing("f")},
		},
	}

	p := New(src, nil, nil, Options{MaxResults: 2, RegionWorkers: 1, ListingWorkers: 1})
	rs, _, err := p.Run(context.Background(), []domain.Region{
		{Name: "R1", Query: "q"}, {Name: "R2", Query: "q"}, {Name: "R3", Query: "q"},
	})
	require.NoError(t, err)

	require.Equal(t, 2, rs.Size())
	require.EqualValues(t, 2, src.fetches.Load(), "no detail fetches after the cap is reached")
	require.EqualValues(t, 1, src.searches.Load(), "remaining regions are not searched")
}

func TestRunCapTruncatesMidRegion(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"Big": {listing("1"), listing("2"), listing("3"), listing("4"), listing("5")},
		},
	}

	p := New(src, nil, nil, Options{MaxResults: 2, RegionWorkers: 1, ListingWorkers: 1})
	rs, statuses, err := p.Run(context.Background(), []domain.Region{{Name: "Big", Query: "q"}})
	require.NoError(t, err)

	require.Equal(t, 2, rs.Size())
	require.Equal(t, 2, statuses[0].Added)
	require.EqualValues(t, 2, src.fetches.Load())
}

func TestRunEmailEnrichment(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"R": {listing("x")},
		},
	}
	emails := &fakeEmails{}

	p := New(src, emails, nil, Options{MaxResults: 10, EmailEnabled: true, RegionWorkers: 1, ListingWorkers: 1})
	rs, _, err := p.Run(context.Background(), []domain.Region{{Name: "R", Query: "q"}})
	require.NoError(t, err)

	items := rs.Items()
	require.Len(t, items, 1)
	require.Equal(t, "https://x.example-site.org", items[0].Website)
	require.Equal(t, "info@https://x.example-site.org", items[0].Email)
	require.EqualValues(t, 1, emails.calls.Load())
}

func TestRunEmailDisabled(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{"R": {listing("x")}},
	}
	emails := &fakeEmails{}

	p := New(src, emails, nil, Options{MaxResults: 10, EmailEnabled: false, RegionWorkers: 1, ListingWorkers: 1})
	rs, _, err := p.Run(context.Background(), []domain.Region{{Name: "R", Query: "q"}})
	require.NoError(t, err)

	require.Equal(t, "", rs.Items()[0].Email)
	require.EqualValues(t, 0, emails.calls.Load())
}

func TestRunSkipKnownPlaces(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]domain.RawListing{
			"R": {listing("old"), listing("new")},
		},
	}

	p := New(src, nil, nil, Options{
		MaxResults:    10,
		RegionWorkers: 1, ListingWorkers: 1,
		SkipKnown: map[string]struct{}{"old": {}},
	})
	rs, _, err := p.Run(context.Background(), []domain.Region{{Name: "R", Query: "q"}})
	require.NoError(t, err)

	items := rs.Items()
	require.Len(t, items, 1)
	require.Equal(t, "new", items[0].ID)
}
