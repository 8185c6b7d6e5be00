package pipeline

import (
	"sync"
	"time"

	"mapleads-engine/internal/domain"
)

// ResultSet is the single shared mutable state of a run: an insertion-ordered,
// identifier-unique, cap-bounded collection of enriched listings. All access
// goes through the mutex; workers reserve a slot before enriching so the cap
// also bounds in-flight work.
type ResultSet struct {
	mu    sync.Mutex
	limit int
	index map[string]int // listing ID -> position in items
	items []domain.EnrichedListing
}

func NewResultSet(limit int) *ResultSet {
	if limit <= 0 {
		limit = 100
	}
	return &ResultSet{
		limit: limit,
		index: make(map[string]int),
	}
}

// Reserve claims a slot for the listing. Returns false for duplicates (the
// first-seen entry keeps its name/address) and when the cap is reached.
// Reservation order is insertion order.
func (rs *ResultSet) Reserve(region string, raw domain.RawListing) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if raw.ID == "" {
		return false
	}
	if _, dup := rs.index[raw.ID]; dup {
		return false
	}
	if len(rs.items) >= rs.limit {
		return false
	}

	rs.index[raw.ID] = len(rs.items)
	rs.items = append(rs.items, domain.EnrichedListing{
		RawListing: raw,
		Region:     region,
	})
	return true
}

// Complete merges fetched details and the extracted email into a previously
// reserved entry. First-seen raw fields win over fetched ones.
func (rs *ResultSet) Complete(id string, d domain.Details, email string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	pos, ok := rs.index[id]
	if !ok {
		return
	}
	e := &rs.items[pos]
	e.Merge(d)
	e.Email = email
	e.ScrapedAt = time.Now().UTC()
}

func (rs *ResultSet) Full() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.items) >= rs.limit
}

func (rs *ResultSet) Size() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.items)
}

// Items returns a copy in insertion order.
func (rs *ResultSet) Items() []domain.EnrichedListing {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]domain.EnrichedListing, len(rs.items))
	copy(out, rs.items)
	return out
}
