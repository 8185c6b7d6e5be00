package events

import (
	"sync"
	"time"
)

type Type string

const (
	RegionStarted Type = "region_started"
	RegionDone    Type = "region_done"
	RegionFailed  Type = "region_failed"
	ListingAdded  Type = "listing_added"
	CapReached    Type = "cap_reached"
)

type Event struct {
	Type    Type      `json:"type"`
	Region  string    `json:"region,omitempty"`
	Listing string    `json:"listing,omitempty"`
	Count   int       `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

// Hub fans pipeline progress out to subscribers (the CLI's progress logger).
// Slow subscribers drop events instead of blocking workers.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
