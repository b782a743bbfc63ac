package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

// Type names a node path change
type Type string

const (
	NodePathCreated Type = "NodePathCreated"
	NodePathUpdated Type = "NodePathUpdated"
	NodePathDeleted Type = "NodePathDeleted"
	NextNodeSet     Type = "NextNodeSet"
)

// Event is one node path change
type Event struct {
	Type       Type             `json:"Type"`
	NodePathId uuid.UUID        `json:"NodePathId"`
	NodePath   *engine.NodePath `json:"NodePath,omitempty"`
	At         time.Time        `json:"At"`
}

// Subscription receives events until cancelled
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	hub    *Hub
	once   sync.Once
	filter func(Event) bool
}

// Cancel unsubscribes and closes C
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

/*
 * Hub fans events out to subscribers. Publish never blocks: a subscriber
 * whose buffer is full misses the event and the drop is counted.
 */
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
	closed  bool
}

// NewHub creates a hub with the given per-subscriber buffer size
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe registers a subscriber; filter may be nil
func (h *Hub) Subscribe(filter func(Event) bool) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, hub: h, filter: filter}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every matching subscriber
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for s := range h.subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of active subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close cancels every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
		delete(h.subs, s)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}
