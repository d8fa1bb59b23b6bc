package events

import (
	"sync"
	"time"
)

// Event kinds published by the wall.
const (
	TypeCountdown = "countdown"
	TypeTicker    = "ticker"
	TypeReload    = "reload"
	TypeReaction  = "reaction"
)

// Event is one message on the wall's event stream.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Hub fans events out to subscribers. Slow subscribers lose events rather
// than stalling the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	last   map[string]Event
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		last:   make(map[string]Event),
	}
}

// Subscribe registers a channel and returns it with its cancel func. The most
// recent event of each type is replayed so new clients render immediately.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	ch := make(chan Event, h.buffer+len(h.last))
	for _, ev := range h.last {
		ch <- ev
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[ev.Type] = ev
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Last returns the latest event of the given type.
func (h *Hub) Last(eventType string) (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ev, ok := h.last[eventType]
	return ev, ok
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
