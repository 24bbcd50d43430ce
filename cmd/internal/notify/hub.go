// Package notify pushes server events to connected admin dashboards over
// WebSocket. Delivery is best effort: a subscriber that cannot keep up has
// events dropped rather than stalling the publisher.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"folio/cmd/internal/guestbook"
)

// Event is one outbound notification.
type Event struct {
	Type    string          `json:"type"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event types pushed to the dashboard.
const (
	EventMessageNew = "message.new"
)

const subscriberQueueSize = 32

type subscriber struct {
	ch   chan Event
	once sync.Once
	done chan struct{}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans events out to the connected subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[*subscriber]struct{}{}}
}

func (h *Hub) subscribe() *subscriber {
	s := &subscriber{
		ch:   make(chan Event, subscriberQueueSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.close()
}

// Subscribers reports the number of connected dashboards.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers an event to every subscriber without blocking; a full
// queue drops the event for that subscriber only.
func (h *Hub) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// MessageSubmitted publishes a message.new event. The visitor's email and IP
// stay server-side; the dashboard fetches full details over the REST API.
func (h *Hub) MessageSubmitted(m guestbook.Message) {
	payload, err := json.Marshal(struct {
		ID   string    `json:"id"`
		Name string    `json:"name"`
		Date time.Time `json:"date"`
	}{ID: m.ID, Name: m.Name, Date: m.Date})
	if err != nil {
		return
	}
	h.Publish(Event{Type: EventMessageNew, TS: m.Date, Payload: payload})
}
