// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber buffer used when NewHub gets n <= 0
const DefaultBuffer = 16

// Event says an election's tally changed. It carries no tally data.
type Event struct {
	ElectionID string
	At         time.Time
}

// Hub fans change events out to subscribers.
// Publish never blocks: a full subscriber buffer drops its oldest event.
type Hub struct {
	buffer int

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription is one subscriber's event stream
type Subscription struct {
	ID string

	hub    *Hub
	filter map[string]struct{} // nil means every election
	ch     chan Event

	mu      sync.Mutex // serializes sends, drops, and close
	closed  bool
	dropped uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. With no election ids it receives
// events for every election.
func (h *Hub) Subscribe(electionIDs ...string) *Subscription {
	s := &Subscription{
		ID:  uuid.NewString(),
		hub: h,
		ch:  make(chan Event, h.buffer),
	}
	if len(electionIDs) > 0 {
		s.filter = make(map[string]struct{}, len(electionIDs))
		for _, id := range electionIDs {
			s.filter[id] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Unsubscribe removes s and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}

	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

// Publish announces a change to electionID
func (h *Hub) Publish(electionID string) {
	ev := Event{ElectionID: electionID, At: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if s.wants(electionID) {
			s.deliver(ev)
		}
	}
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C returns the event stream. It is closed by Close or Hub.Unsubscribe.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close is shorthand for s's hub Unsubscribe
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}

// Dropped returns how many events were discarded because s fell behind
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) wants(electionID string) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[electionID]
	return ok
}

func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for {
		select {
		case s.ch <- ev:
			return
		default:
		}

		// Buffer full: discard the oldest event and retry
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}
