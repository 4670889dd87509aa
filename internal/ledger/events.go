package ledger

import (
	"time"

	"finledger/internal/core"
)

const (
	EventAdded    EventKind = "added"
	EventRemoved  EventKind = "removed"
	EventCleared  EventKind = "cleared"
	EventImported EventKind = "imported"
	EventCurrency EventKind = "currency"
)

type EventKind string

// Event describes one completed ledger mutation. Transaction is set for
// added/removed events; Count carries the new sequence length.
type Event struct {
	Kind        EventKind         `json:"kind"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Count       int               `json:"count"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// Subscribe registers a change listener. The returned cancel function must
// be called when the listener goes away. Slow listeners drop events rather
// than blocking a mutation.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 16)
	s.subs[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// notify must be called with s.mu held.
func (s *Store) notify(ev Event) {
	ev.OccurredAt = s.now()
	ev.Count = len(s.txs)
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
