package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in memory for tests and single-process runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RaffleID] = append(s.events[event.RaffleID], event)
	return nil
}

func (s *InMemoryStore) ListByRaffle(_ context.Context, raffleID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[raffleID]...), nil
}
