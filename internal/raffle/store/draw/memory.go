// Package draw persists the append-only draw timeline. Entries are immutable
// except for the single present flip on confirmation; DeleteByRaffle exists
// only for the reopen operation, which archives the whole timeline.
package draw

import (
	"context"
	"sort"
	"sync"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	entries map[id.RaffleID][]models.DrawEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.RaffleID][]models.DrawEntry)}
}

func (s *InMemory) Append(_ context.Context, entry *models.DrawEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries[entry.RaffleID] {
		if e.DrawNumber == entry.DrawNumber || e.ParticipantID == entry.ParticipantID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.entries[entry.RaffleID] = append(s.entries[entry.RaffleID], *entry)
	return nil
}

func (s *InMemory) ListByRaffle(_ context.Context, raffleID id.RaffleID) ([]*models.DrawEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[raffleID]
	out := make([]*models.DrawEntry, 0, len(entries))
	for _, e := range entries {
		copied := e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrawNumber < out[j].DrawNumber })
	return out, nil
}

func (s *InMemory) Latest(_ context.Context, raffleID id.RaffleID) (*models.DrawEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[raffleID]
	if len(entries) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.DrawNumber > latest.DrawNumber {
			latest = e
		}
	}
	copied := latest
	return &copied, nil
}

// MarkPresent flips WasPresent on one entry. The confirmation path is the
// only caller, always under the raffle's transaction lock.
func (s *InMemory) MarkPresent(_ context.Context, entryID id.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for raffleID, entries := range s.entries {
		for i := range entries {
			if entries[i].ID == entryID {
				entries[i].WasPresent = true
				s.entries[raffleID] = entries
				return nil
			}
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemory) DeleteByRaffle(_ context.Context, raffleID id.RaffleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, raffleID)
	return nil
}
