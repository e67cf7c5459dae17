// Package raffle persists the Raffle aggregate. In-memory and PostgreSQL
// implementations share the same semantics so the service can be tested
// without a database.
package raffle

import (
	"context"
	"sort"
	"sync"
	"time"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

// InMemory keeps raffles in a map. Intentionally favors clarity over
// performance; the MemoryTx lock serializes mutating transactions.
type InMemory struct {
	mu      sync.RWMutex
	raffles map[id.RaffleID]models.Raffle
}

func NewInMemory() *InMemory {
	return &InMemory{raffles: make(map[id.RaffleID]models.Raffle)}
}

func (s *InMemory) Create(_ context.Context, r *models.Raffle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.raffles[r.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.raffles[r.ID] = *r
	return nil
}

func (s *InMemory) FindByID(_ context.Context, raffleID id.RaffleID) (*models.Raffle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.raffles[raffleID]; ok {
		copied := r
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByIDForUpdate is FindByID for the memory store; the transaction lock
// already serializes writers.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error) {
	return s.FindByID(ctx, raffleID)
}

func (s *InMemory) Update(_ context.Context, r *models.Raffle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.raffles[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.raffles[r.ID] = *r
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Raffle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Raffle, 0, len(s.raffles))
	for _, r := range s.raffles {
		copied := r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListExpired returns raffles whose registration window elapsed while still
// persisted active with no pending winner.
func (s *InMemory) ListExpired(_ context.Context, now time.Time) ([]*models.Raffle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Raffle
	for _, r := range s.raffles {
		if r.WindowExpired(now) {
			copied := r
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ListPendingConfirmation returns raffles with an unconfirmed winner on a
// confirmation-required raffle. The caller compares the latest draw entry
// against the deadline.
func (s *InMemory) ListPendingConfirmation(_ context.Context) ([]*models.Raffle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Raffle
	for _, r := range s.raffles {
		if r.Status != models.StatusDrawn && r.WinnerID != nil && r.RequireConfirmation {
			copied := r
			out = append(out, &copied)
		}
	}
	return out, nil
}
