// Package participant persists registered entrants. Email uniqueness per
// raffle is this store's responsibility; callers translate ErrAlreadyUsed
// into the Conflict domain error.
package participant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

type emailKey struct {
	raffleID id.RaffleID
	email    string
}

type InMemory struct {
	mu           sync.RWMutex
	participants map[id.ParticipantID]models.Participant
	byEmail      map[emailKey]id.ParticipantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		participants: make(map[id.ParticipantID]models.Participant),
		byEmail:      make(map[emailKey]id.ParticipantID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey{raffleID: p.RaffleID, email: strings.ToLower(p.Email)}
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.participants[p.ID] = *p
	s.byEmail[key] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.participants[participantID]; ok {
		copied := p
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByRaffle(_ context.Context, raffleID id.RaffleID) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Participant
	for _, p := range s.participants {
		if p.RaffleID == raffleID {
			copied := p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CountByRaffle(_ context.Context, raffleID id.RaffleID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.participants {
		if p.RaffleID == raffleID {
			count++
		}
	}
	return count, nil
}
