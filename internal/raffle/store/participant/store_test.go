package participant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

type ParticipantStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestParticipantStoreSuite(t *testing.T) {
	suite.Run(t, new(ParticipantStoreSuite))
}

func (s *ParticipantStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

var storeNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func (s *ParticipantStoreSuite) newParticipant(raffleID id.RaffleID, email string, createdAt time.Time) *models.Participant {
	p, err := models.NewParticipant(id.NewParticipantID(), raffleID, "someone", email, "", createdAt)
	s.Require().NoError(err)
	return p
}

func (s *ParticipantStoreSuite) TestEmailUniquePerRaffle() {
	ctx := context.Background()
	raffleA := id.NewRaffleID()
	raffleB := id.NewRaffleID()

	s.Require().NoError(s.store.Create(ctx, s.newParticipant(raffleA, "a@example.com", storeNow)))

	dup := s.newParticipant(raffleA, "a@example.com", storeNow)
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrAlreadyUsed)

	// The same email in another raffle is fine.
	s.NoError(s.store.Create(ctx, s.newParticipant(raffleB, "a@example.com", storeNow)))
}

func (s *ParticipantStoreSuite) TestListAndCountScopedToRaffle() {
	ctx := context.Background()
	raffleA := id.NewRaffleID()
	raffleB := id.NewRaffleID()

	for i := 0; i < 3; i++ {
		p := s.newParticipant(raffleA, fmt.Sprintf("a%d@example.com", i), storeNow.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Create(ctx, p))
	}
	s.Require().NoError(s.store.Create(ctx, s.newParticipant(raffleB, "b@example.com", storeNow)))

	list, err := s.store.ListByRaffle(ctx, raffleA)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("a0@example.com", list[0].Email, "registration order")
	s.Equal("a2@example.com", list[2].Email)

	count, err := s.store.CountByRaffle(ctx, raffleA)
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.store.CountByRaffle(ctx, id.NewRaffleID())
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ParticipantStoreSuite) TestFindByID() {
	ctx := context.Background()
	p := s.newParticipant(id.NewRaffleID(), "find@example.com", storeNow)
	s.Require().NoError(s.store.Create(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Email, found.Email)

	_, err = s.store.FindByID(ctx, id.NewParticipantID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
