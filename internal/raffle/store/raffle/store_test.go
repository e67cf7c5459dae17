package raffle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

type RaffleStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestRaffleStoreSuite(t *testing.T) {
	suite.Run(t, new(RaffleStoreSuite))
}

func (s *RaffleStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

var storeNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func (s *RaffleStoreSuite) newRaffle(name string, createdAt time.Time) *models.Raffle {
	r, err := models.NewRaffle(id.NewRaffleID(), name, "", "", "", nil, nil, false, 0, false, createdAt)
	s.Require().NoError(err)
	return r
}

func (s *RaffleStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	r := s.newRaffle("keep", storeNow)
	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Name, found.Name)

	// Returned value is a copy; mutating it must not leak into the store.
	found.Name = "mutated"
	again, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("keep", again.Name)

	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, id.NewRaffleID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RaffleStoreSuite) TestUpdate() {
	ctx := context.Background()
	r := s.newRaffle("before", storeNow)
	s.Require().NoError(s.store.Create(ctx, r))

	r.Name = "after"
	s.Require().NoError(s.store.Update(ctx, r))
	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("after", found.Name)

	s.ErrorIs(s.store.Update(ctx, s.newRaffle("ghost", storeNow)), sentinel.ErrNotFound)
}

func (s *RaffleStoreSuite) TestListOrder() {
	ctx := context.Background()
	second := s.newRaffle("second", storeNow.Add(time.Minute))
	first := s.newRaffle("first", storeNow)
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	raffles, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(raffles, 2)
	s.Equal("first", raffles[0].Name)
	s.Equal("second", raffles[1].Name)
}

func (s *RaffleStoreSuite) TestListExpired() {
	ctx := context.Background()
	past := storeNow.Add(-time.Minute)
	future := storeNow.Add(time.Hour)
	winnerID := id.NewParticipantID()

	expired := s.newRaffle("expired", storeNow)
	expired.EndsAt = &past

	open := s.newRaffle("open", storeNow)
	open.EndsAt = &future

	windowless := s.newRaffle("windowless", storeNow)

	closed := s.newRaffle("closed", storeNow)
	closed.EndsAt = &past
	closed.Status = models.StatusClosed

	pending := s.newRaffle("pending", storeNow)
	pending.EndsAt = &past
	pending.WinnerID = &winnerID

	for _, r := range []*models.Raffle{expired, open, windowless, closed, pending} {
		s.Require().NoError(s.store.Create(ctx, r))
	}

	due, err := s.store.ListExpired(ctx, storeNow)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(expired.ID, due[0].ID)
}

func (s *RaffleStoreSuite) TestListPendingConfirmation() {
	ctx := context.Background()
	winnerID := id.NewParticipantID()

	pending := s.newRaffle("pending", storeNow)
	pending.RequireConfirmation = true
	pending.WinnerID = &winnerID

	noCode := s.newRaffle("no code", storeNow)
	noCode.WinnerID = &winnerID

	finalized := s.newRaffle("finalized", storeNow)
	finalized.RequireConfirmation = true
	finalized.WinnerID = &winnerID
	finalized.Status = models.StatusDrawn

	for _, r := range []*models.Raffle{pending, noCode, finalized} {
		s.Require().NoError(s.store.Create(ctx, r))
	}

	due, err := s.store.ListPendingConfirmation(ctx)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(pending.ID, due[0].ID)
}
