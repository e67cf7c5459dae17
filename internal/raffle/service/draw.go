package service

import (
	"context"
	"errors"
	"time"

	"tombola/internal/audit"
	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/requestcontext"
)

// DrawResult reports the outcome of one draw.
type DrawResult struct {
	Winner            *models.Participant `json:"winner"`
	RemainingEligible int                 `json:"remaining_eligible"`
	History           []*models.DrawEntry `json:"history"`
}

// Draw selects a winner uniformly at random among the eligible participants
// and appends the selection to the raffle's draw history. Every participant
// who already appears in the history is excluded, so calling Draw while a
// winner is pending is a redraw that silently skips the unresponsive winner.
// The first draw durably closes registration.
func (s *Service) Draw(ctx context.Context, raffleID id.RaffleID, trigger string) (*DrawResult, error) {
	ctx, span := s.startSpan(ctx, "raffle.Draw")
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)

	var result *DrawResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		raffle, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}
		if err := raffle.CanDraw(); err != nil {
			return err
		}

		participants, err := s.participants.ListByRaffle(ctx, raffleID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
		}
		history, err := s.draws.ListByRaffle(ctx, raffleID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draw history")
		}

		eligible := eligibleParticipants(participants, history)
		if len(eligible) == 0 {
			return dErrors.New(dErrors.CodeNoEligibleParticipants, "no eligible participants to draw from")
		}

		winner := eligible[s.randIntN(len(eligible))]
		entry := models.NewDrawEntry(id.NewEntryID(), raffleID, winner.ID, len(history)+1, now)
		if err := s.draws.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append draw entry")
		}

		raffle.ApplyWinner(winner.ID, now)
		if err := s.raffles.Update(ctx, raffle); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update raffle")
		}

		s.logAudit(ctx, audit.Event{
			Action:        audit.ActionDrawPerformed,
			RaffleID:      raffleID.String(),
			ParticipantID: winner.ID.String(),
			DrawNumber:    entry.DrawNumber,
			Trigger:       trigger,
		}, "draw_number", entry.DrawNumber, "trigger", trigger)

		result = &DrawResult{
			Winner:            winner,
			RemainingEligible: len(eligible) - 1,
			History:           append(history, entry),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementDraws(trigger)
		s.metrics.ObserveDraw(start)
	}
	return result, nil
}

// eligibleParticipants filters out everyone already drawn, preserving
// registration order so a seeded random index is reproducible in tests.
func eligibleParticipants(participants []*models.Participant, history []*models.DrawEntry) []*models.Participant {
	drawn := make(map[id.ParticipantID]struct{}, len(history))
	for _, entry := range history {
		drawn[entry.ParticipantID] = struct{}{}
	}
	eligible := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if _, ok := drawn[p.ID]; !ok {
			eligible = append(eligible, p)
		}
	}
	return eligible
}
