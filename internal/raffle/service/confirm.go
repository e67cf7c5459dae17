package service

import (
	"context"
	"errors"

	"tombola/internal/audit"
	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/requestcontext"
	"tombola/pkg/secretcode"
)

// ConfirmResult is the finalized raffle together with its confirmed winner.
type ConfirmResult struct {
	Raffle      *models.Raffle      `json:"raffle"`
	Participant *models.Participant `json:"participant"`
}

const (
	methodCode     = "code"
	methodOperator = "operator"
)

// ConfirmByCode finalizes the pending winner after they prove presence with
// their secret code. The comparison is constant-time and the code is never
// echoed back in errors. The presence flip and the status transition commit
// in one transaction; a confirmation window that has already elapsed is
// irrelevant here, timeouts are the scheduler's business.
func (s *Service) ConfirmByCode(ctx context.Context, raffleID id.RaffleID, code string) (*ConfirmResult, error) {
	ctx, span := s.startSpan(ctx, "raffle.ConfirmByCode")
	defer span.End()

	if err := secretcode.Validate(code); err != nil {
		return nil, err
	}
	return s.confirm(ctx, raffleID, methodCode, func(raffle *models.Raffle, winner *models.Participant) error {
		if !raffle.RequireConfirmation {
			return dErrors.New(dErrors.CodeInvalidState, "raffle does not use code confirmation")
		}
		if winner.SecretCodeHash == "" || !secretcode.Compare(winner.SecretCodeHash, code) {
			return dErrors.New(dErrors.CodeInvalidCredential, "secret code does not match")
		}
		return nil
	})
}

// Confirm is the operator path for raffles that do not require a code: the
// operator saw the winner in the room and finalizes directly. Raffles with
// RequireConfirmation set must go through ConfirmByCode.
func (s *Service) Confirm(ctx context.Context, raffleID id.RaffleID) (*ConfirmResult, error) {
	ctx, span := s.startSpan(ctx, "raffle.Confirm")
	defer span.End()

	return s.confirm(ctx, raffleID, methodOperator, func(raffle *models.Raffle, _ *models.Participant) error {
		if raffle.RequireConfirmation {
			return dErrors.New(dErrors.CodeInvalidState, "raffle requires the winner's secret code")
		}
		return nil
	})
}

func (s *Service) confirm(ctx context.Context, raffleID id.RaffleID, method string, check func(*models.Raffle, *models.Participant) error) (*ConfirmResult, error) {
	now := requestcontext.Now(ctx)

	var result *ConfirmResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		raffle, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}
		if err := raffle.CanFinalize(); err != nil {
			return err
		}

		winner, err := s.participants.FindByID(ctx, *raffle.WinnerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending winner")
		}
		if err := check(raffle, winner); err != nil {
			return err
		}

		latest, err := s.draws.Latest(ctx, raffleID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest draw entry")
		}
		if err := s.draws.MarkPresent(ctx, latest.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark winner present")
		}

		raffle.ApplyFinalize(now)
		if err := s.raffles.Update(ctx, raffle); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update raffle")
		}

		s.logAudit(ctx, audit.Event{
			Action:        audit.ActionRaffleConfirmed,
			RaffleID:      raffleID.String(),
			ParticipantID: winner.ID.String(),
			DrawNumber:    latest.DrawNumber,
			Method:        method,
		}, "method", method)

		result = &ConfirmResult{Raffle: raffle, Participant: winner}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementConfirmations(method)
	}
	return result, nil
}
