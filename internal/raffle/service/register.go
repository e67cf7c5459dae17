package service

import (
	"context"
	"errors"
	"fmt"

	"tombola/internal/audit"
	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/requestcontext"
	"tombola/pkg/secretcode"
)

// Register adds a participant to an open raffle.
//
// The checks run in a fixed order so callers get stable failure modes:
// existence, effective openness, domain restriction, secret code, and
// finally email uniqueness. Registration never mutates raffle status; a
// raffle past its window stays persisted active until the scheduler issues
// CloseIfExpired, but registration is refused either way because openness is
// judged on the effective status.
func (s *Service) Register(ctx context.Context, raffleID id.RaffleID, name, email, code string) (*models.Participant, error) {
	ctx, span := s.startSpan(ctx, "raffle.Register")
	defer span.End()

	now := requestcontext.Now(ctx)

	var participant *models.Participant
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		raffle, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}

		if effective := raffle.EffectiveStatus(now); effective != models.EffectiveOpen {
			return dErrors.New(dErrors.CodeInvalidState,
				fmt.Sprintf("registration is not open (raffle is %s)", effective))
		}

		p, err := models.NewParticipant(id.NewParticipantID(), raffleID, name, email, "", now)
		if err != nil {
			return err
		}
		if !raffle.AllowsEmail(p.Email) {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("email must belong to the %s domain", raffle.AllowedDomain))
		}

		if raffle.RequireConfirmation {
			if err := secretcode.Validate(code); err != nil {
				return err
			}
			hash, err := secretcode.Hash(code)
			if err != nil {
				return err
			}
			p.SecretCodeHash = hash
		}

		if err := s.participants.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "email is already registered for this raffle")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create participant")
		}

		s.logAudit(ctx, audit.Event{
			Action:        audit.ActionParticipantRegistered,
			RaffleID:      raffleID.String(),
			ParticipantID: p.ID.String(),
		}, "participant_id", p.ID)

		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistrations()
	}
	s.bumpLiveCount(ctx, raffleID)

	return participant, nil
}

// bumpLiveCount is best-effort; the store count stays the source of truth and
// the counter is reconciled on the next read-through miss.
func (s *Service) bumpLiveCount(ctx context.Context, raffleID id.RaffleID) {
	if s.live == nil {
		return
	}
	if _, err := s.live.Increment(ctx, raffleID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to bump live participant count",
			"raffle_id", raffleID, "error", err)
	}
}
