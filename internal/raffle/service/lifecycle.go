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

// CreateRaffleParams carries the operator-supplied fields for a new raffle.
type CreateRaffleParams struct {
	Name                       string
	Prize                      string
	Description                string
	AllowedDomain              string
	StartsAt                   *time.Time
	EndsAt                     *time.Time
	RequireConfirmation        bool
	ConfirmationTimeoutMinutes int
	AutoDrawOnEnd              bool
}

// Create sets up a new raffle in the active state.
func (s *Service) Create(ctx context.Context, params CreateRaffleParams) (*models.Raffle, error) {
	ctx, span := s.startSpan(ctx, "raffle.Create")
	defer span.End()

	now := requestcontext.Now(ctx)
	raffle, err := models.NewRaffle(
		id.NewRaffleID(),
		params.Name, params.Prize, params.Description, params.AllowedDomain,
		params.StartsAt, params.EndsAt,
		params.RequireConfirmation, params.ConfirmationTimeoutMinutes,
		params.AutoDrawOnEnd,
		now,
	)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.raffles.Create(ctx, raffle); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create raffle")
		}
		s.logAudit(ctx, audit.Event{
			Action:   audit.ActionRaffleCreated,
			RaffleID: raffle.ID.String(),
		}, "name", raffle.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raffle, nil
}

// RaffleDetails is the read model for a single raffle: the persisted fields
// plus everything a display page derives at request time.
type RaffleDetails struct {
	Raffle                  *models.Raffle         `json:"raffle"`
	EffectiveStatus         models.EffectiveStatus `json:"effective_status"`
	ParticipantCount        int                    `json:"participant_count"`
	ConfirmationSecondsLeft *int64                 `json:"confirmation_seconds_left,omitempty"`
}

// Get returns one raffle with its effective status, participant count, and,
// while a winner is pending on a code raffle, the seconds left to confirm.
func (s *Service) Get(ctx context.Context, raffleID id.RaffleID) (*RaffleDetails, error) {
	ctx, span := s.startSpan(ctx, "raffle.Get")
	defer span.End()

	now := requestcontext.Now(ctx)

	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	count, err := s.participantCount(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	details := &RaffleDetails{
		Raffle:           raffle,
		EffectiveStatus:  raffle.EffectiveStatus(now),
		ParticipantCount: count,
	}

	if details.EffectiveStatus == models.EffectiveWinnerPending && raffle.RequireConfirmation {
		latest, err := s.draws.Latest(ctx, raffleID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest draw entry")
			}
		} else {
			left := int64(latest.ConfirmationDeadline(raffle.ConfirmationWindow()).Sub(now).Seconds())
			if left < 0 {
				left = 0
			}
			details.ConfirmationSecondsLeft = &left
		}
	}
	return details, nil
}

// participantCount serves reads from the live counter when available and
// falls back to the store, reconciling the counter on a miss.
func (s *Service) participantCount(ctx context.Context, raffleID id.RaffleID) (int, error) {
	if s.live != nil {
		if count, ok, err := s.live.Count(ctx, raffleID); err == nil && ok {
			return count, nil
		}
	}
	count, err := s.participants.CountByRaffle(ctx, raffleID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count participants")
	}
	if s.live != nil {
		if err := s.live.Set(ctx, raffleID, count); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to reconcile live participant count",
				"raffle_id", raffleID, "error", err)
		}
	}
	return count, nil
}

// List returns all raffles in creation order.
func (s *Service) List(ctx context.Context) ([]*models.Raffle, error) {
	ctx, span := s.startSpan(ctx, "raffle.List")
	defer span.End()

	raffles, err := s.raffles.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list raffles")
	}
	return raffles, nil
}

// Participants returns a raffle's registrants in registration order.
func (s *Service) Participants(ctx context.Context, raffleID id.RaffleID) ([]*models.Participant, error) {
	ctx, span := s.startSpan(ctx, "raffle.Participants")
	defer span.End()

	if _, err := s.findRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByRaffle(ctx, raffleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
	}
	return participants, nil
}

// History returns a raffle's draw log in draw order.
func (s *Service) History(ctx context.Context, raffleID id.RaffleID) ([]*models.DrawEntry, error) {
	ctx, span := s.startSpan(ctx, "raffle.History")
	defer span.End()

	if _, err := s.findRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	history, err := s.draws.ListByRaffle(ctx, raffleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draw history")
	}
	return history, nil
}

// PatchStatus is the operator toggle between active and closed. The drawn
// status is not patchable; it is only reachable through confirmation.
func (s *Service) PatchStatus(ctx context.Context, raffleID id.RaffleID, status models.Status) (*models.Raffle, error) {
	ctx, span := s.startSpan(ctx, "raffle.PatchStatus")
	defer span.End()

	now := requestcontext.Now(ctx)

	var raffle *models.Raffle
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}
		if r.Status == models.StatusDrawn {
			return dErrors.New(dErrors.CodeInvalidState, "raffle is already finalized")
		}

		r.ApplyStatus(status, now)
		if err := s.raffles.Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update raffle")
		}

		s.logAudit(ctx, audit.Event{
			Action:   audit.ActionStatusPatched,
			RaffleID: raffleID.String(),
		}, "status", string(status))

		raffle = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raffle, nil
}

// Reopen restarts a closed or drawn raffle from scratch: the winner and the
// whole draw history are cleared, so every registered participant is eligible
// again. Participants are kept. When clearWindow is set the registration
// window is dropped too, reopening registration immediately.
func (s *Service) Reopen(ctx context.Context, raffleID id.RaffleID, clearWindow bool) (*models.Raffle, error) {
	ctx, span := s.startSpan(ctx, "raffle.Reopen")
	defer span.End()

	now := requestcontext.Now(ctx)

	var raffle *models.Raffle
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}
		if err := r.CanReopen(now); err != nil {
			return err
		}

		if err := s.draws.DeleteByRaffle(ctx, raffleID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear draw history")
		}

		r.ApplyReopen(clearWindow, now)
		if err := s.raffles.Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update raffle")
		}

		s.logAudit(ctx, audit.Event{
			Action:   audit.ActionRaffleReopened,
			RaffleID: raffleID.String(),
		}, "clear_window", clearWindow)

		raffle = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementReopens()
	}
	return raffle, nil
}

// CloseIfExpired durably closes a raffle whose registration window has
// elapsed. It is the explicit command form of window expiry, issued by the
// scheduler; read paths never mutate status. Returns false without error when
// the raffle turned out not to be expired under the lock.
func (s *Service) CloseIfExpired(ctx context.Context, raffleID id.RaffleID) (bool, error) {
	ctx, span := s.startSpan(ctx, "raffle.CloseIfExpired")
	defer span.End()

	now := requestcontext.Now(ctx)

	closed := false
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.raffles.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "raffle not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
		}
		if !r.WindowExpired(now) {
			return nil
		}

		r.ApplyClose(now)
		if err := s.raffles.Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update raffle")
		}

		s.logAudit(ctx, audit.Event{
			Action:   audit.ActionRaffleClosed,
			RaffleID: raffleID.String(),
			Trigger:  TriggerSchedule,
		})

		closed = true
		return nil
	})
	return closed, err
}

func (s *Service) findRaffle(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "raffle not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load raffle")
	}
	return raffle, nil
}
