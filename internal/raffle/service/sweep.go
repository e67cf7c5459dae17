package service

import (
	"context"
	"errors"
	"time"

	"tombola/internal/raffle/models"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
)

// ExpiredOpen returns raffles whose registration window elapsed while they
// are still persisted active with no pending winner. The scheduler closes
// each of them with CloseIfExpired.
func (s *Service) ExpiredOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	raffles, err := s.raffles.ListExpired(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired raffles")
	}
	return raffles, nil
}

// ConfirmationTimedOut returns raffles whose pending winner has run out of
// confirmation time. Due-ness is derived purely from store state (the latest
// draw entry's age), so it survives restarts and needs no armed timers.
func (s *Service) ConfirmationTimedOut(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	pending, err := s.raffles.ListPendingConfirmation(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending raffles")
	}

	var due []*models.Raffle
	for _, raffle := range pending {
		if !raffle.RequireConfirmation {
			continue
		}
		latest, err := s.draws.Latest(ctx, raffle.ID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest draw entry")
		}
		if now.After(latest.ConfirmationDeadline(raffle.ConfirmationWindow())) {
			due = append(due, raffle)
		}
	}
	return due, nil
}
