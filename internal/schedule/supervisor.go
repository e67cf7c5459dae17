// Package schedule owns time-driven raffle transitions. Nothing here is
// armed per raffle: each sweep derives due work from store state, so expiry
// and confirmation timeouts fire with zero observers and survive restarts.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"tombola/internal/raffle/metrics"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/service"
	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

// RaffleService is the slice of the raffle service the supervisor drives.
type RaffleService interface {
	ExpiredOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error)
	ConfirmationTimedOut(ctx context.Context, now time.Time) ([]*models.Raffle, error)
	CloseIfExpired(ctx context.Context, raffleID id.RaffleID) (bool, error)
	Draw(ctx context.Context, raffleID id.RaffleID, trigger string) (*service.DrawResult, error)
}

// DefaultInterval is the sweep cadence when none is configured.
const DefaultInterval = 15 * time.Second

// Supervisor periodically closes expired raffles, auto-draws where the
// operator asked for it, and redraws past unconfirmed winners. Concurrent
// sweeps are deduplicated per raffle; correctness against a second process
// rests on the store's per-raffle serialization, not on this dedupe.
type Supervisor struct {
	service  RaffleService
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	clock    func() time.Time
	group    singleflight.Group
}

type Option func(s *Supervisor)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Supervisor) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock overrides the sweep clock. Tests use it to step time.
func WithClock(clock func() time.Time) Option {
	return func(s *Supervisor) {
		s.clock = clock
	}
}

// New constructs a Supervisor.
func New(svc RaffleService, opts ...Option) *Supervisor {
	s := &Supervisor{
		service:  svc,
		logger:   slog.Default(),
		interval: DefaultInterval,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "raffle supervisor started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "raffle supervisor stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx, s.clock())
		}
	}
}

// Sweep performs one pass: close elapsed windows (drawing immediately where
// AutoDrawOnEnd is set), then redraw every raffle whose pending winner ran
// out of confirmation time.
func (s *Supervisor) Sweep(ctx context.Context, now time.Time) {
	ctx = requestcontext.WithTime(ctx, now)

	expired, err := s.service.ExpiredOpen(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list expired raffles", "error", err)
	}
	for _, raffle := range expired {
		s.closeExpired(ctx, raffle)
	}

	timedOut, err := s.service.ConfirmationTimedOut(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list timed out confirmations", "error", err)
	}
	for _, raffle := range timedOut {
		s.redrawTimedOut(ctx, raffle)
	}
}

func (s *Supervisor) closeExpired(ctx context.Context, raffle *models.Raffle) {
	_, err, _ := s.group.Do("close:"+raffle.ID.String(), func() (any, error) {
		closed, err := s.service.CloseIfExpired(ctx, raffle.ID)
		if err != nil {
			return nil, err
		}
		if !closed {
			// Someone else closed or mutated it under the lock.
			return nil, nil
		}
		s.logger.InfoContext(ctx, "raffle window expired, closed",
			"raffle_id", raffle.ID)

		if raffle.AutoDrawOnEnd {
			s.draw(ctx, raffle.ID, "auto-draw on window end")
		}
		return nil, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to close expired raffle",
			"raffle_id", raffle.ID, "error", err)
	}
}

func (s *Supervisor) redrawTimedOut(ctx context.Context, raffle *models.Raffle) {
	_, _, _ = s.group.Do("redraw:"+raffle.ID.String(), func() (any, error) {
		if s.draw(ctx, raffle.ID, "confirmation timeout redraw") {
			if s.metrics != nil {
				s.metrics.IncrementConfirmationTimeouts()
			}
		}
		return nil, nil
	})
}

// draw runs a schedule-triggered draw. Running out of eligible participants
// is expected, not a failure: the previous winner simply stays pending (or
// the closed raffle stays winnerless).
func (s *Supervisor) draw(ctx context.Context, raffleID id.RaffleID, reason string) bool {
	result, err := s.service.Draw(ctx, raffleID, service.TriggerSchedule)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNoEligibleParticipants) {
			s.logger.InfoContext(ctx, "no eligible participants left",
				"raffle_id", raffleID, "reason", reason)
			return false
		}
		s.logger.ErrorContext(ctx, "scheduled draw failed",
			"raffle_id", raffleID, "reason", reason, "error", err)
		return false
	}
	s.logger.InfoContext(ctx, "scheduled draw performed",
		"raffle_id", raffleID,
		"reason", reason,
		"winner_id", result.Winner.ID,
		"draw_number", len(result.History),
	)
	return true
}
