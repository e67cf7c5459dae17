// Package service implements the raffle lifecycle: registration, draws,
// winner confirmation, and reopening. Every mutating operation runs inside a
// single store transaction with the raffle row locked, so concurrent
// operators, schedulers, and registrants observe one linear history per
// raffle.
package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tombola/internal/audit"
	"tombola/internal/raffle/metrics"
	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/requestcontext"
)

// Trigger identifies who initiated a draw.
const (
	TriggerOperator = "operator"
	TriggerSchedule = "schedule"
)

type RaffleStore interface {
	Create(ctx context.Context, r *models.Raffle) error
	FindByID(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error)
	FindByIDForUpdate(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error)
	Update(ctx context.Context, r *models.Raffle) error
	List(ctx context.Context) ([]*models.Raffle, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Raffle, error)
	ListPendingConfirmation(ctx context.Context) ([]*models.Raffle, error)
}

type ParticipantStore interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	ListByRaffle(ctx context.Context, raffleID id.RaffleID) ([]*models.Participant, error)
	CountByRaffle(ctx context.Context, raffleID id.RaffleID) (int, error)
}

type DrawStore interface {
	Append(ctx context.Context, entry *models.DrawEntry) error
	ListByRaffle(ctx context.Context, raffleID id.RaffleID) ([]*models.DrawEntry, error)
	Latest(ctx context.Context, raffleID id.RaffleID) (*models.DrawEntry, error)
	MarkPresent(ctx context.Context, entryID id.EntryID) error
	DeleteByRaffle(ctx context.Context, raffleID id.RaffleID) error
}

// TxRunner delimits one transaction. Store calls inside fn share it via the
// context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// LiveCounter keeps the fast participant count that display pages poll.
type LiveCounter interface {
	Increment(ctx context.Context, raffleID id.RaffleID) (int, error)
	Count(ctx context.Context, raffleID id.RaffleID) (int, bool, error)
	Set(ctx context.Context, raffleID id.RaffleID, count int) error
}

// Service orchestrates the raffle state machine.
type Service struct {
	raffles        RaffleStore
	participants   ParticipantStore
	draws          DrawStore
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	live           LiveCounter
	tracer         trace.Tracer
	randIntN       func(n int) int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLiveCounter(counter LiveCounter) Option {
	return func(s *Service) {
		s.live = counter
	}
}

// WithRandIntN overrides winner selection randomness. Tests use it for
// deterministic draws.
func WithRandIntN(fn func(n int) int) Option {
	return func(s *Service) {
		s.randIntN = fn
	}
}

// New constructs a Service.
func New(raffles RaffleStore, participants ParticipantStore, draws DrawStore, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		raffles:      raffles,
		participants: participants,
		draws:        draws,
		tx:           tx,
		tracer:       otel.Tracer("tombola/raffle"),
		randIntN:     rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)

	if s.logger != nil {
		args := append(attributes,
			"event", string(event.Action),
			"raffle_id", event.RaffleID,
			"request_id", event.RequestID,
			"log_type", "audit")
		s.logger.InfoContext(ctx, string(event.Action), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"event", string(event.Action), "error", err)
	}
}
