package audit

import (
	"context"
	"time"
)

// Store is the append-only sink behind the publisher. The postgres
// implementation writes to the transactional outbox so an event commits or
// rolls back together with the state change that produced it.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRaffle(ctx context.Context, raffleID string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, raffleID string) ([]Event, error) {
	return p.store.ListByRaffle(ctx, raffleID)
}
