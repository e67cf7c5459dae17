package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Relay drains the transactional outbox into Kafka. Delivery is
// at-least-once: rows are only stamped published after the broker
// acknowledged the batch, so consumers must tolerate duplicates.
type Relay struct {
	store    *PostgresStore
	client   *kgo.Client
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewRelay connects to the brokers and makes sure the audit topic exists.
func NewRelay(ctx context.Context, store *PostgresStore, brokers []string, topic string, logger *slog.Logger) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists is the steady state after the first boot.
		logger.DebugContext(ctx, "audit topic create skipped", "topic", topic, "error", err)
	}

	return &Relay{
		store:    store,
		client:   client,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}, nil
}

// Run drains the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.client.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit relay drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) error {
	rows, err := r.store.FetchUnpublished(ctx, r.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(rows))
	for i, row := range rows {
		records[i] = &kgo.Record{Topic: row.Topic, Key: []byte(row.ID.String()), Value: row.Payload}
	}
	if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return r.store.MarkPublished(ctx, ids)
}
