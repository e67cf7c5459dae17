package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "tombola/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events land in the audit_outbox table inside the caller's transaction; the
// relay publishes them to Kafka afterwards, so the broker never gates a
// state change.
type PostgresStore struct {
	db    *sql.DB
	topic string
}

func NewPostgresStore(db *sql.DB, topic string) *PostgresStore {
	return &PostgresStore{db: db, topic: topic}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, topic, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), s.topic, payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRaffle(ctx context.Context, raffleID string) ([]Event, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE payload->>'raffle_id' = $1
		ORDER BY created_at
	`, raffleID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// FetchUnpublished returns up to limit outbox rows awaiting publication,
// oldest first, locking them against a concurrently running relay.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, topic, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.Topic, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished stamps outbox rows after the broker acknowledged them.
func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = NOW() WHERE id = ANY($1::uuid[])
	`, uuidArray(ids))
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// OutboxRow is one pending outbox record.
type OutboxRow struct {
	ID      uuid.UUID
	Topic   string
	Payload []byte
}

func uuidArray(ids []uuid.UUID) any {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}
