package draw

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
	txcontext "tombola/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const entryColumns = `id, raffle_id, participant_id, draw_number, was_present, created_at`

// Append inserts the next timeline entry. The unique indexes on
// (raffle_id, draw_number) and (raffle_id, participant_id) back the gap-free
// numbering and monotonic-exclusion invariants even if two transactions race.
func (s *PostgresStore) Append(ctx context.Context, entry *models.DrawEntry) error {
	query := `
		INSERT INTO draw_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.RaffleID), uuid.UUID(entry.ParticipantID),
		entry.DrawNumber, entry.WasPresent, entry.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append draw entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRaffle(ctx context.Context, raffleID id.RaffleID) ([]*models.DrawEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM draw_entries WHERE raffle_id = $1 ORDER BY draw_number`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(raffleID))
	if err != nil {
		return nil, fmt.Errorf("list draw entries: %w", err)
	}
	defer rows.Close()

	var out []*models.DrawEntry
	for rows.Next() {
		entry, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, raffleID id.RaffleID) (*models.DrawEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM draw_entries
		WHERE raffle_id = $1 ORDER BY draw_number DESC LIMIT 1
	`
	return scanEntryRow(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(raffleID)))
}

func (s *PostgresStore) MarkPresent(ctx context.Context, entryID id.EntryID) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE draw_entries SET was_present = TRUE WHERE id = $1`, uuid.UUID(entryID),
	)
	if err != nil {
		return fmt.Errorf("mark present: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark present: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByRaffle(ctx context.Context, raffleID id.RaffleID) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM draw_entries WHERE raffle_id = $1`, uuid.UUID(raffleID),
	)
	if err != nil {
		return fmt.Errorf("delete draw entries: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(row rowScanner) (*models.DrawEntry, error) {
	var (
		entry         models.DrawEntry
		eid, rid, pid uuid.UUID
	)
	if err := row.Scan(&eid, &rid, &pid, &entry.DrawNumber, &entry.WasPresent, &entry.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan draw entry: %w", err)
	}
	entry.ID = id.EntryID(eid)
	entry.RaffleID = id.RaffleID(rid)
	entry.ParticipantID = id.ParticipantID(pid)
	return &entry, nil
}
