package participant

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

const participantColumns = `id, raffle_id, name, email, secret_code_hash, created_at`

// Create inserts a participant. The (raffle_id, lower(email)) unique index
// turns duplicate registrations into ErrAlreadyUsed, including under
// concurrent requests.
func (s *PostgresStore) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.RaffleID), p.Name, p.Email,
		nullableHash(p.SecretCodeHash), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return scanParticipant(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(participantID)))
}

func (s *PostgresStore) ListByRaffle(ctx context.Context, raffleID id.RaffleID) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE raffle_id = $1 ORDER BY created_at`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(raffleID))
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		p, err := scanParticipantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByRaffle(ctx context.Context, raffleID id.RaffleID) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE raffle_id = $1`, uuid.UUID(raffleID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row *sql.Row) (*models.Participant, error) {
	p, err := scanParticipantRow(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	return p, err
}

func scanParticipantRow(row rowScanner) (*models.Participant, error) {
	var (
		p        models.Participant
		pid, rid uuid.UUID
		hash     sql.NullString
	)
	if err := row.Scan(&pid, &rid, &p.Name, &p.Email, &hash, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	p.ID = id.ParticipantID(pid)
	p.RaffleID = id.RaffleID(rid)
	p.SecretCodeHash = hash.String
	return &p, nil
}

func nullableHash(hash string) any {
	if hash == "" {
		return nil
	}
	return hash
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
