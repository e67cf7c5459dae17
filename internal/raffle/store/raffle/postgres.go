package raffle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tombola/internal/raffle/models"
	id "tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
	txcontext "tombola/pkg/platform/tx"
)

// PostgresStore persists raffles in PostgreSQL. Pure I/O; state-machine rules
// live in the service and model layers.
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

const raffleColumns = `id, name, prize, description, allowed_domain, starts_at, ends_at,
	require_confirmation, confirmation_timeout_minutes, auto_draw_on_end,
	status, winner_id, closed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Raffle) error {
	query := `
		INSERT INTO raffles (` + raffleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.Name, r.Prize, r.Description, r.AllowedDomain,
		r.StartsAt, r.EndsAt, r.RequireConfirmation, r.ConfirmationTimeoutMinutes,
		r.AutoDrawOnEnd, string(r.Status), winnerArg(r.WinnerID), r.ClosedAt,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create raffle: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`
	return scanRaffle(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(raffleID)))
}

// FindByIDForUpdate locks the raffle row for the remainder of the enclosing
// transaction. Every mutating operation goes through this lock, which is what
// serializes concurrent draws, confirmations, and reopens per raffle.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, raffleID id.RaffleID) (*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1 FOR UPDATE`
	return scanRaffle(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(raffleID)))
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Raffle) error {
	query := `
		UPDATE raffles SET
			name = $2, prize = $3, description = $4, allowed_domain = $5,
			starts_at = $6, ends_at = $7, require_confirmation = $8,
			confirmation_timeout_minutes = $9, auto_draw_on_end = $10,
			status = $11, winner_id = $12, closed_at = $13, updated_at = $14
		WHERE id = $1
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.Name, r.Prize, r.Description, r.AllowedDomain,
		r.StartsAt, r.EndsAt, r.RequireConfirmation, r.ConfirmationTimeoutMinutes,
		r.AutoDrawOnEnd, string(r.Status), winnerArg(r.WinnerID), r.ClosedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update raffle: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update raffle: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles ORDER BY created_at`
	return s.queryRaffles(ctx, query)
}

func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	query := `
		SELECT ` + raffleColumns + ` FROM raffles
		WHERE status = 'active' AND winner_id IS NULL AND ends_at IS NOT NULL AND ends_at < $1
	`
	return s.queryRaffles(ctx, query, now)
}

func (s *PostgresStore) ListPendingConfirmation(ctx context.Context) ([]*models.Raffle, error) {
	query := `
		SELECT ` + raffleColumns + ` FROM raffles
		WHERE status <> 'drawn' AND winner_id IS NOT NULL AND require_confirmation
	`
	return s.queryRaffles(ctx, query)
}

func (s *PostgresStore) queryRaffles(ctx context.Context, query string, args ...any) ([]*models.Raffle, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query raffles: %w", err)
	}
	defer rows.Close()

	var out []*models.Raffle
	for rows.Next() {
		r, err := scanRaffleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRaffle(row *sql.Row) (*models.Raffle, error) {
	r, err := scanRaffleRow(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

func scanRaffleRow(row rowScanner) (*models.Raffle, error) {
	var (
		r        models.Raffle
		rid      uuid.UUID
		status   string
		winnerID uuid.NullUUID
	)
	err := row.Scan(&rid, &r.Name, &r.Prize, &r.Description, &r.AllowedDomain,
		&r.StartsAt, &r.EndsAt, &r.RequireConfirmation, &r.ConfirmationTimeoutMinutes,
		&r.AutoDrawOnEnd, &status, &winnerID, &r.ClosedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan raffle: %w", err)
	}
	r.ID = id.RaffleID(rid)
	r.Status = models.Status(status)
	if winnerID.Valid {
		w := id.ParticipantID(winnerID.UUID)
		r.WinnerID = &w
	}
	return &r, nil
}

func winnerArg(winnerID *id.ParticipantID) any {
	if winnerID == nil {
		return nil
	}
	return uuid.UUID(*winnerID)
}
