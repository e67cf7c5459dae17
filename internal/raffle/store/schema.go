package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables the raffle stores rely on. The unique indexes are
// load-bearing: per-raffle email uniqueness and gap-free draw numbering are
// enforced here, not just in code.
const Schema = `
CREATE TABLE IF NOT EXISTS raffles (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	prize TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	allowed_domain TEXT NOT NULL DEFAULT '',
	starts_at TIMESTAMPTZ,
	ends_at TIMESTAMPTZ,
	require_confirmation BOOLEAN NOT NULL DEFAULT FALSE,
	confirmation_timeout_minutes INT NOT NULL DEFAULT 0,
	auto_draw_on_end BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed', 'drawn')),
	winner_id UUID,
	closed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
	id UUID PRIMARY KEY,
	raffle_id UUID NOT NULL REFERENCES raffles(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	secret_code_hash TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS participants_raffle_email_key
	ON participants (raffle_id, lower(email));

CREATE TABLE IF NOT EXISTS draw_entries (
	id UUID PRIMARY KEY,
	raffle_id UUID NOT NULL REFERENCES raffles(id) ON DELETE CASCADE,
	participant_id UUID NOT NULL REFERENCES participants(id),
	draw_number INT NOT NULL,
	was_present BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS draw_entries_raffle_number_key
	ON draw_entries (raffle_id, draw_number);

CREATE UNIQUE INDEX IF NOT EXISTS draw_entries_raffle_participant_key
	ON draw_entries (raffle_id, participant_id);

CREATE TABLE IF NOT EXISTS audit_outbox (
	id UUID PRIMARY KEY,
	topic TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS audit_outbox_unpublished_idx
	ON audit_outbox (created_at) WHERE published_at IS NULL;
`

// EnsureSchema applies the schema. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
