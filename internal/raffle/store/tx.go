// Package store provides the transactional plumbing shared by the raffle,
// participant, and draw stores. Business code sees only the RunInTx boundary;
// per-raffle serialization comes from row locks taken inside it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lib/pq"

	txcontext "tombola/pkg/platform/tx"
)

// SQLTx runs a function inside a database transaction carried through the
// context, so every store call within the function shares one transaction.
// Serialization failures and deadlocks are retried transparently; callers
// never see them.
type SQLTx struct {
	db *sql.DB
}

func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

const maxTxAttempts = 3

func (t *SQLTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if !isRetryable(err) {
			return err
		}
	}
	return err
}

func (t *SQLTx) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// isRetryable matches PostgreSQL serialization_failure and deadlock_detected.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// MemoryTx serializes in-memory transactions with a coarse lock. Good enough
// for tests and single-process development; the SQL runner owns production
// semantics.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
