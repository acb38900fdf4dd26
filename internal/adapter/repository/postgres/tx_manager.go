package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/usecase"
)

// DefaultLockTimeout bounds how long a ledger transaction waits on a balance row.
const DefaultLockTimeout = 2 * time.Second

const setLockTimeoutSQL = `SELECT set_config('lock_timeout', $1, true)`

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager for the ledger.
//
// Ledger transactions run at READ COMMITTED and take row locks explicitly.
// A wait longer than the lock timeout fails with SQLSTATE 55P03, which
// Retrier treats like the NOWAIT failure on the bank state row.
type TxManager struct {
	pool        txBeginner
	lockTimeout time.Duration
}

// NewTxManager creates a TxManager. A non-positive lockTimeout leaves the
// server default in place.
func NewTxManager(pool *pgxpool.Pool, lockTimeout time.Duration) *TxManager {
	return newTxManager(pool, lockTimeout)
}

func newTxManager(pool txBeginner, lockTimeout time.Duration) *TxManager {
	return &TxManager{pool: pool, lockTimeout: lockTimeout}
}

// Begin opens a ledger transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}

	if m.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, setLockTimeoutSQL, fmt.Sprintf("%dms", m.lockTimeout.Milliseconds())); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx is a ledger transaction. Repositories reach the pgx.Tx through PgxTx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
