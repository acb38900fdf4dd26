package postgres

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/iho/vaultledger/internal/usecase"
)

// querier is the subset of pgxpool.Pool and pgx.Tx used by the repositories.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgxTx(tx usecase.Transaction) (pgx.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type %T", tx)
	}
	return t.PgxTx(), nil
}

// NUMERIC(78,0) columns travel as text so no precision is lost on the way.

func numericText(v *uint256.Int) string {
	return v.Dec()
}

func parseNumeric(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return nil, fmt.Errorf("numeric %q is not a non-negative integer", s)
	}

	v, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, fmt.Errorf("numeric %q exceeds 256 bits", s)
	}
	return v, nil
}
