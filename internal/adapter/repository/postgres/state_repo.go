package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

const (
	selectStateSQL = `SELECT withdrawal_cap::text, total_deposits, total_withdrawals, native_total::text, updated_at
FROM bank_state WHERE id = 1`

	updateStateSQL = `UPDATE bank_state
SET withdrawal_cap = $1::numeric, total_deposits = $2, total_withdrawals = $3, native_total = $4::numeric, updated_at = $5
WHERE id = 1`

	initStateSQL = `INSERT INTO bank_state (id, withdrawal_cap, updated_at) VALUES (1, $1::numeric, $2)
ON CONFLICT (id) DO NOTHING`
)

// BankStateRepository implements usecase.BankStateRepository on the single bank_state row.
type BankStateRepository struct {
	db querier
}

// NewBankStateRepository creates a new BankStateRepository.
func NewBankStateRepository(pool *pgxpool.Pool) *BankStateRepository {
	return newBankStateRepository(pool)
}

func newBankStateRepository(db querier) *BankStateRepository {
	return &BankStateRepository{db: db}
}

// Initialize creates the state row with withdrawalCap unless it already exists.
func (r *BankStateRepository) Initialize(ctx context.Context, withdrawalCap *uint256.Int) error {
	_, err := r.db.Exec(ctx, initStateSQL, numericText(withdrawalCap), time.Now().UTC())
	return err
}

// Get returns the committed state.
func (r *BankStateRepository) Get(ctx context.Context) (*domain.BankState, error) {
	return scanState(r.db.QueryRow(ctx, selectStateSQL))
}

// GetForUpdate locks the state row. A busy lock fails fast with 55P03 so the
// caller's retrier decides how long to wait.
func (r *BankStateRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.BankState, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanState(t.QueryRow(ctx, selectStateSQL+" FOR UPDATE NOWAIT"))
}

// Update writes state inside tx.
func (r *BankStateRepository) Update(ctx context.Context, tx usecase.Transaction, state *domain.BankState) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := t.Exec(ctx, updateStateSQL,
		numericText(state.WithdrawalCap),
		int64(state.TotalDeposits),
		int64(state.TotalWithdrawals),
		numericText(state.NativeTotal),
		state.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateNotFound
	}

	return nil
}

func scanState(row pgx.Row) (*domain.BankState, error) {
	var (
		withdrawalCap    string
		totalDeposits    int64
		totalWithdrawals int64
		nativeTotal      string
		updatedAt        time.Time
	)
	if err := row.Scan(&withdrawalCap, &totalDeposits, &totalWithdrawals, &nativeTotal, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, err
	}

	capValue, err := parseNumeric(withdrawalCap)
	if err != nil {
		return nil, fmt.Errorf("withdrawal_cap: %w", err)
	}
	total, err := parseNumeric(nativeTotal)
	if err != nil {
		return nil, fmt.Errorf("native_total: %w", err)
	}

	return &domain.BankState{
		WithdrawalCap:    capValue,
		TotalDeposits:    uint64(totalDeposits),
		TotalWithdrawals: uint64(totalWithdrawals),
		NativeTotal:      total,
		UpdatedAt:        updatedAt,
	}, nil
}
