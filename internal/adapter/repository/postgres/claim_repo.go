package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

const (
	insertClaimSQL = `INSERT INTO native_deposit_claims (tx_hash, account, amount, claimed_at)
VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (tx_hash) DO NOTHING`

	selectClaimSQL = `SELECT account, amount::text, claimed_at FROM native_deposit_claims WHERE tx_hash = $1`
)

// DepositClaimRepository implements usecase.DepositClaimRepository.
// The tx_hash primary key makes a second claim of the same transfer a no-op insert.
type DepositClaimRepository struct {
	db querier
}

// NewDepositClaimRepository creates a new DepositClaimRepository.
func NewDepositClaimRepository(pool *pgxpool.Pool) *DepositClaimRepository {
	return newDepositClaimRepository(pool)
}

func newDepositClaimRepository(db querier) *DepositClaimRepository {
	return &DepositClaimRepository{db: db}
}

// Claim inserts claim inside tx.
func (r *DepositClaimRepository) Claim(ctx context.Context, tx usecase.Transaction, claim *domain.DepositClaim) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := t.Exec(ctx, insertClaimSQL,
		claim.TxHash.Hex(),
		claim.Account.Hex(),
		numericText(claim.Amount),
		claim.ClaimedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDepositAlreadyClaimed
	}

	return nil
}

// Get returns the committed claim of txHash, or nil when it was never claimed.
func (r *DepositClaimRepository) Get(ctx context.Context, txHash common.Hash) (*domain.DepositClaim, error) {
	var (
		account   string
		amount    string
		claimedAt time.Time
	)
	err := r.db.QueryRow(ctx, selectClaimSQL, txHash.Hex()).Scan(&account, &amount, &claimedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	value, err := parseNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	return &domain.DepositClaim{
		TxHash:    txHash,
		Account:   common.HexToAddress(account),
		Amount:    value,
		ClaimedAt: claimedAt,
	}, nil
}
