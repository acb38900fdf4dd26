package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

const (
	selectBalanceSQL = `SELECT balance::text, updated_at FROM balances WHERE account = $1 AND asset = $2`

	upsertBalanceSQL = `INSERT INTO balances (account, asset, balance, updated_at)
VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (account, asset) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`

	listBalancesSQL = `SELECT asset, balance::text, updated_at FROM balances WHERE account = $1 ORDER BY asset`

	sumBalancesSQL = `SELECT asset, SUM(balance)::text FROM balances GROUP BY asset`
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	db querier
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return newBalanceRepository(pool)
}

func newBalanceRepository(db querier) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get retrieves a committed position. A missing row is a zero balance.
func (r *BalanceRepository) Get(ctx context.Context, key domain.LedgerKey) (*domain.Position, error) {
	return scanPosition(r.db.QueryRow(ctx, selectBalanceSQL, key.Account.Hex(), key.Asset.Hex()), key)
}

// GetForUpdate retrieves a position with a row lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.LedgerKey) (*domain.Position, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanPosition(t.QueryRow(ctx, selectBalanceSQL+" FOR UPDATE", key.Account.Hex(), key.Asset.Hex()), key)
}

// Upsert writes the position inside tx.
func (r *BalanceRepository) Upsert(ctx context.Context, tx usecase.Transaction, position *domain.Position) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = t.Exec(ctx, upsertBalanceSQL,
		position.Key.Account.Hex(),
		position.Key.Asset.Hex(),
		numericText(position.Balance),
		position.UpdatedAt,
	)
	return err
}

// ListByAccount returns every stored position of account.
func (r *BalanceRepository) ListByAccount(ctx context.Context, account domain.Account) ([]*domain.Position, error) {
	rows, err := r.db.Query(ctx, listBalancesSQL, account.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		var (
			asset     string
			balance   string
			updatedAt time.Time
		)
		if err := rows.Scan(&asset, &balance, &updatedAt); err != nil {
			return nil, err
		}

		v, err := parseNumeric(balance)
		if err != nil {
			return nil, err
		}

		positions = append(positions, &domain.Position{
			Key:       domain.LedgerKey{Account: account, Asset: common.HexToAddress(asset)},
			Balance:   v,
			UpdatedAt: updatedAt,
		})
	}

	return positions, rows.Err()
}

// SumByAsset returns the total credited per asset.
func (r *BalanceRepository) SumByAsset(ctx context.Context) (map[domain.AssetID]*uint256.Int, error) {
	rows, err := r.db.Query(ctx, sumBalancesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.AssetID]*uint256.Int)
	for rows.Next() {
		var asset, total string
		if err := rows.Scan(&asset, &total); err != nil {
			return nil, err
		}

		v, err := parseNumeric(total)
		if err != nil {
			return nil, err
		}
		sums[common.HexToAddress(asset)] = v
	}

	return sums, rows.Err()
}

func scanPosition(row pgx.Row, key domain.LedgerKey) (*domain.Position, error) {
	var (
		balance   string
		updatedAt time.Time
	)
	if err := row.Scan(&balance, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewPosition(key), nil
		}
		return nil, err
	}

	v, err := parseNumeric(balance)
	if err != nil {
		return nil, err
	}

	return &domain.Position{Key: key, Balance: v, UpdatedAt: updatedAt}, nil
}
