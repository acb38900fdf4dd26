package usecase

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// LedgerStore owns every balance mutation.
type LedgerStore struct {
	balances BalanceRepository
	now      func() time.Time
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(balances BalanceRepository) *LedgerStore {
	return &LedgerStore{
		balances: balances,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BalanceOf returns the committed balance, zero when no entry exists.
func (s *LedgerStore) BalanceOf(ctx context.Context, account domain.Account, asset domain.AssetID) (*uint256.Int, error) {
	position, err := s.balances.Get(ctx, domain.LedgerKey{Account: account, Asset: asset})
	if err != nil {
		return nil, err
	}
	return position.Balance, nil
}

// LockedBalance returns the balance inside tx, locking the entry.
func (s *LedgerStore) LockedBalance(ctx context.Context, tx Transaction, account domain.Account, asset domain.AssetID) (*uint256.Int, error) {
	position, err := s.balances.GetForUpdate(ctx, tx, domain.LedgerKey{Account: account, Asset: asset})
	if err != nil {
		return nil, err
	}
	return position.Balance, nil
}

// Credit adds amount to the entry and returns the new balance.
func (s *LedgerStore) Credit(ctx context.Context, tx Transaction, account domain.Account, asset domain.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	position, err := s.balances.GetForUpdate(ctx, tx, domain.LedgerKey{Account: account, Asset: asset})
	if err != nil {
		return nil, err
	}

	newBalance, err := position.ApplyCredit(amount)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, tx, position, newBalance)
}

// Debit subtracts amount from the entry and returns the new balance.
func (s *LedgerStore) Debit(ctx context.Context, tx Transaction, account domain.Account, asset domain.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	position, err := s.balances.GetForUpdate(ctx, tx, domain.LedgerKey{Account: account, Asset: asset})
	if err != nil {
		return nil, err
	}

	if err := position.ValidateDebit(amount); err != nil {
		return nil, err
	}

	return s.store(ctx, tx, position, position.ApplyDebit(amount))
}

func (s *LedgerStore) store(ctx context.Context, tx Transaction, position *domain.Position, balance *uint256.Int) (*uint256.Int, error) {
	position.Balance = balance
	position.UpdatedAt = s.now()

	if err := s.balances.Upsert(ctx, tx, position); err != nil {
		return nil, err
	}

	return new(uint256.Int).Set(balance), nil
}
