package usecase

import (
	"context"

	"github.com/iho/vaultledger/internal/domain"
)

// AccountUseCase serves balance queries with asset metadata.
type AccountUseCase struct {
	ledger      *LedgerStore
	balanceRepo BalanceRepository
	metadata    TokenMetadataReader
}

// NewAccountUseCase creates a new AccountUseCase. metadata may be nil.
func NewAccountUseCase(ledger *LedgerStore, balanceRepo BalanceRepository, metadata TokenMetadataReader) *AccountUseCase {
	return &AccountUseCase{
		ledger:      ledger,
		balanceRepo: balanceRepo,
		metadata:    metadata,
	}
}

// GetBalance returns one balance, zero when the entry does not exist.
func (uc *AccountUseCase) GetBalance(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error) {
	balance, err := uc.ledger.BalanceOf(ctx, account, asset)
	if err != nil {
		return nil, err
	}

	return uc.describe(ctx, &domain.AssetBalance{
		Account: account,
		Asset:   asset,
		Balance: balance,
	}), nil
}

// ListBalances returns every stored entry of account.
func (uc *AccountUseCase) ListBalances(ctx context.Context, account domain.Account) ([]*domain.AssetBalance, error) {
	positions, err := uc.balanceRepo.ListByAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.AssetBalance, 0, len(positions))
	for _, p := range positions {
		balances = append(balances, uc.describe(ctx, &domain.AssetBalance{
			Account: p.Key.Account,
			Asset:   p.Key.Asset,
			Balance: p.Balance,
		}))
	}

	return balances, nil
}

// describe fills symbol and decimals. Metadata is best effort: a failed lookup
// leaves them empty rather than failing the balance query.
func (uc *AccountUseCase) describe(ctx context.Context, b *domain.AssetBalance) *domain.AssetBalance {
	if domain.IsNative(b.Asset) {
		b.Symbol = NativeSymbol
		b.Decimals = domain.NativeDecimals
		return b
	}

	if uc.metadata == nil {
		return b
	}

	meta, err := uc.metadata.TokenMetadata(ctx, b.Asset)
	if err != nil || meta == nil {
		return b
	}

	b.Symbol = meta.Symbol
	b.Decimals = meta.Decimals
	return b
}
