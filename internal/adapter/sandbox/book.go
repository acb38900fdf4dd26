package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// Book simulates wallets on a chain, including the custody wallet.
// Wallets other than custody start with an opening balance in every asset.
// It implements usecase.TokenTransferer, usecase.NativeSender,
// usecase.HoldingsReader and usecase.TokenMetadataReader.
type Book struct {
	mu      sync.Mutex
	custody domain.Account
	opening *uint256.Int
	wallets map[domain.LedgerKey]*uint256.Int
	tokens  map[domain.AssetID]domain.TokenMetadata
}

// NewBook creates a book with the given custody address and opening balance.
func NewBook(custody domain.Account, opening *uint256.Int) *Book {
	return &Book{
		custody: custody,
		opening: new(uint256.Int).Set(opening),
		wallets: make(map[domain.LedgerKey]*uint256.Int),
		tokens:  make(map[domain.AssetID]domain.TokenMetadata),
	}
}

// Custody returns the custody address.
func (b *Book) Custody() domain.Account {
	return b.custody
}

// RegisterToken sets the metadata reported for token.
func (b *Book) RegisterToken(meta domain.TokenMetadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[meta.Asset] = meta
}

// Fund adds amount to a wallet.
func (b *Book) Fund(account domain.Account, asset domain.AssetID, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.wallet(account, asset)
	w.Add(w, amount)
}

// wallet must be called with mu held.
func (b *Book) wallet(account domain.Account, asset domain.AssetID) *uint256.Int {
	key := domain.LedgerKey{Account: account, Asset: asset}
	w, ok := b.wallets[key]
	if !ok {
		w = new(uint256.Int)
		if account != b.custody {
			w.Set(b.opening)
		}
		b.wallets[key] = w
	}
	return w
}

// move returns false when from cannot cover amount.
func (b *Book) move(asset domain.AssetID, from, to domain.Account, amount *uint256.Int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	src := b.wallet(from, asset)
	if amount.Gt(src) {
		return false
	}
	dst := b.wallet(to, asset)
	if _, overflow := new(uint256.Int).AddOverflow(dst, amount); overflow {
		return false
	}

	src.Sub(src, amount)
	dst.Add(dst, amount)
	return true
}

// TransferFrom moves token value from from to to.
func (b *Book) TransferFrom(ctx context.Context, token domain.AssetID, from, to domain.Account, amount *uint256.Int) (bool, error) {
	return b.move(token, from, to, amount), nil
}

// Transfer moves token value out of custody.
func (b *Book) Transfer(ctx context.Context, token domain.AssetID, to domain.Account, amount *uint256.Int) (bool, error) {
	return b.move(token, b.custody, to, amount), nil
}

// Send moves native value out of custody.
func (b *Book) Send(ctx context.Context, to domain.Account, amount *uint256.Int) (bool, error) {
	return b.move(domain.NativeAsset, b.custody, to, amount), nil
}

// Receive moves native value that accompanies a deposit into custody.
func (b *Book) Receive(from domain.Account, amount *uint256.Int) error {
	if !b.move(domain.NativeAsset, from, b.custody, amount) {
		return fmt.Errorf("wallet %s cannot cover %s", from.Hex(), amount.Dec())
	}
	return nil
}

// Refund returns native value to from after a rejected deposit.
func (b *Book) Refund(from domain.Account, amount *uint256.Int) {
	b.move(domain.NativeAsset, b.custody, from, amount)
}

// NativeBalance returns the native balance of holder.
func (b *Book) NativeBalance(ctx context.Context, holder domain.Account) (*uint256.Int, error) {
	return b.TokenBalance(ctx, domain.NativeAsset, holder)
}

// TokenBalance returns holder's balance of token.
func (b *Book) TokenBalance(ctx context.Context, token domain.AssetID, holder domain.Account) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(uint256.Int).Set(b.wallet(holder, token)), nil
}

// TokenMetadata returns registered metadata, or an 18-decimal placeholder.
func (b *Book) TokenMetadata(ctx context.Context, token domain.AssetID) (*domain.TokenMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if meta, ok := b.tokens[token]; ok {
		return &meta, nil
	}
	return &domain.TokenMetadata{Asset: token, Symbol: "SBX", Decimals: 18}, nil
}
