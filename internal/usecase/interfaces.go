package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// BalanceRepository defines data access for ledger positions.
// A missing position is returned as a zero balance, never as an error.
type BalanceRepository interface {
	Get(ctx context.Context, key domain.LedgerKey) (*domain.Position, error)
	GetForUpdate(ctx context.Context, tx Transaction, key domain.LedgerKey) (*domain.Position, error)
	Upsert(ctx context.Context, tx Transaction, position *domain.Position) error
	ListByAccount(ctx context.Context, account domain.Account) ([]*domain.Position, error)
	SumByAsset(ctx context.Context) (map[domain.AssetID]*uint256.Int, error)
}

// BankStateRepository defines data access for the aggregate counters.
type BankStateRepository interface {
	Get(ctx context.Context) (*domain.BankState, error)
	// GetForUpdate locks the state row for the rest of tx.
	GetForUpdate(ctx context.Context, tx Transaction) (*domain.BankState, error)
	Update(ctx context.Context, tx Transaction, state *domain.BankState) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// DepositClaimRepository records which on-chain transfers paid for native credits.
type DepositClaimRepository interface {
	// Claim stores claim inside tx. A hash claimed before returns domain.ErrDepositAlreadyClaimed.
	Claim(ctx context.Context, tx Transaction, claim *domain.DepositClaim) error
	Get(ctx context.Context, txHash common.Hash) (*domain.DepositClaim, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes key so that the request may be retried.
	Release(ctx context.Context, key string) error
}

// PriceOracle returns the latest native/USD price.
type PriceOracle interface {
	LatestPrice(ctx context.Context) (domain.PriceReading, error)
}

// TokenTransferer moves token value. A false result is a failed transfer.
type TokenTransferer interface {
	TransferFrom(ctx context.Context, token domain.AssetID, from, to domain.Account, amount *uint256.Int) (bool, error)
	Transfer(ctx context.Context, token domain.AssetID, to domain.Account, amount *uint256.Int) (bool, error)
}

// NativeDepositVerifier proves that a native transfer of amount from from to
// custody was mined successfully. A failed proof wraps domain.ErrDepositUnproven.
type NativeDepositVerifier interface {
	VerifyNativeDeposit(ctx context.Context, txHash common.Hash, from, custody domain.Account, amount *uint256.Int) error
}

// NativeSender sends native value out of custody. It is attempted exactly once.
// Once a transfer is broadcast, a missing receipt is reported as a
// *domain.PendingTransferError, never as a plain failure.
type NativeSender interface {
	Send(ctx context.Context, to domain.Account, amount *uint256.Int) (bool, error)
}

// HoldingsReader reads what the custody address actually holds.
type HoldingsReader interface {
	NativeBalance(ctx context.Context, holder domain.Account) (*uint256.Int, error)
	TokenBalance(ctx context.Context, token domain.AssetID, holder domain.Account) (*uint256.Int, error)
}

// TokenMetadataReader resolves symbol and decimals of a token asset.
type TokenMetadataReader interface {
	TokenMetadata(ctx context.Context, token domain.AssetID) (*domain.TokenMetadata, error)
}

// AccessControl is the owner capability check.
type AccessControl interface {
	IsOwner(caller domain.Account) bool
	Owner() domain.Account
}
