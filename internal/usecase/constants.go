package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction,
	// including the transfer interaction that runs before commit. Transfer
	// adapters stop waiting for receipts early enough to leave time to commit.
	DefaultTransactionTimeout = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// NativeSymbol is the display symbol of the native asset.
	NativeSymbol = "ETH"
)

// Operation names used in logs and metrics.
const (
	OpDepositNative    = "deposit_native"
	OpDepositToken     = "deposit_token"
	OpWithdraw         = "withdraw"
	OpAdminSweep       = "admin_sweep"
	OpSetWithdrawalCap = "set_withdrawal_cap"
)
