package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event types
const (
	EventTypeDepositCompleted     = "deposit.completed"
	EventTypeWithdrawalCompleted  = "withdrawal.completed"
	EventTypeWithdrawalCapUpdated = "withdrawal_cap.updated"
	EventTypeSwept                = "sweep.completed"
	EventTypeTransferPending      = "transfer.pending"
)

// Aggregate types
const (
	AggregateTypePosition = "position"
	AggregateTypeBank     = "bank"
	AggregateTypeTransfer = "transfer"
)

// BankAggregateID is the aggregate id of bank-wide events.
const BankAggregateID = "bank"

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// DepositCompleted is emitted once per successful deposit.
// TxHash is the claimed on-chain transfer of a proven native deposit.
type DepositCompleted struct {
	Account    Account
	Asset      AssetID
	Amount     *uint256.Int
	NewBalance *uint256.Int
	TxHash     common.Hash
	At         time.Time
}

// Payload renders the event for the outbox.
func (e *DepositCompleted) Payload() map[string]any {
	payload := map[string]any{
		"account":     e.Account.Hex(),
		"asset":       AssetString(e.Asset),
		"amount":      e.Amount.Dec(),
		"new_balance": e.NewBalance.Dec(),
		"event_at":    e.At.Format(time.RFC3339Nano),
	}
	if e.TxHash != (common.Hash{}) {
		payload["tx_hash"] = e.TxHash.Hex()
	}
	return payload
}

// WithdrawalCompleted is emitted once per successful withdrawal.
// PendingTx is set when the payout was broadcast but not yet seen mined.
type WithdrawalCompleted struct {
	Account    Account
	Asset      AssetID
	Amount     *uint256.Int
	NewBalance *uint256.Int
	PendingTx  common.Hash
	At         time.Time
}

// Payload renders the event for the outbox.
func (e *WithdrawalCompleted) Payload() map[string]any {
	return map[string]any{
		"account":     e.Account.Hex(),
		"asset":       AssetString(e.Asset),
		"amount":      e.Amount.Dec(),
		"new_balance": e.NewBalance.Dec(),
		"event_at":    e.At.Format(time.RFC3339Nano),
	}
}

// WithdrawalCapUpdated is emitted when the owner changes the withdrawal cap.
type WithdrawalCapUpdated struct {
	PreviousCap *uint256.Int
	NewCap      *uint256.Int
	At          time.Time
}

// Payload renders the event for the outbox.
func (e *WithdrawalCapUpdated) Payload() map[string]any {
	return map[string]any{
		"previous_cap": e.PreviousCap.Dec(),
		"new_cap":      e.NewCap.Dec(),
		"event_at":     e.At.Format(time.RFC3339Nano),
	}
}

// Swept is emitted when the owner sweeps raw token holdings.
type Swept struct {
	Asset     AssetID
	To        Account
	Amount    *uint256.Int
	PendingTx common.Hash
	At        time.Time
}

// Payload renders the event for the outbox.
func (e *Swept) Payload() map[string]any {
	return map[string]any{
		"asset":    AssetString(e.Asset),
		"to":       e.To.Hex(),
		"amount":   e.Amount.Dec(),
		"event_at": e.At.Format(time.RFC3339Nano),
	}
}

// TransferPending records a payout whose transaction was broadcast while the
// ledger effect was committed without its receipt. Reconciliation settles it.
type TransferPending struct {
	Operation string
	TxHash    common.Hash
	Asset     AssetID
	To        Account
	Amount    *uint256.Int
	At        time.Time
}

// Payload renders the event for the outbox.
func (e *TransferPending) Payload() map[string]any {
	return map[string]any{
		"operation": e.Operation,
		"tx_hash":   e.TxHash.Hex(),
		"asset":     AssetString(e.Asset),
		"to":        e.To.Hex(),
		"amount":    e.Amount.Dec(),
		"event_at":  e.At.Format(time.RFC3339Nano),
	}
}
