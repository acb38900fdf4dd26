package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// Amount and asset errors
	ErrZeroAmount           = errors.New("amount must be greater than zero")
	ErrInvalidTokenFunction = errors.New("operation not allowed for this asset kind")
	ErrInvalidAmountFormat  = errors.New("invalid amount format")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidTxHash        = errors.New("invalid transaction hash")

	// Ledger errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")

	// Cap errors
	ErrDepositExceedsCap    = errors.New("deposit exceeds cap")
	ErrExceedsWithdrawalCap = errors.New("amount exceeds withdrawal cap")

	// Price errors
	ErrCalculationFailed = errors.New("cap calculation failed")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidDecimals   = errors.New("invalid decimal configuration")

	// Interaction errors
	ErrTransferFailed  = errors.New("transfer failed")
	ErrReentrantCall   = errors.New("reentrant call rejected")
	ErrStateNotFound   = errors.New("bank state not initialized")
	ErrUnsupportedMode = errors.New("unsupported mode")
	ErrTransferPending = errors.New("transfer broadcast, outcome pending")

	// Native deposit proof errors
	ErrDepositUnproven       = errors.New("native deposit not proven on chain")
	ErrDepositAlreadyClaimed = errors.New("deposit transaction already claimed")
)

// DepositExceedsCapError carries the numbers behind a rejected native deposit.
type DepositExceedsCapError struct {
	Attempted    *uint256.Int
	CurrentTotal *uint256.Int
	CurrentCap   *uint256.Int
}

func (e *DepositExceedsCapError) Error() string {
	return fmt.Sprintf("%s: attempted=%s total=%s cap=%s",
		ErrDepositExceedsCap.Error(),
		e.Attempted.Dec(),
		e.CurrentTotal.Dec(),
		e.CurrentCap.Dec(),
	)
}

// Is makes errors.Is(err, ErrDepositExceedsCap) match.
func (e *DepositExceedsCapError) Is(target error) bool {
	return target == ErrDepositExceedsCap
}

// PendingTransferError reports a transaction that was broadcast but whose
// receipt was not seen in time. It may still be mined.
type PendingTransferError struct {
	TxHash common.Hash
	Err    error
}

func (e *PendingTransferError) Error() string {
	return fmt.Sprintf("%s: tx %s: %v", ErrTransferPending.Error(), e.TxHash.Hex(), e.Err)
}

// Is makes errors.Is(err, ErrTransferPending) match.
func (e *PendingTransferError) Is(target error) bool {
	return target == ErrTransferPending
}

func (e *PendingTransferError) Unwrap() error {
	return e.Err
}

// PendingTxHash returns the hash carried by a PendingTransferError in err's chain.
func PendingTxHash(err error) (common.Hash, bool) {
	var pending *PendingTransferError
	if errors.As(err, &pending) {
		return pending.TxHash, true
	}
	return common.Hash{}, false
}
