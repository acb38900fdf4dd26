package usecase

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// WithdrawalPolicy enforces the per-operation cap and balance sufficiency.
// It never consults the oracle.
type WithdrawalPolicy struct{}

// NewWithdrawalPolicy creates a new WithdrawalPolicy.
func NewWithdrawalPolicy() *WithdrawalPolicy {
	return &WithdrawalPolicy{}
}

// Check validates amount against cap first, then against balance.
func (p *WithdrawalPolicy) Check(amount, balance, withdrawalCap *uint256.Int) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if amount.Gt(withdrawalCap) {
		return fmt.Errorf("%w: amount=%s cap=%s", domain.ErrExceedsWithdrawalCap, amount.Dec(), withdrawalCap.Dec())
	}

	if amount.Gt(balance) {
		return fmt.Errorf("%w: balance=%s amount=%s", domain.ErrInsufficientBalance, balance.Dec(), amount.Dec())
	}

	return nil
}
