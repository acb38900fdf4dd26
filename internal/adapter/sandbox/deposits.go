package sandbox

import (
	"context"
	"fmt"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// ValueCarrier moves native value into custody alongside a native deposit,
// the way a payable call carries it, and returns it when the deposit is rejected.
type ValueCarrier struct {
	*usecase.BankUseCase
	book *Book
}

// NewValueCarrier wraps bank for sandbox mode.
func NewValueCarrier(bank *usecase.BankUseCase, book *Book) *ValueCarrier {
	return &ValueCarrier{BankUseCase: bank, book: book}
}

// DepositNative carries the value in, then records the deposit.
func (v *ValueCarrier) DepositNative(ctx context.Context, input usecase.DepositNativeInput) (*domain.DepositCompleted, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return v.BankUseCase.DepositNative(ctx, input)
	}

	if err := v.book.Receive(input.Caller, input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	completed, err := v.BankUseCase.DepositNative(ctx, input)
	if err != nil {
		v.book.Refund(input.Caller, input.Amount)
		return nil, err
	}

	return completed, nil
}
