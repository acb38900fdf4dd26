package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// TransferGateway performs every externally observable value movement.
type TransferGateway struct {
	tokens  TokenTransferer
	native  NativeSender
	custody domain.Account
}

// NewTransferGateway creates a gateway moving value in and out of custody.
func NewTransferGateway(tokens TokenTransferer, native NativeSender, custody domain.Account) *TransferGateway {
	return &TransferGateway{
		tokens:  tokens,
		native:  native,
		custody: custody,
	}
}

// Custody returns the address holding pooled funds.
func (g *TransferGateway) Custody() domain.Account {
	return g.custody
}

// PullIn moves amount from the depositor into custody. Native value has
// already arrived with the call, so the native path does nothing.
// A pull whose receipt was not seen is a failure: nothing is credited.
func (g *TransferGateway) PullIn(ctx context.Context, asset domain.AssetID, from domain.Account, amount *uint256.Int) error {
	if domain.IsNative(asset) {
		return nil
	}

	ok, err := g.tokens.TransferFrom(ctx, asset, from, g.custody, amount)
	return transferResult("transferFrom", asset, ok, err)
}

// PushOut moves amount from custody to the recipient. A payout that was
// broadcast without a receipt returns an error matching domain.ErrTransferPending
// and not domain.ErrTransferFailed.
func (g *TransferGateway) PushOut(ctx context.Context, asset domain.AssetID, to domain.Account, amount *uint256.Int) error {
	op := "transfer"
	var (
		ok  bool
		err error
	)
	if domain.IsNative(asset) {
		op = "send"
		ok, err = g.native.Send(ctx, to, amount)
	} else {
		ok, err = g.tokens.Transfer(ctx, asset, to, amount)
	}

	if errors.Is(err, domain.ErrTransferPending) {
		return fmt.Errorf("%s %s: %w", op, domain.AssetString(asset), err)
	}
	return transferResult(op, asset, ok, err)
}

func transferResult(op string, asset domain.AssetID, ok bool, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTransferFailed, op, domain.AssetString(asset), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s returned false", domain.ErrTransferFailed, op, domain.AssetString(asset))
	}
	return nil
}
