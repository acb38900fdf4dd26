package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// DepositVerifier proves native deposits from mined transactions.
// It implements usecase.NativeDepositVerifier.
type DepositVerifier struct {
	backend Backend
	signer  types.Signer
}

// NewDepositVerifier creates a verifier for transactions signed on chainID.
func NewDepositVerifier(backend Backend, chainID *big.Int) *DepositVerifier {
	return &DepositVerifier{
		backend: backend,
		signer:  types.LatestSignerForChainID(chainID),
	}
}

// VerifyNativeDeposit accepts txHash only if it is a mined, successful plain
// transfer of exactly amount from from to custody.
func (v *DepositVerifier) VerifyNativeDeposit(ctx context.Context, txHash common.Hash, from, custody domain.Account, amount *uint256.Int) error {
	tx, pending, err := v.backend.TransactionByHash(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return unproven(txHash, "not found")
	}
	if err != nil {
		return fmt.Errorf("fetch tx %s: %w", txHash.Hex(), err)
	}
	if pending {
		return unproven(txHash, "not mined yet")
	}

	receipt, err := v.backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return unproven(txHash, "no receipt")
	}
	if err != nil {
		return fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return unproven(txHash, "reverted")
	}

	if tx.To() == nil || *tx.To() != custody {
		return unproven(txHash, "not sent to custody")
	}

	sender, err := types.Sender(v.signer, tx)
	if err != nil {
		return unproven(txHash, "unrecoverable sender: "+err.Error())
	}
	if sender != from {
		return unproven(txHash, "sent by "+sender.Hex())
	}

	value, overflow := uint256.FromBig(tx.Value())
	if overflow || !value.Eq(amount) {
		return unproven(txHash, fmt.Sprintf("value %s, claimed %s", tx.Value(), amount.Dec()))
	}

	return nil
}

func unproven(txHash common.Hash, reason string) error {
	return fmt.Errorf("%w: tx %s %s", domain.ErrDepositUnproven, txHash.Hex(), reason)
}
