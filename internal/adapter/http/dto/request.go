package dto

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// DepositNativeRequest is the body of a native deposit. Amount is in base units.
// TxHash names the on-chain transfer that carried the value into custody.
type DepositNativeRequest struct {
	Amount string `json:"amount"`
	TxHash string `json:"tx_hash,omitempty"`
}

// ParseAmount returns the requested amount.
func (r *DepositNativeRequest) ParseAmount() (*uint256.Int, error) {
	return domain.ParseAmount(r.Amount)
}

// ParseTxHash returns the transfer hash, or the zero hash when none was sent.
func (r *DepositNativeRequest) ParseTxHash() (common.Hash, error) {
	if r.TxHash == "" {
		return common.Hash{}, nil
	}
	return domain.ParseTxHash(r.TxHash)
}

// AssetAmountRequest is the body of token deposits, withdrawals and sweeps.
type AssetAmountRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// Parse returns the requested asset and amount.
func (r *AssetAmountRequest) Parse() (domain.AssetID, *uint256.Int, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return domain.AssetID{}, nil, fmt.Errorf("asset: %w", err)
	}

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return domain.AssetID{}, nil, fmt.Errorf("amount: %w", err)
	}

	return asset, amount, nil
}

// SetWithdrawalCapRequest is the body of a withdrawal cap change.
type SetWithdrawalCapRequest struct {
	Cap string `json:"cap"`
}

// ParseCap returns the requested cap.
func (r *SetWithdrawalCapRequest) ParseCap() (*uint256.Int, error) {
	return domain.ParseAmount(r.Cap)
}
