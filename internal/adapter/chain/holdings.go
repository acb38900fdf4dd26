package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// Reader serves balance and token metadata queries.
// It implements usecase.HoldingsReader and usecase.TokenMetadataReader.
type Reader struct {
	backend Backend
}

// NewReader creates a new Reader.
func NewReader(backend Backend) *Reader {
	return &Reader{backend: backend}
}

// NativeBalance returns the native balance of holder at the latest block.
func (r *Reader) NativeBalance(ctx context.Context, holder domain.Account) (*uint256.Int, error) {
	balance, err := r.backend.BalanceAt(ctx, holder, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", holder.Hex(), err)
	}
	return toUint256(balance)
}

// TokenBalance returns holder's balance of token.
func (r *Reader) TokenBalance(ctx context.Context, token domain.AssetID, holder domain.Account) (*uint256.Int, error) {
	out, err := call(ctx, r.backend, common.Address{}, token, erc20ABI, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected type %T", out[0])
	}
	return toUint256(balance)
}

// TokenMetadata reads symbol and decimals from the token contract.
func (r *Reader) TokenMetadata(ctx context.Context, token domain.AssetID) (*domain.TokenMetadata, error) {
	symbolOut, err := call(ctx, r.backend, common.Address{}, token, erc20ABI, "symbol")
	if err != nil {
		return nil, err
	}
	decimalsOut, err := call(ctx, r.backend, common.Address{}, token, erc20ABI, "decimals")
	if err != nil {
		return nil, err
	}

	symbol, _ := symbolOut[0].(string)
	decimals, ok := decimalsOut[0].(uint8)
	if !ok {
		return nil, fmt.Errorf("decimals: unexpected type %T", decimalsOut[0])
	}

	return &domain.TokenMetadata{Asset: token, Symbol: symbol, Decimals: decimals}, nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative balance %s", v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("balance %s exceeds 256 bits", v)
	}
	return out, nil
}
