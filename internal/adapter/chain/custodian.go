package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/iho/vaultledger/internal/domain"
)

const (
	// DefaultReceiptTimeout bounds how long a transfer waits to be mined.
	DefaultReceiptTimeout = 2 * time.Minute

	// DefaultCommitReserve is the part of the caller's deadline left unused by
	// the receipt wait, so the ledger can still commit a pending payout.
	DefaultCommitReserve = 5 * time.Second
)

// Custodian signs transfers out of the custody key. It implements
// usecase.TokenTransferer and usecase.NativeSender.
//
// Only a mined receipt with failed status is a failed transfer once the
// transaction has been broadcast. Any other way of not seeing the receipt
// returns a *domain.PendingTransferError carrying the hash.
type Custodian struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	address        common.Address
	signer         types.Signer
	receiptTimeout time.Duration
	commitReserve  time.Duration
	pollInterval   time.Duration
	logger         zerolog.Logger

	// mu keeps nonces in order.
	mu sync.Mutex
}

// NewCustodian creates a Custodian for key on chainID.
func NewCustodian(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, logger zerolog.Logger) *Custodian {
	return &Custodian{
		backend:        backend,
		key:            key,
		address:        crypto.PubkeyToAddress(key.PublicKey),
		signer:         types.LatestSignerForChainID(chainID),
		receiptTimeout: DefaultReceiptTimeout,
		commitReserve:  DefaultCommitReserve,
		pollInterval:   time.Second,
		logger:         logger.With().Str("component", "custodian").Logger(),
	}
}

// ParsePrivateKey decodes a hex private key with or without 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid custody private key: %w", err)
	}
	return key, nil
}

// Address returns the custody address.
func (c *Custodian) Address() common.Address {
	return c.address
}

// Transfer sends amount of token from custody to to.
func (c *Custodian) Transfer(ctx context.Context, token domain.AssetID, to domain.Account, amount *uint256.Int) (bool, error) {
	data, err := erc20ABI.Pack("transfer", to, amount.ToBig())
	if err != nil {
		return false, err
	}
	return c.tokenCall(ctx, token, "transfer", data)
}

// TransferFrom pulls amount of token from from to to using custody's allowance.
func (c *Custodian) TransferFrom(ctx context.Context, token domain.AssetID, from, to domain.Account, amount *uint256.Int) (bool, error) {
	data, err := erc20ABI.Pack("transferFrom", from, to, amount.ToBig())
	if err != nil {
		return false, err
	}
	return c.tokenCall(ctx, token, "transferFrom", data)
}

// Send transfers native value from custody to to.
func (c *Custodian) Send(ctx context.Context, to domain.Account, amount *uint256.Int) (bool, error) {
	return c.submit(ctx, to, amount.ToBig(), nil)
}

// tokenCall simulates the call first so a token returning false never costs
// gas, then submits it. Tokens that return no data count as success.
func (c *Custodian) tokenCall(ctx context.Context, token common.Address, method string, data []byte) (bool, error) {
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.address, To: &token, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("simulate %s: %w", method, err)
	}

	if len(out) > 0 {
		values, err := erc20ABI.Unpack(method, out)
		if err != nil {
			return false, fmt.Errorf("unpack %s: %w", method, err)
		}
		if ok, _ := values[0].(bool); !ok {
			return false, nil
		}
	}

	return c.submit(ctx, token, nil, data)
}

func (c *Custodian) submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value == nil {
		value = new(big.Int)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return false, fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return false, fmt.Errorf("gas price: %w", err)
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: c.address, To: &to, GasPrice: gasPrice, Value: value, Data: data})
	if err != nil {
		return false, fmt.Errorf("estimate gas: %w", err)
	}

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}), c.signer, c.key)
	if err != nil {
		return false, fmt.Errorf("sign: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return false, fmt.Errorf("send: %w", err)
	}

	receipt, err := c.waitMined(ctx, tx.Hash())
	if err != nil {
		c.logger.Warn().Err(err).Str("tx", tx.Hash().Hex()).Str("to", to.Hex()).Msg("transaction broadcast, receipt not seen")
		return false, &domain.PendingTransferError{TxHash: tx.Hash(), Err: err}
	}

	c.logger.Info().
		Str("tx", tx.Hash().Hex()).
		Str("to", to.Hex()).
		Uint64("status", receipt.Status).
		Uint64("gas_used", receipt.GasUsed).
		Msg("transaction mined")

	return receipt.Status == types.ReceiptStatusSuccessful, nil
}

func (c *Custodian) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	wait := c.receiptTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline) - c.commitReserve; left < wait {
			wait = left
		}
	}
	if wait <= 0 {
		return nil, fmt.Errorf("wait for %s: %w", hash.Hex(), context.DeadlineExceeded)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var receipt *types.Receipt
	poll := func() error {
		r, err := c.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return err
			}
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}

	if err := backoff.Retry(poll, backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval), ctx)); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", hash.Hex(), err)
	}

	return receipt, nil
}
