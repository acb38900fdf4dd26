package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend answers contract calls by method selector.
type fakeBackend struct {
	mu sync.Mutex

	// results maps contract+method to the packed return values.
	results  map[string][]byte
	balances map[common.Address]*big.Int

	sent           []*types.Transaction
	mined          map[common.Hash]*types.Transaction
	pending        map[common.Hash]bool
	receiptStatus  uint64
	pendingPolls   int
	callErr        error
	lastCall       ethereum.CallMsg
	receiptsPolled int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		results:       make(map[string][]byte),
		balances:      make(map[common.Address]*big.Int),
		mined:         make(map[common.Hash]*types.Transaction),
		pending:       make(map[common.Hash]bool),
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) respond(contract common.Address, contractABI abi.ABI, method string, values ...any) {
	packed, err := contractABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		panic(err)
	}
	b.results[contract.Hex()+string(contractABI.Methods[method].ID)] = packed
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCall = call
	if b.callErr != nil {
		return nil, b.callErr
	}
	out, ok := b.results[call.To.Hex()+string(call.Data[:4])]
	if !ok {
		return nil, fmt.Errorf("no result for selector %x", call.Data[:4])
	}
	return bytes.Clone(out), nil
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if v, ok := b.balances[account]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 60_000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiptsPolled++
	if b.receiptsPolled <= b.pendingPolls {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: b.receiptStatus, TxHash: txHash, GasUsed: 50_000}, nil
}

func (b *fakeBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tx, ok := b.mined[hash]; ok {
		return tx, b.pending[hash], nil
	}
	return nil, false, ethereum.NotFound
}
