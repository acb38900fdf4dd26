package sandbox

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/vaultledger/internal/adapter/repository/memory"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

var (
	custody = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	token   = common.HexToAddress("0x00000000000000000000000000000000000000e2")
)

func TestFixedPriceOracle(t *testing.T) {
	oracle := NewFixedPriceOracle(big.NewInt(2000_00000000), 8)

	first, err := oracle.LatestPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(8), first.Decimals)
	assert.Equal(t, 0, first.Price.Cmp(big.NewInt(2000_00000000)))

	oracle.SetPrice(big.NewInt(1500_00000000))
	second, _ := oracle.LatestPrice(context.Background())
	assert.Equal(t, 0, second.Price.Cmp(big.NewInt(1500_00000000)))
	assert.Equal(t, 1, second.RoundID.Cmp(first.RoundID))
}

func TestBook_Transfers(t *testing.T) {
	ctx := context.Background()
	book := NewBook(custody, uint256.NewInt(100))

	ok, err := book.TransferFrom(ctx, token, alice, custody, uint256.NewInt(60))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = book.TransferFrom(ctx, token, alice, custody, uint256.NewInt(41))
	assert.False(t, ok, "alice only has 40 left")

	ok, _ = book.Transfer(ctx, token, alice, uint256.NewInt(61))
	assert.False(t, ok, "custody only holds 60")

	ok, _ = book.Transfer(ctx, token, alice, uint256.NewInt(10))
	assert.True(t, ok)

	held, _ := book.TokenBalance(ctx, token, custody)
	assert.True(t, held.Eq(uint256.NewInt(50)))

	ok, _ = book.Send(ctx, alice, uint256.NewInt(1))
	assert.False(t, ok, "custody starts with no native value")
}

func TestBook_TokenMetadata(t *testing.T) {
	book := NewBook(custody, uint256.NewInt(0))
	book.RegisterToken(domain.TokenMetadata{Asset: token, Symbol: "USDC", Decimals: 6})

	meta, err := book.TokenMetadata(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "USDC", meta.Symbol)

	other, _ := book.TokenMetadata(context.Background(), common.HexToAddress("0x01"))
	assert.Equal(t, uint8(18), other.Decimals)
}

func TestValueCarrier_DepositNative(t *testing.T) {
	ctx := context.Background()
	opening := uint256.NewInt(10)
	book := NewBook(custody, opening)
	store := memory.NewStore(uint256.NewInt(5))
	balances := memory.NewBalanceRepository(store)

	bank := usecase.NewBankUseCase(usecase.BankConfig{
		TxManager:  store,
		StateRepo:  memory.NewBankStateRepository(store),
		Ledger:     usecase.NewLedgerStore(balances),
		OutboxRepo: memory.NewOutboxRepository(store),
		// 100 USD cap at 10 USD per whole unit: 10 * 10^18 base units.
		CapPolicy: usecase.NewCapPolicy(usecase.NewPriceOracleGateway(NewFixedPriceOracle(big.NewInt(10_00000000), 8), 0), uint256.NewInt(100_000000)),
		Transfers: usecase.NewTransferGateway(book, book, custody),
		Access:    usecase.NewOwnerGate(custody),
		IDGen:     idGen{},
	})
	carrier := NewValueCarrier(bank, book)

	_, err := carrier.DepositNative(ctx, usecase.DepositNativeInput{Caller: alice, Amount: uint256.NewInt(4)})
	require.NoError(t, err)

	held, _ := book.NativeBalance(ctx, custody)
	assert.True(t, held.Eq(uint256.NewInt(4)))

	// Wallet cannot cover the value.
	_, err = carrier.DepositNative(ctx, usecase.DepositNativeInput{Caller: alice, Amount: uint256.NewInt(7)})
	assert.True(t, errors.Is(err, domain.ErrTransferFailed))

	// Withdraw pays out of custody.
	_, err = carrier.Withdraw(ctx, usecase.WithdrawInput{Caller: alice, Asset: domain.NativeAsset, Amount: uint256.NewInt(4)})
	require.NoError(t, err)
	wallet, _ := book.NativeBalance(ctx, alice)
	assert.True(t, wallet.Eq(opening))
}

func TestValueCarrier_CapCountsCustodySurplus(t *testing.T) {
	ctx := context.Background()
	book := NewBook(custody, uint256.NewInt(10))
	store := memory.NewStore(uint256.NewInt(5))

	// 100 USD cap at 10 USD per whole unit: 10 * 10^18 base units.
	nativeCap := new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(1_000_000_000_000_000_000))
	surplus := new(uint256.Int).Sub(nativeCap, uint256.NewInt(2))
	book.Fund(custody, domain.NativeAsset, surplus)

	bank := usecase.NewBankUseCase(usecase.BankConfig{
		TxManager:  store,
		StateRepo:  memory.NewBankStateRepository(store),
		Ledger:     usecase.NewLedgerStore(memory.NewBalanceRepository(store)),
		OutboxRepo: memory.NewOutboxRepository(store),
		CapPolicy: usecase.NewCapPolicy(usecase.NewPriceOracleGateway(NewFixedPriceOracle(big.NewInt(10_00000000), 8), 0), uint256.NewInt(100_000000)).
			WithTreasury(book, custody),
		Transfers: usecase.NewTransferGateway(book, book, custody),
		Access:    usecase.NewOwnerGate(custody),
		IDGen:     idGen{},
	})
	carrier := NewValueCarrier(bank, book)

	// Nothing is credited, but custody already holds all but 2 units of the cap.
	_, err := carrier.DepositNative(ctx, usecase.DepositNativeInput{Caller: alice, Amount: uint256.NewInt(4)})
	var capErr *domain.DepositExceedsCapError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, capErr.CurrentTotal.Eq(surplus))

	held, _ := book.NativeBalance(ctx, custody)
	assert.True(t, held.Eq(surplus), "rejected value must be refunded")

	_, err = carrier.DepositNative(ctx, usecase.DepositNativeInput{Caller: alice, Amount: uint256.NewInt(2)})
	require.NoError(t, err)
}

type idGen struct{}

func (idGen) Generate() string { return "id" }
