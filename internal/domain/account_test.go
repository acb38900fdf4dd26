package domain

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestPosition_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     uint64
		debitAmount uint64
		expectError bool
	}{
		{name: "debit more than balance", balance: 100, debitAmount: 150, expectError: true},
		{name: "debit exact balance", balance: 100, debitAmount: 100},
		{name: "debit less than balance", balance: 100, debitAmount: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{Balance: uint256.NewInt(tt.balance)}
			err := p.ValidateDebit(uint256.NewInt(tt.debitAmount))
			if tt.expectError {
				if !errors.Is(err, ErrInsufficientBalance) {
					t.Fatalf("expected ErrInsufficientBalance, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := p.ApplyDebit(uint256.NewInt(tt.debitAmount)); got.Uint64() != tt.balance-tt.debitAmount {
				t.Fatalf("expected %d, got %s", tt.balance-tt.debitAmount, got.Dec())
			}
		})
	}
}

func TestPosition_ApplyCredit(t *testing.T) {
	p := NewPosition(LedgerKey{})
	got, err := p.ApplyCredit(uint256.NewInt(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 42 {
		t.Fatalf("expected 42, got %s", got.Dec())
	}
	if !p.Balance.IsZero() {
		t.Fatalf("ApplyCredit must not mutate the position")
	}

	p.Balance = new(uint256.Int).SetAllOne()
	if _, err := p.ApplyCredit(uint256.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestParseAsset(t *testing.T) {
	asset, err := ParseAsset("native")
	if err != nil || !IsNative(asset) {
		t.Fatalf("expected native asset, got %v err=%v", asset, err)
	}

	asset, err = ParseAsset("0x0000000000000000000000000000000000000000")
	if err != nil || !IsNative(asset) {
		t.Fatalf("expected zero address to be native, got %v err=%v", asset, err)
	}

	token := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	asset, err = ParseAsset(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset != common.HexToAddress(token) || IsNative(asset) {
		t.Fatalf("unexpected asset %s", asset.Hex())
	}

	if _, err := ParseAsset("not-an-address"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestLedgerKeyString(t *testing.T) {
	key := LedgerKey{Account: common.HexToAddress("0x01"), Asset: NativeAsset}
	if got := key.String(); got != "0x0000000000000000000000000000000000000001/native" {
		t.Fatalf("unexpected key string %q", got)
	}
}
