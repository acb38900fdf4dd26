package domain

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

// PriceReading is one answer of the price oracle.
type PriceReading struct {
	Price     *big.Int
	Decimals  uint8
	RoundID   *big.Int
	UpdatedAt time.Time
}

// CapSnapshot is the result of one cap computation. It is never persisted.
type CapSnapshot struct {
	USDCap     *uint256.Int
	Price      PriceReading
	NativeCap  *uint256.Int
	ComputedAt time.Time
}

// Remaining returns how much more native value fits under the cap given total.
func (s CapSnapshot) Remaining(total *uint256.Int) *uint256.Int {
	if total.Gt(s.NativeCap) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(s.NativeCap, total)
}

// Admits reports whether total+amount stays within the cap.
func (s CapSnapshot) Admits(total, amount *uint256.Int) bool {
	sum, overflow := new(uint256.Int).AddOverflow(total, amount)
	if overflow {
		return false
	}
	return !sum.Gt(s.NativeCap)
}

// BankState holds the aggregate counters and the configured withdrawal cap.
type BankState struct {
	WithdrawalCap    *uint256.Int
	TotalDeposits    uint64
	TotalWithdrawals uint64
	NativeTotal      *uint256.Int
	UpdatedAt        time.Time
}

// NewBankState returns zeroed counters with the given cap.
func NewBankState(withdrawalCap *uint256.Int) *BankState {
	return &BankState{
		WithdrawalCap: new(uint256.Int).Set(withdrawalCap),
		NativeTotal:   new(uint256.Int),
	}
}

// Clone returns a deep copy.
func (s *BankState) Clone() *BankState {
	c := *s
	c.WithdrawalCap = new(uint256.Int).Set(s.WithdrawalCap)
	c.NativeTotal = new(uint256.Int).Set(s.NativeTotal)
	return &c
}
