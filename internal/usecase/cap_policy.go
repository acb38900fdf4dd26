package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// PriceReader is satisfied by PriceOracleGateway.
type PriceReader interface {
	ReadPrice(ctx context.Context) (domain.PriceReading, error)
}

// CapPolicy derives the native deposit ceiling from a fixed USD cap.
// The price is read on every call and never cached.
type CapPolicy struct {
	prices PriceReader
	usdCap *uint256.Int

	holdings HoldingsReader
	custody  domain.Account
}

// NewCapPolicy creates a policy for usdCap, expressed with domain.USDDecimals.
func NewCapPolicy(prices PriceReader, usdCap *uint256.Int) *CapPolicy {
	return &CapPolicy{
		prices: prices,
		usdCap: new(uint256.Int).Set(usdCap),
	}
}

// WithTreasury makes the policy measure the native total as the larger of the
// credited total and what custody actually holds, so un-credited value sent
// straight to custody counts against the cap.
func (p *CapPolicy) WithTreasury(holdings HoldingsReader, custody domain.Account) *CapPolicy {
	p.holdings = holdings
	p.custody = custody
	return p
}

// USDCap returns the configured ceiling.
func (p *CapPolicy) USDCap() *uint256.Int {
	return new(uint256.Int).Set(p.usdCap)
}

// CurrentCap computes the native ceiling from a fresh price.
func (p *CapPolicy) CurrentCap(ctx context.Context) (domain.CapSnapshot, error) {
	reading, err := p.prices.ReadPrice(ctx)
	if err != nil {
		return domain.CapSnapshot{}, err
	}

	nativeCap, err := domain.ToNativeUnits(p.usdCap, domain.USDDecimals, reading.Price, reading.Decimals, domain.NativeDecimals)
	if err != nil {
		return domain.CapSnapshot{}, fmt.Errorf("%w: %w", domain.ErrCalculationFailed, err)
	}

	return domain.CapSnapshot{
		USDCap:     p.USDCap(),
		Price:      reading,
		NativeCap:  nativeCap,
		ComputedAt: time.Now().UTC(),
	}, nil
}

// CheckDeposit admits prospective iff currentTotal+prospective <= cap.
// creditedTotal is the native value credited to users.
func (p *CapPolicy) CheckDeposit(ctx context.Context, prospective, creditedTotal *uint256.Int) (domain.CapSnapshot, error) {
	snapshot, err := p.CurrentCap(ctx)
	if err != nil {
		return domain.CapSnapshot{}, err
	}

	currentTotal, err := p.treasuryTotal(ctx, prospective, creditedTotal)
	if err != nil {
		return snapshot, err
	}

	if !snapshot.Admits(currentTotal, prospective) {
		return snapshot, &domain.DepositExceedsCapError{
			Attempted:    new(uint256.Int).Set(prospective),
			CurrentTotal: new(uint256.Int).Set(currentTotal),
			CurrentCap:   new(uint256.Int).Set(snapshot.NativeCap),
		}
	}

	return snapshot, nil
}

// treasuryTotal returns the native value held for the bank before this deposit.
// The deposit under check has already reached custody, so it is taken off
// the holdings reading.
func (p *CapPolicy) treasuryTotal(ctx context.Context, prospective, creditedTotal *uint256.Int) (*uint256.Int, error) {
	if p.holdings == nil {
		return creditedTotal, nil
	}

	held, err := p.holdings.NativeBalance(ctx, p.custody)
	if err != nil {
		return nil, fmt.Errorf("%w: custody balance: %w", domain.ErrCalculationFailed, err)
	}

	prior, underflow := new(uint256.Int).SubOverflow(held, prospective)
	if underflow || prior.Lt(creditedTotal) {
		return creditedTotal, nil
	}
	return prior, nil
}
