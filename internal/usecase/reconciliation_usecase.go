package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// ReconciliationUseCase compares recorded balances with custody holdings.
type ReconciliationUseCase struct {
	balanceRepo BalanceRepository
	stateRepo   BankStateRepository
	holdings    HoldingsReader
	custody     domain.Account
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	balanceRepo BalanceRepository,
	stateRepo BankStateRepository,
	holdings HoldingsReader,
	custody domain.Account,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		balanceRepo: balanceRepo,
		stateRepo:   stateRepo,
		holdings:    holdings,
		custody:     custody,
	}
}

// ReconciliationResult is the comparison for one asset.
// Surplus is value held but not credited to anyone; a deficit means the
// ledger owes more than custody holds.
type ReconciliationResult struct {
	Asset        domain.AssetID
	Recorded     *uint256.Int
	Held         *uint256.Int
	Surplus      *uint256.Int
	Deficit      *uint256.Int
	IsReconciled bool
	LastChecked  time.Time
}

// ReconcileAsset compares the sum of ledger entries for asset with custody holdings.
func (uc *ReconciliationUseCase) ReconcileAsset(ctx context.Context, asset domain.AssetID) (*ReconciliationResult, error) {
	sums, err := uc.balanceRepo.SumByAsset(ctx)
	if err != nil {
		return nil, err
	}

	recorded, ok := sums[asset]
	if !ok {
		recorded = new(uint256.Int)
	}

	return uc.compare(ctx, asset, recorded)
}

func (uc *ReconciliationUseCase) compare(ctx context.Context, asset domain.AssetID, recorded *uint256.Int) (*ReconciliationResult, error) {
	var (
		held *uint256.Int
		err  error
	)
	if domain.IsNative(asset) {
		held, err = uc.holdings.NativeBalance(ctx, uc.custody)
	} else {
		held, err = uc.holdings.TokenBalance(ctx, asset, uc.custody)
	}
	if err != nil {
		return nil, fmt.Errorf("read holdings of %s: %w", domain.AssetString(asset), err)
	}

	result := &ReconciliationResult{
		Asset:       asset,
		Recorded:    recorded,
		Held:        held,
		Surplus:     new(uint256.Int),
		Deficit:     new(uint256.Int),
		LastChecked: time.Now().UTC(),
	}

	if held.Lt(recorded) {
		result.Deficit.Sub(recorded, held)
	} else {
		result.Surplus.Sub(held, recorded)
		result.IsReconciled = true
	}

	return result, nil
}

// CheckLedgerConsistency verifies that the native counter equals the sum of native entries.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	state, err := uc.stateRepo.Get(ctx)
	if err != nil {
		return err
	}

	sums, err := uc.balanceRepo.SumByAsset(ctx)
	if err != nil {
		return err
	}

	native, ok := sums[domain.NativeAsset]
	if !ok {
		native = new(uint256.Int)
	}

	if !native.Eq(state.NativeTotal) {
		return fmt.Errorf(
			"ledger inconsistency detected: native entries=%s native total=%s",
			native.Dec(),
			state.NativeTotal.Dec(),
		)
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	Results          []*ReconciliationResult
	ReconciledAssets int
	Discrepancies    []*ReconciliationResult
	LedgerConsistent bool
	CheckedAt        time.Time
}

// GenerateReconciliationReport reconciles the native asset and every token with entries.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	sums, err := uc.balanceRepo.SumByAsset(ctx)
	if err != nil {
		return nil, err
	}

	if _, ok := sums[domain.NativeAsset]; !ok {
		sums[domain.NativeAsset] = new(uint256.Int)
	}

	assets := make([]domain.AssetID, 0, len(sums))
	for asset := range sums {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Cmp(assets[j]) < 0 })

	report := &ReconciliationReport{
		Results:       make([]*ReconciliationResult, 0, len(assets)),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, asset := range assets {
		result, err := uc.compare(ctx, asset, sums[asset])
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile asset %s: %w", domain.AssetString(asset), err)
		}

		report.Results = append(report.Results, result)
		if result.IsReconciled {
			report.ReconciledAssets++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	report.LedgerConsistent = uc.CheckLedgerConsistency(ctx) == nil

	return report, nil
}
