package dto

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// MovementResponse describes a completed deposit or withdrawal.
type MovementResponse struct {
	Account    string    `json:"account"`
	Asset      string    `json:"asset"`
	Amount     string    `json:"amount"`
	NewBalance string    `json:"new_balance"`
	TxHash     string    `json:"tx_hash,omitempty"`
	PendingTx  string    `json:"pending_tx,omitempty"`
	At         time.Time `json:"at"`
}

func hashOrEmpty(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}

// DepositFromDomain converts a deposit event to a response.
func DepositFromDomain(e *domain.DepositCompleted) *MovementResponse {
	return &MovementResponse{
		Account:    e.Account.Hex(),
		Asset:      domain.AssetString(e.Asset),
		Amount:     e.Amount.Dec(),
		NewBalance: e.NewBalance.Dec(),
		TxHash:     hashOrEmpty(e.TxHash),
		At:         e.At,
	}
}

// WithdrawalFromDomain converts a withdrawal event to a response.
func WithdrawalFromDomain(e *domain.WithdrawalCompleted) *MovementResponse {
	return &MovementResponse{
		Account:    e.Account.Hex(),
		Asset:      domain.AssetString(e.Asset),
		Amount:     e.Amount.Dec(),
		NewBalance: e.NewBalance.Dec(),
		PendingTx:  hashOrEmpty(e.PendingTx),
		At:         e.At,
	}
}

// SweepResponse describes an owner sweep.
type SweepResponse struct {
	Asset     string    `json:"asset"`
	To        string    `json:"to"`
	Amount    string    `json:"amount"`
	PendingTx string    `json:"pending_tx,omitempty"`
	At        time.Time `json:"at"`
}

// SweepFromDomain converts a sweep event to a response.
func SweepFromDomain(e *domain.Swept) *SweepResponse {
	return &SweepResponse{
		Asset:     domain.AssetString(e.Asset),
		To:        e.To.Hex(),
		Amount:    e.Amount.Dec(),
		PendingTx: hashOrEmpty(e.PendingTx),
		At:        e.At,
	}
}

// WithdrawalCapResponse describes a withdrawal cap change.
type WithdrawalCapResponse struct {
	PreviousCap string    `json:"previous_cap"`
	NewCap      string    `json:"new_cap"`
	At          time.Time `json:"at"`
}

// WithdrawalCapFromDomain converts a cap update event to a response.
func WithdrawalCapFromDomain(e *domain.WithdrawalCapUpdated) *WithdrawalCapResponse {
	return &WithdrawalCapResponse{
		PreviousCap: e.PreviousCap.Dec(),
		NewCap:      e.NewCap.Dec(),
		At:          e.At,
	}
}

// BalanceResponse is one ledger entry. Formatted is set when decimals are known.
type BalanceResponse struct {
	Account   string `json:"account"`
	Asset     string `json:"asset"`
	Balance   string `json:"balance"`
	Symbol    string `json:"symbol,omitempty"`
	Decimals  *uint8 `json:"decimals,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// BalanceFromDomain converts an asset balance to a response.
func BalanceFromDomain(b *domain.AssetBalance) *BalanceResponse {
	resp := &BalanceResponse{
		Account: b.Account.Hex(),
		Asset:   domain.AssetString(b.Asset),
		Balance: b.Balance.Dec(),
		Symbol:  b.Symbol,
	}
	if b.Symbol != "" {
		decimals := b.Decimals
		resp.Decimals = &decimals
		resp.Formatted = domain.FormatUnits(b.Balance, b.Decimals)
	}
	return resp
}

// BalancesFromDomain converts asset balances to responses.
func BalancesFromDomain(balances []*domain.AssetBalance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// CapResponse is the live native deposit cap.
type CapResponse struct {
	USDCap          string    `json:"usd_cap"`
	Price           string    `json:"price"`
	PriceDecimals   uint8     `json:"price_decimals"`
	PriceUpdatedAt  time.Time `json:"price_updated_at"`
	NativeCap       string    `json:"native_cap"`
	NativeTotal     string    `json:"native_total"`
	RemainingNative string    `json:"remaining_native"`
	ComputedAt      time.Time `json:"computed_at"`
}

// CapFromDomain converts a cap snapshot and the current native total to a response.
func CapFromDomain(s domain.CapSnapshot, state *domain.BankState) *CapResponse {
	return &CapResponse{
		USDCap:          s.USDCap.Dec(),
		Price:           decimal.NewFromBigInt(s.Price.Price, -int32(s.Price.Decimals)).String(),
		PriceDecimals:   s.Price.Decimals,
		PriceUpdatedAt:  s.Price.UpdatedAt,
		NativeCap:       s.NativeCap.Dec(),
		NativeTotal:     state.NativeTotal.Dec(),
		RemainingNative: s.Remaining(state.NativeTotal).Dec(),
		ComputedAt:      s.ComputedAt,
	}
}

// TotalsResponse is the aggregate bank state.
type TotalsResponse struct {
	WithdrawalCap    string    `json:"withdrawal_cap"`
	TotalDeposits    uint64    `json:"total_deposits"`
	TotalWithdrawals uint64    `json:"total_withdrawals"`
	NativeTotal      string    `json:"native_total"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TotalsFromDomain converts the bank state to a response.
func TotalsFromDomain(s *domain.BankState) *TotalsResponse {
	return &TotalsResponse{
		WithdrawalCap:    s.WithdrawalCap.Dec(),
		TotalDeposits:    s.TotalDeposits,
		TotalWithdrawals: s.TotalWithdrawals,
		NativeTotal:      s.NativeTotal.Dec(),
		UpdatedAt:        s.UpdatedAt,
	}
}

// ReconciliationResultResponse is the comparison for one asset.
type ReconciliationResultResponse struct {
	Asset        string `json:"asset"`
	Recorded     string `json:"recorded"`
	Held         string `json:"held"`
	Surplus      string `json:"surplus"`
	Deficit      string `json:"deficit"`
	IsReconciled bool   `json:"is_reconciled"`
}

// ReconciliationResponse is a full reconciliation report.
type ReconciliationResponse struct {
	Results          []*ReconciliationResultResponse `json:"results"`
	ReconciledAssets int                             `json:"reconciled_assets"`
	Discrepancies    int                             `json:"discrepancies"`
	LedgerConsistent bool                            `json:"ledger_consistent"`
	CheckedAt        time.Time                       `json:"checked_at"`
}

// ReconciliationFromDomain converts a report to a response.
func ReconciliationFromDomain(r *usecase.ReconciliationReport) *ReconciliationResponse {
	results := make([]*ReconciliationResultResponse, len(r.Results))
	for i, res := range r.Results {
		results[i] = &ReconciliationResultResponse{
			Asset:        domain.AssetString(res.Asset),
			Recorded:     res.Recorded.Dec(),
			Held:         res.Held.Dec(),
			Surplus:      res.Surplus.Dec(),
			Deficit:      res.Deficit.Dec(),
			IsReconciled: res.IsReconciled,
		}
	}

	return &ReconciliationResponse{
		Results:          results,
		ReconciledAssets: r.ReconciledAssets,
		Discrepancies:    len(r.Discrepancies),
		LedgerConsistent: r.LedgerConsistent,
		CheckedAt:        r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
