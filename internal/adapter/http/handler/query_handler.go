package handler

import (
	"context"
	"net/http"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// BalanceService reads ledger entries.
type BalanceService interface {
	GetBalance(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error)
	ListBalances(ctx context.Context, account domain.Account) ([]*domain.AssetBalance, error)
}

// BankReader reads the cap and the aggregate state.
type BankReader interface {
	CurrentNativeCap(ctx context.Context) (domain.CapSnapshot, error)
	Totals(ctx context.Context) (*domain.BankState, error)
}

// Reconciler produces reconciliation reports.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// QueryHandler serves read-only endpoints.
type QueryHandler struct {
	balances   BalanceService
	bank       BankReader
	reconciler Reconciler
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(balances BalanceService, bank BankReader, reconciler Reconciler) *QueryHandler {
	return &QueryHandler{
		balances:   balances,
		bank:       bank,
		reconciler: reconciler,
	}
}

// GetBalance returns one entry. Missing entries read as zero.
func (h *QueryHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), account, asset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ListBalances returns every stored entry of an account.
func (h *QueryHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	balances, err := h.balances.ListBalances(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// Cap returns the live native deposit cap.
func (h *QueryHandler) Cap(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.bank.CurrentNativeCap(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	state, err := h.bank.Totals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CapFromDomain(snapshot, state))
}

// Totals returns the aggregate counters.
func (h *QueryHandler) Totals(w http.ResponseWriter, r *http.Request) {
	state, err := h.bank.Totals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalsFromDomain(state))
}

// Reconciliation compares the ledger with custody holdings.
func (h *QueryHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(report))
}
