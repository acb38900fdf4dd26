package handler

import (
	"context"
	"net/http"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// BankService is the mutating surface of the ledger.
type BankService interface {
	DepositNative(ctx context.Context, input usecase.DepositNativeInput) (*domain.DepositCompleted, error)
	DepositToken(ctx context.Context, input usecase.DepositTokenInput) (*domain.DepositCompleted, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.WithdrawalCompleted, error)
	AdminSweep(ctx context.Context, input usecase.SweepInput) (*domain.Swept, error)
	SetWithdrawalCap(ctx context.Context, input usecase.SetWithdrawalCapInput) (*domain.WithdrawalCapUpdated, error)
}

// BankHandler handles deposits, withdrawals and owner operations.
type BankHandler struct {
	bank BankService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bank BankService) *BankHandler {
	return &BankHandler{bank: bank}
}

// DepositNative credits native value sent with the request.
func (h *BankHandler) DepositNative(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.DepositNativeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := req.ParseAmount()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txHash, err := req.ParseTxHash()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	completed, err := h.bank.DepositNative(r.Context(), usecase.DepositNativeInput{Caller: account, Amount: amount, TxHash: txHash})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositFromDomain(completed))
}

// DepositToken pulls tokens from the caller into custody and credits them.
func (h *BankHandler) DepositToken(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.AssetAmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, amount, err := req.Parse()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	completed, err := h.bank.DepositToken(r.Context(), usecase.DepositTokenInput{Caller: account, Asset: asset, Amount: amount})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositFromDomain(completed))
}

// Withdraw debits the caller and sends the value out.
func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.AssetAmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, amount, err := req.Parse()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	completed, err := h.bank.Withdraw(r.Context(), usecase.WithdrawInput{Caller: account, Asset: asset, Amount: amount})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromDomain(completed))
}

// Sweep sends raw token holdings to the owner.
func (h *BankHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.AssetAmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, amount, err := req.Parse()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	swept, err := h.bank.AdminSweep(r.Context(), usecase.SweepInput{Caller: account, Asset: asset, Amount: amount})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepFromDomain(swept))
}

// SetWithdrawalCap replaces the per-operation withdrawal cap.
func (h *BankHandler) SetWithdrawalCap(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.SetWithdrawalCapRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	capValue, err := req.ParseCap()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.bank.SetWithdrawalCap(r.Context(), usecase.SetWithdrawalCapInput{Caller: account, Cap: capValue})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalCapFromDomain(updated))
}
