package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"zero amount", domain.ErrZeroAmount, http.StatusBadRequest},
		{"native via token function", domain.ErrInvalidTokenFunction, http.StatusBadRequest},
		{"bad address", fmt.Errorf("asset: %w", domain.ErrInvalidAddress), http.StatusBadRequest},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"deposit exceeds cap", &domain.DepositExceedsCapError{}, http.StatusUnprocessableEntity},
		{"withdrawal cap", domain.ErrExceedsWithdrawalCap, http.StatusUnprocessableEntity},
		{"not owner", domain.ErrUnauthorized, http.StatusForbidden},
		{"reentrant", domain.ErrReentrantCall, http.StatusConflict},
		{"bad tx hash", domain.ErrInvalidTxHash, http.StatusBadRequest},
		{"unproven deposit", fmt.Errorf("tx 0x01: %w", domain.ErrDepositUnproven), http.StatusUnprocessableEntity},
		{"claimed deposit", domain.ErrDepositAlreadyClaimed, http.StatusConflict},
		{"transfer failed", fmt.Errorf("send: %w", domain.ErrTransferFailed), http.StatusBadGateway},
		{"oracle down", domain.ErrInvalidPrice, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainError_CapDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &domain.DepositExceedsCapError{
		Attempted:    uint256.NewInt(2),
		CurrentTotal: uint256.NewInt(4999),
		CurrentCap:   uint256.NewInt(5000),
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "deposit_exceeds_cap" {
		t.Fatalf("expected error kind deposit_exceeds_cap, got %q", resp.Error)
	}
	if resp.Details["attempted"] != "2" || resp.Details["current_total"] != "4999" || resp.Details["current_cap"] != "5000" {
		t.Fatalf("unexpected details %v", resp.Details)
	}
}

func TestWriteDomainError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, errors.New("pq: connection refused to 10.0.0.3"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "internal error" {
		t.Fatalf("expected internal message to be hidden, got %q", resp.Message)
	}
}

func TestWriteJSONSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusAccepted, map[string]string{"ok": "true"})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %s", ct)
	}
}
