package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

const maxBodyBytes = 1 << 16

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. Internal errors are not echoed.
func writeDomainError(w http.ResponseWriter, err error) {
	status := mapDomainError(err)

	resp := dto.ErrorResponse{
		Error:   usecase.ErrorKind(err),
		Message: err.Error(),
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}

	var capErr *domain.DepositExceedsCapError
	if errors.As(err, &capErr) {
		resp.Details = map[string]string{
			"attempted":     capErr.Attempted.Dec(),
			"current_total": capErr.CurrentTotal.Dec(),
			"current_cap":   capErr.CurrentCap.Dec(),
		}
	}

	writeJSON(w, status, resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrInvalidTokenFunction),
		errors.Is(err, domain.ErrInvalidAmountFormat),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidTxHash):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrDepositExceedsCap),
		errors.Is(err, domain.ErrExceedsWithdrawalCap),
		errors.Is(err, domain.ErrArithmeticOverflow),
		errors.Is(err, domain.ErrDepositUnproven):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrReentrantCall), errors.Is(err, domain.ErrDepositAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrStateNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// caller returns the authenticated account or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no authenticated caller")
		return domain.Account{}, false
	}
	return p.Account, true
}

// accountParam parses the {account} path parameter.
func accountParam(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account", err.Error())
		return domain.Account{}, false
	}
	return account, true
}

// assetParam parses the {asset} path parameter.
func assetParam(w http.ResponseWriter, r *http.Request) (domain.AssetID, bool) {
	asset, err := domain.ParseAsset(chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset", err.Error())
		return domain.AssetID{}, false
	}
	return asset, true
}
