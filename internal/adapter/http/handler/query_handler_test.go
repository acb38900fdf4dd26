package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

type balanceServiceStub struct {
	getFn  func(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error)
	listFn func(ctx context.Context, account domain.Account) ([]*domain.AssetBalance, error)
}

func (s *balanceServiceStub) GetBalance(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error) {
	return s.getFn(ctx, account, asset)
}

func (s *balanceServiceStub) ListBalances(ctx context.Context, account domain.Account) ([]*domain.AssetBalance, error) {
	return s.listFn(ctx, account)
}

type bankReaderStub struct {
	snapshot domain.CapSnapshot
	capErr   error
	state    *domain.BankState
}

func (s *bankReaderStub) CurrentNativeCap(ctx context.Context) (domain.CapSnapshot, error) {
	return s.snapshot, s.capErr
}

func (s *bankReaderStub) Totals(ctx context.Context) (*domain.BankState, error) {
	return s.state, nil
}

type reconcilerStub struct {
	report *usecase.ReconciliationReport
	err    error
}

func (s *reconcilerStub) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.report, s.err
}

func withParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestQueryHandler_GetBalance(t *testing.T) {
	h := NewQueryHandler(&balanceServiceStub{
		getFn: func(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error) {
			if account != alice || !domain.IsNative(asset) {
				t.Fatalf("unexpected lookup %s %s", account.Hex(), asset.Hex())
			}
			return &domain.AssetBalance{Account: account, Asset: asset, Balance: uint256.NewInt(0), Symbol: "ETH", Decimals: 18}, nil
		},
	}, nil, nil)

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"account": alice.Hex(), "asset": "native"})
	rec := httptest.NewRecorder()
	h.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != "0" || resp.Symbol != "ETH" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestQueryHandler_GetBalance_BadParams(t *testing.T) {
	h := NewQueryHandler(&balanceServiceStub{
		getFn: func(ctx context.Context, account domain.Account, asset domain.AssetID) (*domain.AssetBalance, error) {
			t.Fatal("GetBalance should not be called")
			return nil, nil
		},
	}, nil, nil)

	for _, params := range []map[string]string{
		{"account": "alice", "asset": "native"},
		{"account": alice.Hex(), "asset": "eth"},
	} {
		rec := httptest.NewRecorder()
		h.GetBalance(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), params))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", params, rec.Code)
		}
	}
}

func TestQueryHandler_ListBalances(t *testing.T) {
	h := NewQueryHandler(&balanceServiceStub{
		listFn: func(ctx context.Context, account domain.Account) ([]*domain.AssetBalance, error) {
			return []*domain.AssetBalance{
				{Account: account, Asset: domain.NativeAsset, Balance: uint256.NewInt(1)},
				{Account: account, Asset: token, Balance: uint256.NewInt(2)},
			}, nil
		},
	}, nil, nil)

	rec := httptest.NewRecorder()
	h.ListBalances(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"account": alice.Hex()}))

	var resp []dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 || resp[1].Asset != token.Hex() {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestQueryHandler_Cap(t *testing.T) {
	state := domain.NewBankState(uint256.NewInt(100))
	state.NativeTotal = uint256.NewInt(40)

	h := NewQueryHandler(nil, &bankReaderStub{
		snapshot: domain.CapSnapshot{
			USDCap:    uint256.NewInt(1000),
			Price:     domain.PriceReading{Price: big.NewInt(1000), Decimals: 2},
			NativeCap: uint256.NewInt(100),
		},
		state: state,
	}, nil)

	rec := httptest.NewRecorder()
	h.Cap(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cap", nil))

	var resp dto.CapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Price != "10" || resp.RemainingNative != "60" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestQueryHandler_Cap_OracleDown(t *testing.T) {
	h := NewQueryHandler(nil, &bankReaderStub{capErr: domain.ErrInvalidPrice}, nil)

	rec := httptest.NewRecorder()
	h.Cap(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cap", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestQueryHandler_Totals(t *testing.T) {
	state := domain.NewBankState(uint256.NewInt(100))
	state.TotalDeposits = 3

	h := NewQueryHandler(nil, &bankReaderStub{state: state}, nil)

	rec := httptest.NewRecorder()
	h.Totals(rec, httptest.NewRequest(http.MethodGet, "/api/v1/totals", nil))

	var resp dto.TotalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalDeposits != 3 || resp.WithdrawalCap != "100" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestQueryHandler_Reconciliation(t *testing.T) {
	h := NewQueryHandler(nil, nil, &reconcilerStub{err: errors.New("rpc down")})

	rec := httptest.NewRecorder()
	h.Reconciliation(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
