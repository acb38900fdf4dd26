package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
)

var (
	ownerAccount = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	userAccount  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

func principalEcho(t *testing.T, seen **domain.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		*seen = p
	})
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate(domain.Principal{Account: userAccount, Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.Principal
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(manager)(principalEcho(t, &seen)).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status == http.StatusOK && (seen == nil || seen.Account != userAccount) {
				t.Fatalf("expected caller %s, got %+v", userAccount.Hex(), seen)
			}
		})
	}
}

func TestHeaderAuth(t *testing.T) {
	mw := HeaderAuth(ownerAccount)

	var seen *domain.Principal
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AccountHeader, ownerAccount.Hex())
	rr := httptest.NewRecorder()
	mw(principalEcho(t, &seen)).ServeHTTP(rr, req)
	if seen == nil || seen.Role != domain.RoleOwner {
		t.Fatalf("expected owner role, got %+v", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AccountHeader, userAccount.Hex())
	mw(principalEcho(t, &seen)).ServeHTTP(httptest.NewRecorder(), req)
	if seen.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %+v", seen)
	}

	for _, header := range []string{"", "alice"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(AccountHeader, header)
		}
		rr = httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})).ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %d", header, rr.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		status    int
	}{
		{"owner", &domain.Principal{Account: ownerAccount, Role: domain.RoleOwner}, http.StatusOK},
		{"user", &domain.Principal{Account: userAccount, Role: domain.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(domain.ContextWithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()

			RequireRole(domain.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
		})
	}
}
