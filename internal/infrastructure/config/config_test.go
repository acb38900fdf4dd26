package config_test

import (
	"testing"
	"time"

	"github.com/iho/vaultledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.Storage != config.StorageMemory || cfg.ChainMode != config.ChainSandbox || cfg.EventSink != config.SinkLog {
		t.Fatalf("expected dev defaults, got storage=%s chain=%s sink=%s", cfg.Storage, cfg.ChainMode, cfg.EventSink)
	}

	usdCap, err := cfg.USDCap()
	if err != nil {
		t.Fatalf("usd cap: %v", err)
	}
	if usdCap.Dec() != "10000000000000" {
		t.Fatalf("expected 10M USD at 6 decimals, got %s", usdCap.Dec())
	}

	price, err := cfg.SandboxPriceAnswer()
	if err != nil {
		t.Fatalf("sandbox price: %v", err)
	}
	if price.String() != "200000000000" {
		t.Fatalf("expected 2000 at 8 decimals, got %s", price)
	}

	opening, err := cfg.SandboxOpeningBalance()
	if err != nil || opening.Dec() != "1000000000000000000000" {
		t.Fatalf("expected 1000 whole units opening balance, got %v (err %v)", opening, err)
	}

	if cfg.OutboxRetention != 168*time.Hour {
		t.Fatalf("expected a week of outbox retention, got %s", cfg.OutboxRetention)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "750ms")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("BANK_CAP_USD", "2500.5")
	t.Setenv("WITHDRAWAL_CAP", "100")
	t.Setenv("OWNER_ADDRESS", "0x00000000000000000000000000000000000000b2")
	t.Setenv("EVENT_SINK", "rabbitmq")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.DatabaseLockTimeout != 750*time.Millisecond {
		t.Fatalf("expected lock timeout override, got %s", cfg.DatabaseLockTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	usdCap, err := cfg.USDCap()
	if err != nil || usdCap.Dec() != "2500500000" {
		t.Fatalf("expected scaled usd cap 2500500000, got %v (err %v)", usdCap, err)
	}

	withdrawalCap, err := cfg.InitialWithdrawalCap()
	if err != nil || withdrawalCap.Uint64() != 100 {
		t.Fatalf("expected withdrawal cap 100, got %v (err %v)", withdrawalCap, err)
	}

	owner, err := cfg.Owner()
	if err != nil || owner.Hex() != "0x00000000000000000000000000000000000000b2" {
		t.Fatalf("unexpected owner %s (err %v)", owner.Hex(), err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown storage", "STORAGE", "sqlite"},
		{"unknown chain mode", "CHAIN_MODE", "solana"},
		{"unknown sink", "EVENT_SINK", "kafka"},
		{"bad owner", "OWNER_ADDRESS", "owner"},
		{"negative usd cap", "BANK_CAP_USD", "-1"},
		{"zero withdrawal cap", "WITHDRAWAL_CAP", "0"},
		{"fractional withdrawal cap", "WITHDRAWAL_CAP", "1.5"},
		{"bad sandbox opening balance", "SANDBOX_OPENING_BALANCE", "lots"},
		{"ethereum without oracle", "CHAIN_MODE", "ethereum"},
		{"auth without secret", "AUTH_ENABLED", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("ORACLE_ADDRESS", "")
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", tt.key, tt.value)
			}
		})
	}
}

func TestLoadEthereumRequiresAuth(t *testing.T) {
	t.Setenv("CHAIN_MODE", config.ChainEthereum)
	t.Setenv("ORACLE_ADDRESS", "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")
	t.Setenv("CUSTODY_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_ENABLED", "false")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected ethereum mode without token auth to be rejected")
	}

	t.Setenv("AUTH_ENABLED", "true")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.AuthEnabled || cfg.ChainMode != config.ChainEthereum {
		t.Fatalf("unexpected config: chain=%s auth=%v", cfg.ChainMode, cfg.AuthEnabled)
	}
}
