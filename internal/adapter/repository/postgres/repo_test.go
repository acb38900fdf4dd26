package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

var (
	testAccount = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000e2")
)

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBeginTx(ledgerTxOptions)
	tx, err := newTxManager(pool, 0).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestBalanceRepositoryGetMissingRowIsZero(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(regexp.QuoteMeta(selectBalanceSQL)).
		WithArgs(testAccount.Hex(), testToken.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"balance", "updated_at"}))

	repo := newBalanceRepository(pool)
	got, err := repo.Get(context.Background(), domain.LedgerKey{Account: testAccount, Asset: testToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", got.Balance.Dec())
	}

	assertExpectations(t, pool)
}

func TestBalanceRepositoryGetForUpdateAndUpsert(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now().UTC()
	key := domain.LedgerKey{Account: testAccount, Asset: domain.NativeAsset}

	// Larger than uint64 to exercise the text round trip.
	pool.ExpectQuery(regexp.QuoteMeta(selectBalanceSQL + " FOR UPDATE")).
		WithArgs(testAccount.Hex(), domain.NativeAsset.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"balance", "updated_at"}).AddRow("5000000000000000000000", now))
	pool.ExpectExec(regexp.QuoteMeta(upsertBalanceSQL)).
		WithArgs(testAccount.Hex(), domain.NativeAsset.Hex(), "5000000000000000000001", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := newBalanceRepository(pool)
	position, err := repo.GetForUpdate(context.Background(), tx, key)
	if err != nil {
		t.Fatalf("GetForUpdate: %v", err)
	}
	if position.Balance.Dec() != "5000000000000000000000" {
		t.Fatalf("balance = %s", position.Balance.Dec())
	}

	position.Balance = new(uint256.Int).AddUint64(position.Balance, 1)
	position.UpdatedAt = now
	if err := repo.Upsert(context.Background(), tx, position); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	assertExpectations(t, pool)
}

func TestBalanceRepositoryRejectsForeignTransaction(t *testing.T) {
	repo := newBalanceRepository(newMockPool(t))
	_, err := repo.GetForUpdate(context.Background(), fakeTx{}, domain.LedgerKey{})
	if err == nil {
		t.Fatal("expected error for foreign transaction")
	}
}

func TestBalanceRepositoryListAndSum(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta(listBalancesSQL)).
		WithArgs(testAccount.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"asset", "balance", "updated_at"}).
			AddRow(domain.NativeAsset.Hex(), "2", now).
			AddRow(testToken.Hex(), "7", now))
	pool.ExpectQuery(regexp.QuoteMeta(sumBalancesSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"asset", "sum"}).
			AddRow(domain.NativeAsset.Hex(), "12").
			AddRow(testToken.Hex(), "7"))

	repo := newBalanceRepository(pool)
	list, err := repo.ListByAccount(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(list) != 2 || list[1].Key.Asset != testToken || !list[1].Balance.Eq(uint256.NewInt(7)) {
		t.Fatalf("unexpected list: %+v", list)
	}

	sums, err := repo.SumByAsset(context.Background())
	if err != nil {
		t.Fatalf("SumByAsset: %v", err)
	}
	if !sums[domain.NativeAsset].Eq(uint256.NewInt(12)) {
		t.Fatalf("native sum = %v", sums[domain.NativeAsset])
	}

	assertExpectations(t, pool)
}

func TestBankStateRepositoryLockAndUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta(selectStateSQL + " FOR UPDATE NOWAIT")).
		WillReturnRows(pgxmock.NewRows([]string{"withdrawal_cap", "total_deposits", "total_withdrawals", "native_total", "updated_at"}).
			AddRow("100", int64(3), int64(1), "42", now))
	pool.ExpectExec(regexp.QuoteMeta(updateStateSQL)).
		WithArgs("100", int64(4), int64(1), "50", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := newBankStateRepository(pool)
	state, err := repo.GetForUpdate(context.Background(), tx)
	if err != nil {
		t.Fatalf("GetForUpdate: %v", err)
	}
	if state.TotalDeposits != 3 || !state.NativeTotal.Eq(uint256.NewInt(42)) || !state.WithdrawalCap.Eq(uint256.NewInt(100)) {
		t.Fatalf("unexpected state: %+v", state)
	}

	state.TotalDeposits++
	state.NativeTotal = uint256.NewInt(50)
	state.UpdatedAt = now
	if err := repo.Update(context.Background(), tx, state); err != nil {
		t.Fatalf("Update: %v", err)
	}

	assertExpectations(t, pool)
}

func TestBankStateRepositoryLockBusy(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(regexp.QuoteMeta(selectStateSQL + " FOR UPDATE NOWAIT")).
		WillReturnError(&pgconn.PgError{Code: pgErrLockNotAvailable})

	_, err := newBankStateRepository(pool).GetForUpdate(context.Background(), tx)
	if !isRetryableError(err) {
		t.Fatalf("expected retryable lock error, got %v", err)
	}
}

func TestBankStateRepositoryMissingRow(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"withdrawal_cap", "total_deposits", "total_withdrawals", "native_total", "updated_at"}))

	_, err := newBankStateRepository(pool).Get(context.Background())
	if !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestBankStateRepositoryInitialize(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec(regexp.QuoteMeta(initStateSQL)).
		WithArgs("1000", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := newBankStateRepository(pool).Initialize(context.Background(), uint256.NewInt(1000)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryCreateAndRead(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta(insertOutboxSQL)).
		WithArgs("evt-1", "bank", domain.AggregateTypeBank, domain.EventTypeSwept, pgxmock.AnyArg(), now, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectQuery(regexp.QuoteMeta(unpublishedOutboxSQL)).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}).
			AddRow("evt-1", "bank", domain.AggregateTypeBank, domain.EventTypeSwept, []byte(`{"amount":"7"}`), now, nil, false))
	pool.ExpectExec(regexp.QuoteMeta(markPublishedSQL)).
		WithArgs("evt-1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := newOutboxRepository(pool)
	err := repo.Create(context.Background(), tx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "bank",
		AggregateType: domain.AggregateTypeBank,
		EventType:     domain.EventTypeSwept,
		Payload:       map[string]any{"amount": "7"},
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	events, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetUnpublished: %v", err)
	}
	if len(events) != 1 || events[0].Payload["amount"] != "7" {
		t.Fatalf("unexpected events: %+v", events)
	}

	if err := repo.MarkPublished(context.Background(), "evt-1", now); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}

	assertExpectations(t, pool)
}

func TestDepositClaimRepositoryClaimOnce(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now().UTC()
	hash := common.HexToHash("0xabc1")

	pool.ExpectExec(regexp.QuoteMeta(insertClaimSQL)).
		WithArgs(hash.Hex(), testAccount.Hex(), "1000", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(regexp.QuoteMeta(insertClaimSQL)).
		WithArgs(hash.Hex(), testAccount.Hex(), "1000", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	repo := newDepositClaimRepository(pool)
	claim := &domain.DepositClaim{TxHash: hash, Account: testAccount, Amount: uint256.NewInt(1000), ClaimedAt: now}

	if err := repo.Claim(context.Background(), tx, claim); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := repo.Claim(context.Background(), tx, claim); !errors.Is(err, domain.ErrDepositAlreadyClaimed) {
		t.Fatalf("expected ErrDepositAlreadyClaimed, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestDepositClaimRepositoryGet(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now().UTC()
	claimed := common.HexToHash("0xabc1")
	unknown := common.HexToHash("0xabc2")

	pool.ExpectQuery(regexp.QuoteMeta(selectClaimSQL)).
		WithArgs(claimed.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"account", "amount", "claimed_at"}).AddRow(testAccount.Hex(), "1000", now))
	pool.ExpectQuery(regexp.QuoteMeta(selectClaimSQL)).
		WithArgs(unknown.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"account", "amount", "claimed_at"}))

	repo := newDepositClaimRepository(pool)

	got, err := repo.Get(context.Background(), claimed)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Account != testAccount || got.Amount.Dec() != "1000" {
		t.Fatalf("unexpected claim: %+v", got)
	}

	got, err = repo.Get(context.Background(), unknown)
	if err != nil || got != nil {
		t.Fatalf("expected no claim, got %+v (err %v)", got, err)
	}

	assertExpectations(t, pool)
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0", want: "0"},
		{in: "115792089237316195423570985008687907853269984665640564039457584007913129639935", want: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{in: "115792089237316195423570985008687907853269984665640564039457584007913129639936", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseNumeric(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseNumeric(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got.Dec() != tt.want {
			t.Errorf("parseNumeric(%q) = %v, %v", tt.in, got, err)
		}
	}
}

type fakeTx struct{}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }
