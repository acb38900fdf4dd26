package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// MockBalanceRepository is a mock implementation of BalanceRepository.
// Writes go straight to the map; it does not model rollback.
type MockBalanceRepository struct {
	mu        sync.RWMutex
	positions map[domain.LedgerKey]*domain.Position

	GetFunc           func(ctx context.Context, key domain.LedgerKey) (*domain.Position, error)
	GetForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, key domain.LedgerKey) (*domain.Position, error)
	UpsertFunc        func(ctx context.Context, tx usecase.Transaction, position *domain.Position) error
	ListByAccountFunc func(ctx context.Context, account domain.Account) ([]*domain.Position, error)
	SumByAssetFunc    func(ctx context.Context) (map[domain.AssetID]*uint256.Int, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		positions: make(map[domain.LedgerKey]*domain.Position),
	}
}

// Set seeds a balance.
func (m *MockBalanceRepository) Set(account domain.Account, asset domain.AssetID, balance *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.LedgerKey{Account: account, Asset: asset}
	m.positions[key] = &domain.Position{Key: key, Balance: new(uint256.Int).Set(balance)}
}

func (m *MockBalanceRepository) Get(ctx context.Context, key domain.LedgerKey) (*domain.Position, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.positions[key]; ok {
		return &domain.Position{Key: p.Key, Balance: new(uint256.Int).Set(p.Balance), UpdatedAt: p.UpdatedAt}, nil
	}
	return domain.NewPosition(key), nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.LedgerKey) (*domain.Position, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, key)
	}
	return m.Get(ctx, key)
}

func (m *MockBalanceRepository) Upsert(ctx context.Context, tx usecase.Transaction, position *domain.Position) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, position)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[position.Key] = &domain.Position{
		Key:       position.Key,
		Balance:   new(uint256.Int).Set(position.Balance),
		UpdatedAt: position.UpdatedAt,
	}
	return nil
}

func (m *MockBalanceRepository) ListByAccount(ctx context.Context, account domain.Account) ([]*domain.Position, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Position
	for key, p := range m.positions {
		if key.Account == account {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockBalanceRepository) SumByAsset(ctx context.Context) (map[domain.AssetID]*uint256.Int, error) {
	if m.SumByAssetFunc != nil {
		return m.SumByAssetFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[domain.AssetID]*uint256.Int)
	for key, p := range m.positions {
		if _, ok := sums[key.Asset]; !ok {
			sums[key.Asset] = new(uint256.Int)
		}
		sums[key.Asset].Add(sums[key.Asset], p.Balance)
	}
	return sums, nil
}

// MockBankStateRepository is a mock implementation of BankStateRepository.
type MockBankStateRepository struct {
	mu    sync.RWMutex
	state *domain.BankState

	GetFunc          func(ctx context.Context) (*domain.BankState, error)
	GetForUpdateFunc func(ctx context.Context, tx usecase.Transaction) (*domain.BankState, error)
	UpdateFunc       func(ctx context.Context, tx usecase.Transaction, state *domain.BankState) error
}

func NewMockBankStateRepository(withdrawalCap *uint256.Int) *MockBankStateRepository {
	return &MockBankStateRepository{
		state: domain.NewBankState(withdrawalCap),
	}
}

func (m *MockBankStateRepository) Get(ctx context.Context) (*domain.BankState, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone(), nil
}

func (m *MockBankStateRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.BankState, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx)
	}
	return m.Get(ctx)
}

func (m *MockBankStateRepository) Update(ctx context.Context, tx usecase.Transaction, state *domain.BankState) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	return nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier.
type MockRetrier struct {
	Attempts int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < max(m.Attempts, 1); i++ {
		if err = operation(); err == nil {
			return nil
		}
	}
	return err
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	m.data[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockNativeDepositVerifier is a mock implementation of NativeDepositVerifier.
// Without VerifyFunc every proof is accepted.
type MockNativeDepositVerifier struct {
	VerifyFunc func(ctx context.Context, txHash common.Hash, from, custody domain.Account, amount *uint256.Int) error
}

func (m *MockNativeDepositVerifier) VerifyNativeDeposit(ctx context.Context, txHash common.Hash, from, custody domain.Account, amount *uint256.Int) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, txHash, from, custody, amount)
	}
	return nil
}
