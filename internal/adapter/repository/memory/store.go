// Package memory is an in-process implementation of the ledger repositories.
// Writes are staged on a Tx and applied on Commit, so a rolled back
// operation leaves no trace.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used.
	ErrTxDone = errors.New("transaction already committed or rolled back")
	// ErrForeignTx is returned for transactions not created by this store.
	ErrForeignTx = errors.New("transaction does not belong to the memory store")
)

// Store holds committed state shared by all repositories.
type Store struct {
	mu       sync.RWMutex
	balances map[domain.LedgerKey]*domain.Position
	state    *domain.BankState
	outbox   []*domain.OutboxEvent
	claims   map[common.Hash]*domain.DepositClaim

	// stateLock plays the role of the bank state row lock.
	stateLock sync.Mutex
}

// NewStore creates a store with zero counters and the given withdrawal cap.
func NewStore(withdrawalCap *uint256.Int) *Store {
	return &Store{
		balances: make(map[domain.LedgerKey]*domain.Position),
		state:    domain.NewBankState(withdrawalCap),
		claims:   make(map[common.Hash]*domain.DepositClaim),
	}
}

// Begin starts a new transaction. Implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:    s,
		balances: make(map[domain.LedgerKey]*domain.Position),
		claims:   make(map[common.Hash]*domain.DepositClaim),
	}, nil
}

// Tx stages writes until Commit.
type Tx struct {
	store    *Store
	balances map[domain.LedgerKey]*domain.Position
	state    *domain.BankState
	events   []*domain.OutboxEvent
	claims   map[common.Hash]*domain.DepositClaim
	locked   bool
	done     bool
}

// Commit applies staged writes atomically.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for key, p := range t.balances {
		t.store.balances[key] = p
	}
	if t.state != nil {
		t.store.state = t.state
	}
	t.store.outbox = append(t.store.outbox, t.events...)
	for hash, c := range t.claims {
		t.store.claims[hash] = c
	}

	return nil
}

// Rollback discards staged writes. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.unlock()
	return nil
}

func (t *Tx) unlock() {
	if t.locked {
		t.locked = false
		t.store.stateLock.Unlock()
	}
}

func (s *Store) asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

func clonePosition(p *domain.Position) *domain.Position {
	return &domain.Position{
		Key:       p.Key,
		Balance:   new(uint256.Int).Set(p.Balance),
		UpdatedAt: p.UpdatedAt,
	}
}

// BalanceRepository implements usecase.BalanceRepository on a Store.
type BalanceRepository struct {
	store *Store
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(store *Store) *BalanceRepository {
	return &BalanceRepository{store: store}
}

// Get returns the committed position.
func (r *BalanceRepository) Get(ctx context.Context, key domain.LedgerKey) (*domain.Position, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if p, ok := r.store.balances[key]; ok {
		return clonePosition(p), nil
	}
	return domain.NewPosition(key), nil
}

// GetForUpdate returns the position as seen by tx.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.LedgerKey) (*domain.Position, error) {
	t, err := r.store.asTx(tx)
	if err != nil {
		return nil, err
	}

	if p, ok := t.balances[key]; ok {
		return clonePosition(p), nil
	}
	return r.Get(ctx, key)
}

// Upsert stages position on tx.
func (r *BalanceRepository) Upsert(ctx context.Context, tx usecase.Transaction, position *domain.Position) error {
	t, err := r.store.asTx(tx)
	if err != nil {
		return err
	}

	t.balances[position.Key] = clonePosition(position)
	return nil
}

// ListByAccount returns committed positions of account ordered by asset.
func (r *BalanceRepository) ListByAccount(ctx context.Context, account domain.Account) ([]*domain.Position, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	positions := make([]*domain.Position, 0)
	for key, p := range r.store.balances {
		if key.Account == account {
			positions = append(positions, clonePosition(p))
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Key.Asset.Cmp(positions[j].Key.Asset) < 0
	})

	return positions, nil
}

// SumByAsset returns the committed total of every asset with entries.
func (r *BalanceRepository) SumByAsset(ctx context.Context) (map[domain.AssetID]*uint256.Int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sums := make(map[domain.AssetID]*uint256.Int)
	for key, p := range r.store.balances {
		sum, ok := sums[key.Asset]
		if !ok {
			sum = new(uint256.Int)
			sums[key.Asset] = sum
		}
		if _, overflow := sum.AddOverflow(sum, p.Balance); overflow {
			return nil, domain.ErrArithmeticOverflow
		}
	}

	return sums, nil
}

// BankStateRepository implements usecase.BankStateRepository on a Store.
type BankStateRepository struct {
	store *Store
}

// NewBankStateRepository creates a new BankStateRepository.
func NewBankStateRepository(store *Store) *BankStateRepository {
	return &BankStateRepository{store: store}
}

// Get returns the committed state.
func (r *BankStateRepository) Get(ctx context.Context) (*domain.BankState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.state.Clone(), nil
}

// GetForUpdate takes the state lock for the lifetime of tx.
func (r *BankStateRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.BankState, error) {
	t, err := r.store.asTx(tx)
	if err != nil {
		return nil, err
	}

	if !t.locked {
		r.store.stateLock.Lock()
		t.locked = true
	}

	if t.state != nil {
		return t.state.Clone(), nil
	}
	return r.Get(ctx)
}

// Update stages state on tx.
func (r *BankStateRepository) Update(ctx context.Context, tx usecase.Transaction, state *domain.BankState) error {
	t, err := r.store.asTx(tx)
	if err != nil {
		return err
	}

	t.state = state.Clone()
	return nil
}

// OutboxRepository implements usecase.OutboxRepository on a Store.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages event on tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := r.store.asTx(tx)
	if err != nil {
		return err
	}

	e := *event
	t.events = append(t.events, &e)
	return nil
}

// GetUnpublished returns up to limit unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, e := range r.store.outbox {
		if len(events) >= limit {
			break
		}
		if !e.Published {
			c := *e
			events = append(events, &c)
		}
	}

	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}

	return nil
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	skipped := 0
	for _, e := range r.store.outbox {
		if e.AggregateType != aggregateType || e.AggregateID != aggregateID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(events) >= limit {
			break
		}
		c := *e
		events = append(events, &c)
	}

	return events, nil
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept

	return nil
}

// DepositClaimRepository implements usecase.DepositClaimRepository on a Store.
// Uniqueness is checked against committed and staged claims; the bank holds
// the state lock while it claims.
type DepositClaimRepository struct {
	store *Store
}

// NewDepositClaimRepository creates a new DepositClaimRepository.
func NewDepositClaimRepository(store *Store) *DepositClaimRepository {
	return &DepositClaimRepository{store: store}
}

// Claim stages claim on tx.
func (r *DepositClaimRepository) Claim(ctx context.Context, tx usecase.Transaction, claim *domain.DepositClaim) error {
	t, err := r.store.asTx(tx)
	if err != nil {
		return err
	}

	if _, ok := t.claims[claim.TxHash]; ok {
		return domain.ErrDepositAlreadyClaimed
	}
	r.store.mu.RLock()
	_, committed := r.store.claims[claim.TxHash]
	r.store.mu.RUnlock()
	if committed {
		return domain.ErrDepositAlreadyClaimed
	}

	c := *claim
	c.Amount = new(uint256.Int).Set(claim.Amount)
	t.claims[claim.TxHash] = &c
	return nil
}

// Get returns the committed claim of txHash, or nil when it was never claimed.
func (r *DepositClaimRepository) Get(ctx context.Context, txHash common.Hash) (*domain.DepositClaim, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.claims[txHash]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Amount = new(uint256.Int).Set(c.Amount)
	return &out, nil
}
