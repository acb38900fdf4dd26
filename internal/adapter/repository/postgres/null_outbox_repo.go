package postgres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// NullOutboxRepository stands in for the outbox when OUTBOX_ENABLED=false.
// Ledger operations still record their events, which are dropped instead of
// being written alongside the ledger rows. Reads always come back empty.
type NullOutboxRepository struct {
	discarded atomic.Uint64
}

// NewNullOutboxRepository creates a NullOutboxRepository.
func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

// Create drops the event.
func (r *NullOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	r.discarded.Add(1)
	return nil
}

// Discarded returns how many events were dropped since startup.
func (r *NullOutboxRepository) Discarded() uint64 {
	return r.discarded.Load()
}

func (r *NullOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return nil
}

func (r *NullOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}
