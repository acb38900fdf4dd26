package postgres

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventIDGenerator issues outbox event IDs. The outbox is read in
// (created_at, id) order, so IDs minted in the same millisecond must still
// sort in the order they were issued.
type EventIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewEventIDGenerator creates a generator backed by monotonic ULIDs.
func NewEventIDGenerator() *EventIDGenerator {
	return newEventIDGenerator(time.Now)
}

func newEventIDGenerator(now func() time.Time) *EventIDGenerator {
	return &EventIDGenerator{
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate returns the next event ID.
func (g *EventIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
