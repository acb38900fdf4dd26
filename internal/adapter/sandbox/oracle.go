// Package sandbox provides in-process stand-ins for the price feed and the
// chain so the service runs without a node.
package sandbox

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/iho/vaultledger/internal/domain"
)

// FixedPriceOracle returns a configured price. It implements usecase.PriceOracle.
type FixedPriceOracle struct {
	mu       sync.RWMutex
	price    *big.Int
	decimals uint8
	round    int64
}

// NewFixedPriceOracle creates an oracle answering price with decimals places.
func NewFixedPriceOracle(price *big.Int, decimals uint8) *FixedPriceOracle {
	return &FixedPriceOracle{price: new(big.Int).Set(price), decimals: decimals, round: 1}
}

// SetPrice replaces the answer and starts a new round.
func (o *FixedPriceOracle) SetPrice(price *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = new(big.Int).Set(price)
	o.round++
}

// LatestPrice returns the current answer stamped now.
func (o *FixedPriceOracle) LatestPrice(ctx context.Context) (domain.PriceReading, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return domain.PriceReading{
		Price:     new(big.Int).Set(o.price),
		Decimals:  o.decimals,
		RoundID:   big.NewInt(o.round),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
