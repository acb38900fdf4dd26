package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/vaultledger/internal/domain"
)

// PriceOracleGateway validates oracle readings before they reach the converter.
type PriceOracleGateway struct {
	oracle PriceOracle
	maxAge time.Duration
	now    func() time.Time
}

// NewPriceOracleGateway creates a gateway. maxAge <= 0 disables the staleness check.
func NewPriceOracleGateway(oracle PriceOracle, maxAge time.Duration) *PriceOracleGateway {
	return &PriceOracleGateway{
		oracle: oracle,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// ReadPrice returns a fresh, positive price or ErrCalculationFailed.
func (g *PriceOracleGateway) ReadPrice(ctx context.Context) (domain.PriceReading, error) {
	reading, err := g.oracle.LatestPrice(ctx)
	if err != nil {
		return domain.PriceReading{}, fmt.Errorf("%w: oracle read: %w", domain.ErrCalculationFailed, err)
	}

	if reading.Price == nil || reading.Price.Sign() <= 0 {
		return domain.PriceReading{}, fmt.Errorf("%w: %w: %v", domain.ErrCalculationFailed, domain.ErrInvalidPrice, reading.Price)
	}

	if g.maxAge > 0 && !reading.UpdatedAt.IsZero() {
		if age := g.now().Sub(reading.UpdatedAt); age > g.maxAge {
			return domain.PriceReading{}, fmt.Errorf("%w: price is %s old, max %s", domain.ErrCalculationFailed, age.Truncate(time.Second), g.maxAge)
		}
	}

	return reading, nil
}
