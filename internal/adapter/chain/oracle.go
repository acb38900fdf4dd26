package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iho/vaultledger/internal/domain"
)

// ChainlinkOracle reads a Chainlink AggregatorV3 price feed.
type ChainlinkOracle struct {
	backend Backend
	feed    common.Address

	mu       sync.Mutex
	decimals *uint8
}

// NewChainlinkOracle creates an oracle for the feed at address feed.
func NewChainlinkOracle(backend Backend, feed common.Address) *ChainlinkOracle {
	return &ChainlinkOracle{backend: backend, feed: feed}
}

// LatestPrice implements usecase.PriceOracle.
func (o *ChainlinkOracle) LatestPrice(ctx context.Context) (domain.PriceReading, error) {
	decimals, err := o.feedDecimals(ctx)
	if err != nil {
		return domain.PriceReading{}, err
	}

	out, err := call(ctx, o.backend, common.Address{}, o.feed, aggregatorABI, "latestRoundData")
	if err != nil {
		return domain.PriceReading{}, err
	}
	if len(out) != 5 {
		return domain.PriceReading{}, fmt.Errorf("latestRoundData returned %d values", len(out))
	}

	roundID, _ := out[0].(*big.Int)
	answer, _ := out[1].(*big.Int)
	updatedAt, _ := out[3].(*big.Int)
	if answer == nil {
		return domain.PriceReading{}, fmt.Errorf("latestRoundData: missing answer")
	}

	reading := domain.PriceReading{
		Price:    answer,
		Decimals: decimals,
		RoundID:  roundID,
	}
	if updatedAt != nil && updatedAt.Sign() > 0 {
		reading.UpdatedAt = time.Unix(updatedAt.Int64(), 0).UTC()
	}

	return reading, nil
}

// feedDecimals is read once; a feed never changes its precision.
func (o *ChainlinkOracle) feedDecimals(ctx context.Context) (uint8, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.decimals != nil {
		return *o.decimals, nil
	}

	out, err := call(ctx, o.backend, common.Address{}, o.feed, aggregatorABI, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}

	o.decimals = &d
	return d, nil
}
