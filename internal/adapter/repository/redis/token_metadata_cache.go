package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// DefaultTokenMetadataTTL bounds how long token symbol and decimals are cached.
const DefaultTokenMetadataTTL = 24 * time.Hour

type cachedMetadata struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TokenMetadataCache caches another usecase.TokenMetadataReader in Redis.
// Redis failures fall through to the wrapped reader.
type TokenMetadataCache struct {
	client *redis.Client
	next   usecase.TokenMetadataReader
	prefix string
	ttl    time.Duration
}

// NewTokenMetadataCache creates a new TokenMetadataCache.
func NewTokenMetadataCache(client *redis.Client, next usecase.TokenMetadataReader, ttl time.Duration) *TokenMetadataCache {
	if ttl <= 0 {
		ttl = DefaultTokenMetadataTTL
	}
	return &TokenMetadataCache{
		client: client,
		next:   next,
		prefix: "vaultledger:token:",
		ttl:    ttl,
	}
}

// TokenMetadata returns cached metadata or loads and stores it.
func (c *TokenMetadataCache) TokenMetadata(ctx context.Context, token domain.AssetID) (*domain.TokenMetadata, error) {
	key := c.prefix + token.Hex()

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedMetadata
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return &domain.TokenMetadata{Asset: token, Symbol: cached.Symbol, Decimals: cached.Decimals}, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("token", token.Hex()).Msg("token metadata cache read failed")
	}

	meta, err := c.next.TokenMetadata(ctx, token)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedMetadata{Symbol: meta.Symbol, Decimals: meta.Decimals})
	if err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("token", token.Hex()).Msg("token metadata cache write failed")
		}
	}

	return meta, nil
}
