package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// redisFixture is a go-redis client wired to an in-process miniredis.
type redisFixture struct {
	client *redislib.Client
	server *miniredis.Miniredis
}

func newRedisFixture(t *testing.T) *redisFixture {
	t.Helper()

	server := miniredis.RunT(t)
	// No retries, so a stopped server fails the first call.
	client := redislib.NewClient(&redislib.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	return &redisFixture{client: client, server: server}
}

// seed writes a raw key the way a previous request would have left it.
func (f *redisFixture) seed(t *testing.T, key, value string, ttl time.Duration) {
	t.Helper()
	if err := f.client.Set(context.Background(), key, value, ttl).Err(); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

// down stops the server while the client stays open.
func (f *redisFixture) down() {
	f.server.Close()
}
