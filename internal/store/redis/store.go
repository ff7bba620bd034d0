package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPageCacheTTL is the default TTL for cached page snapshots
	DefaultPageCacheTTL = 10 * time.Minute
)

// Store handles Redis operations for sessions and the page cache
type Store struct {
	client   *redis.Client
	cacheTTL time.Duration
}

// NewStore creates a new Redis store. A zero cacheTTL uses DefaultPageCacheTTL.
func NewStore(client *redis.Client, cacheTTL time.Duration) *Store {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPageCacheTTL
	}
	return &Store{
		client:   client,
		cacheTTL: cacheTTL,
	}
}
