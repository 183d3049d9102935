package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/arunvm123/bookstore/model"
)

// BookPagePattern matches every catalog page key
const BookPagePattern = "books_page_*"

// BookPageKey is the cache key of one catalog page. The format is shared by
// every API instance pointing at the same cache and must not change.
func BookPageKey(page int, sort model.SortMode, perPage int) string {
	return fmt.Sprintf("books_page_%d_sort_%s_per_%d", page, sort, perPage)
}

// RevokedTokenKey marks a logged-out token ID
func RevokedTokenKey(jti string) string {
	return "revoked_token:" + jti
}

// Store is a shared key-value cache
type Store interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// Keys lists the keys matching a glob-style pattern
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
