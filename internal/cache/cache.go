package cache

import (
	"context"
	"time"
)

// Cache is the short-TTL read-through layer in front of the storage
// backend. It is a pure performance layer: a cold cache must behave
// identically to a warm one, just slower. kind tags the entry type
// ("analysis", "evidence") and prefixes the stored key.
type Cache interface {
	Get(ctx context.Context, kind, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, kind, key string, value interface{}, ttl time.Duration) error
}

func cacheKey(kind, key string) string {
	return kind + ":" + key
}
