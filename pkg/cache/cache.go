// Package cache provides byte-level caching of rendered page artifacts.
//
// Rendering a page is deterministic in its inputs: the page's source bytes,
// its highlight bytes, the template name and the render options. The pipeline
// hashes those inputs into a key (see [Keyer]) and stores the finished
// artifact (SVG, PDF, PNG or annotations JSON) under it.
//
// # Backends
//
//   - [FileCache]: one JSON entry per key under a local directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// All backends treat an expired or unreadable entry as a miss.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered pages are kept by default.
const TTLArtifact = 30 * 24 * time.Hour

// Cache stores opaque byte values under string keys.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A zero ttl in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
