// Package cache holds query results that are dropped by tag rather than
// by key. Every entry is stored with the tags it depends on; invalidating a
// tag removes every entry carrying it.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("key not found in cache")
	ErrInvalidKey = errors.New("invalid cache key")
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous entry and its tags.
	// A zero ttl means the backend default.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// Invalidate drops every entry carrying one of tags and advances each
	// tag's generation.
	Invalidate(ctx context.Context, tags ...string) error

	// Generation counts the invalidations of tag. A reader that sees it
	// change across a load must not keep what it cached.
	Generation(ctx context.Context, tag string) (uint64, error)

	Delete(ctx context.Context, key string) error

	Close() error
}

const DefaultTTL = 10 * time.Minute
