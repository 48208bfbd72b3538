// Package cache holds the key/value stores behind the directory cache.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value store. Values are JSON encoded so every
// implementation hands back independent copies.
type Store interface {
	// Get decodes the value under key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

type NoopStore struct{}

func (NoopStore) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }

func (NoopStore) Set(_ context.Context, _ string, _ any, _ time.Duration) error { return nil }

func (NoopStore) Delete(_ context.Context, _ ...string) error { return nil }

func (NoopStore) DeletePrefix(_ context.Context, _ string) error { return nil }
