// Package cache provides the read-through cache in front of account statements.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache miss")

// Cache is the small surface the services need. Values are stored as JSON.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// GetOrSet returns the cached value for key, or calls fn and caches its result.
// Cache failures never fail the call; fn is the source of truth.
func GetOrSet[T any](ctx context.Context, c Cache, key string, expiration time.Duration, fn func() (T, error)) (T, error) {
	var result T

	err := c.Get(ctx, key, &result)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrMiss) {
		slog.WarnContext(ctx, "Cache read failed, falling back to source", slog.String("key", key), slog.String("error", err.Error()))
	}

	result, err = fn()
	if err != nil {
		return result, err
	}

	if err := c.Set(ctx, key, result, expiration); err != nil {
		slog.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return result, nil
}

// Noop never stores anything. It is used when no redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error                 { return ErrMiss }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error            { return nil }

var _ Cache = Noop{}
