package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. The render command uses it for --no-cache.
type NullCache struct{}

// NewNullCache returns a cache on which every Get misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
