// Package cachex is the read-through cache used in front of the datastore.
// Values are opaque byte slices, normally JSON response bodies. Drivers:
// an in-process ttlcache and Redis.
package cachex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cachex: miss")

// Cache stores values under string keys with a per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the cached value under key into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cachex: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cachex: encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// Namespace returns the part of key before the first ':' ("app" for
// "app:firefox"), or the whole key when there is none.
func Namespace(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}

// Observer receives cache outcomes, labelled by key namespace.
type Observer interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
	CachePurge(namespace string)
}

type instrumented struct {
	Cache
	obs Observer
}

// Instrument reports every Get and Delete on c to obs.
func Instrument(c Cache, obs Observer) Cache {
	if obs == nil {
		return c
	}
	return &instrumented{Cache: c, obs: obs}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := i.Cache.Get(ctx, key)
	switch {
	case err == nil:
		i.obs.CacheHit(Namespace(key))
	case errors.Is(err, ErrMiss):
		i.obs.CacheMiss(Namespace(key))
	}
	return v, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	err := i.Cache.Delete(ctx, key)
	if err == nil {
		i.obs.CachePurge(Namespace(key))
	}
	return err
}
