package cachex

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is a process-local Cache backed by ttlcache. Reads never extend
// an entry's lifetime.
type Memory struct {
	c *ttlcache.Cache[string, []byte]
}

var _ Cache = (*Memory)(nil)

// NewMemory starts a memory cache and its expiry loop. Call Close to stop it.
func NewMemory(capacity uint64) *Memory {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}

	c := ttlcache.New(opts...)
	go c.Start()
	return &Memory{c: c}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	item := m.c.Get(key)
	if item == nil || item.IsExpired() {
		return nil, ErrMiss
	}
	return item.Value(), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int { return m.c.Len() }

func (m *Memory) Close() error {
	m.c.Stop()
	return nil
}
