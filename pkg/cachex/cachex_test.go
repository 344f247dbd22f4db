package cachex_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	hits, misses, purges []string
}

func (r *recorder) CacheHit(ns string)   { r.hits = append(r.hits, ns) }
func (r *recorder) CacheMiss(ns string)  { r.misses = append(r.misses, ns) }
func (r *recorder) CachePurge(ns string) { r.purges = append(r.purges, ns) }

// exercise runs the behaviour every driver must share.
func exercise(t *testing.T, c cachex.Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "app:firefox")
	require.ErrorIs(t, err, cachex.ErrMiss)

	require.NoError(t, c.Set(ctx, "app:firefox", []byte(`{"slug":"firefox"}`), time.Minute))
	got, err := c.Get(ctx, "app:firefox")
	require.NoError(t, err)
	require.JSONEq(t, `{"slug":"firefox"}`, string(got))

	require.NoError(t, c.Delete(ctx, "app:firefox"))
	_, err = c.Get(ctx, "app:firefox")
	require.ErrorIs(t, err, cachex.ErrMiss)

	// Deleting an absent key is not an error.
	require.NoError(t, c.Delete(ctx, "app:nope"))

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, cachex.SetJSON(ctx, c, "categories", []payload{{Name: "Dev"}}, time.Hour))
	var out []payload
	require.NoError(t, cachex.GetJSON(ctx, c, "categories", &out))
	require.Equal(t, []payload{{Name: "Dev"}}, out)
}

func TestMemory(t *testing.T) {
	c := cachex.NewMemory(0)
	t.Cleanup(func() { _ = c.Close() })
	exercise(t, c)
}

func TestMemoryExpiry(t *testing.T) {
	c := cachex.NewMemory(0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "app:x", []byte("1"), 20*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "app:x")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryCopiesValue(t *testing.T) {
	c := cachex.NewMemory(0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cachex.NewRedis(context.Background(), cachex.RedisConfig{Addr: mr.Addr(), Prefix: "explorer:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	exercise(t, c)

	require.NoError(t, c.Set(context.Background(), "app:vlc", []byte("{}"), 300*time.Second))
	require.True(t, mr.Exists("explorer:app:vlc"))
	require.Equal(t, 300*time.Second, mr.TTL("explorer:app:vlc"))

	mr.FastForward(301 * time.Second)
	_, err = c.Get(context.Background(), "app:vlc")
	require.ErrorIs(t, err, cachex.ErrMiss)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cachex.NewRedis(ctx, cachex.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestInstrument(t *testing.T) {
	mem := cachex.NewMemory(0)
	t.Cleanup(func() { _ = mem.Close() })
	rec := &recorder{}
	c := cachex.Instrument(mem, rec)
	ctx := context.Background()

	_, _ = c.Get(ctx, "app:a")
	require.NoError(t, c.Set(ctx, "app:a", []byte("1"), time.Minute))
	_, _ = c.Get(ctx, "app:a")
	_, _ = c.Get(ctx, "categories")
	require.NoError(t, c.Delete(ctx, "app:a"))

	require.Equal(t, []string{"app"}, rec.hits)
	require.Equal(t, []string{"app", "categories"}, rec.misses)
	require.Equal(t, []string{"app"}, rec.purges)
}

func TestNamespace(t *testing.T) {
	require.Equal(t, "app", cachex.Namespace("app:firefox"))
	require.Equal(t, "categories", cachex.Namespace("categories"))
}
