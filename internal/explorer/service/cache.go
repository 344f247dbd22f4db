package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

const (
	// AppCacheTTL bounds how long an orphaned detail entry can live. Writes
	// purge the entry explicitly.
	AppCacheTTL = 300 * time.Second

	// CategoriesCacheTTL is the only invalidation the category list gets.
	CategoriesCacheTTL = time.Hour

	CategoriesCacheKey = "categories"
)

// AppCacheKey is the cache key of an app's detail document.
func AppCacheKey(slug string) string { return "app:" + slug }

// purgeApp drops the cached detail of slug. Every content write calls it
// last. A failed purge is logged; the write itself already succeeded.
func purgeApp(ctx context.Context, c cachex.Cache, slug string) {
	if c == nil || slug == "" {
		return
	}
	if err := c.Delete(ctx, AppCacheKey(slug)); err != nil {
		slogx.FromContext(ctx).Error("failed to purge app cache", "slug", slug, "error", err)
	}
}
