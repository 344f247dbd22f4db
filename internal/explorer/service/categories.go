package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

type CategoryService struct {
	Store store.Store
	Cache cachex.Cache
}

// List returns every category. The list is cached for CategoriesCacheTTL
// and never purged.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	l := slogx.FromContext(ctx)

	if s.Cache != nil {
		var cats []domain.Category
		err := cachex.GetJSON(ctx, s.Cache, CategoriesCacheKey, &cats)
		if err == nil {
			return cats, nil
		}
		if !errors.Is(err, cachex.ErrMiss) {
			l.Warn("category cache read failed", "error", err)
		}
	}

	cats, err := s.Store.Categories().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.Cache != nil {
		if err := cachex.SetJSON(ctx, s.Cache, CategoriesCacheKey, cats, CategoriesCacheTTL); err != nil {
			l.Warn("category cache write failed", "error", err)
		}
	}
	return cats, nil
}
