package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/pkg/blobx"
	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/idx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
	maxSlugLength   = 80
)

type AppService struct {
	Store store.Store
	Cache cachex.Cache
	Blobs blobx.Store

	Now func() time.Time
}

func (s *AppService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ListQuery is the parsed query string of GET /api/apps.
type ListQuery struct {
	Q        string
	Category string
	Tag      string
	Featured bool
	Sort     string
	Page     int
	Limit    int
}

var sorts = []store.AppSort{
	store.SortNewest, store.SortTopRated, store.SortMostReviewed, store.SortAZ, store.SortTrending,
}

// filter clamps paging and maps the sort name onto the fixed set. Unknown
// sorts fall back to newest.
func (q ListQuery) filter() (store.AppFilter, int, int) {
	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	sort := store.AppSort(q.Sort)
	if !slices.Contains(sorts, sort) {
		sort = store.SortNewest
	}

	return store.AppFilter{
		Query:    strings.TrimSpace(q.Q),
		Category: strings.TrimSpace(q.Category),
		Tag:      strings.ToLower(strings.TrimSpace(q.Tag)),
		Featured: q.Featured,
		Sort:     sort,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}, page, limit
}

// List returns one page of apps with their tags, package types and icon.
func (s *AppService) List(ctx context.Context, q ListQuery) (domain.AppPage, error) {
	f, page, limit := q.filter()

	views, total, err := s.Store.Apps().ListApps(ctx, f)
	if err != nil {
		return domain.AppPage{}, fmt.Errorf("list apps: %w", err)
	}

	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	tags, err := s.Store.Apps().ListTags(ctx, ids...)
	if err != nil {
		return domain.AppPage{}, fmt.Errorf("list tags: %w", err)
	}
	pkgs, err := s.Store.Apps().ListPackageTypes(ctx, ids...)
	if err != nil {
		return domain.AppPage{}, fmt.Errorf("list package types: %w", err)
	}
	icons, err := s.Store.Media().ListIconURLs(ctx, ids...)
	if err != nil {
		return domain.AppPage{}, fmt.Errorf("list icons: %w", err)
	}

	out := domain.AppPage{
		Apps: make([]domain.AppSummary, 0, len(views)),
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}
	for _, v := range views {
		sum := domain.AppSummary{
			AppView:      v,
			Tags:         nonNil(tags[v.ID]),
			PackageTypes: nonNil(pkgs[v.ID]),
		}
		if url, ok := icons[v.ID]; ok {
			sum.IconURL = &url
		}
		out.Apps = append(out.Apps, sum)
	}
	return out, nil
}

// Get returns the JSON detail document of an app. Cached documents are
// returned verbatim; a miss rebuilds and caches it for AppCacheTTL.
func (s *AppService) Get(ctx context.Context, slug string) ([]byte, error) {
	l := slogx.FromContext(ctx)
	key := AppCacheKey(slug)

	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, key)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, cachex.ErrMiss) {
			l.Warn("app cache read failed", "slug", slug, "error", err)
		}
	}

	detail, err := s.loadDetail(ctx, slug)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("encode app detail: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, raw, AppCacheTTL); err != nil {
			l.Warn("app cache write failed", "slug", slug, "error", err)
		}
	}
	return raw, nil
}

func (s *AppService) loadDetail(ctx context.Context, slug string) (domain.AppDetail, error) {
	view, err := s.Store.Apps().GetAppViewBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AppDetail{}, ErrAppNotFound
		}
		return domain.AppDetail{}, fmt.Errorf("load app: %w", err)
	}

	tags, err := s.Store.Apps().ListTags(ctx, view.ID)
	if err != nil {
		return domain.AppDetail{}, fmt.Errorf("list tags: %w", err)
	}
	pkgs, err := s.Store.Apps().ListPackageTypes(ctx, view.ID)
	if err != nil {
		return domain.AppDetail{}, fmt.Errorf("list package types: %w", err)
	}
	media, err := s.Store.Media().ListMediaByApp(ctx, view.ID)
	if err != nil {
		return domain.AppDetail{}, fmt.Errorf("list media: %w", err)
	}
	reviews, err := s.Store.Reviews().ListReviewsByApp(ctx, view.ID)
	if err != nil {
		return domain.AppDetail{}, fmt.Errorf("list reviews: %w", err)
	}
	replies, err := s.Store.Reviews().ListRepliesByApp(ctx, view.ID)
	if err != nil {
		return domain.AppDetail{}, fmt.Errorf("list replies: %w", err)
	}

	byReview := make(map[string][]domain.Reply, len(reviews))
	for _, rp := range replies {
		byReview[rp.ReviewID] = append(byReview[rp.ReviewID], rp)
	}
	threads := make([]domain.ReviewThread, len(reviews))
	for i, rv := range reviews {
		threads[i] = domain.ReviewThread{Review: rv, Replies: nonNil(byReview[rv.ID])}
	}

	return domain.AppDetail{
		AppView:      view,
		Tags:         nonNil(tags[view.ID]),
		PackageTypes: nonNil(pkgs[view.ID]),
		Media:        media,
		Reviews:      threads,
	}, nil
}

// AppInput is the body of POST /api/apps.
type AppInput struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	ShortDesc      string   `json:"short_desc" validate:"required,min=1,max=200"`
	ShortDescEN    *string  `json:"short_desc_en" validate:"omitempty,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=10000"`
	CategoryID     int64    `json:"category_id" validate:"required,gt=0"`
	WebsiteURL     *string  `json:"website_url" validate:"omitempty,url,max=500"`
	DownloadURL    *string  `json:"download_url" validate:"omitempty,url,max=500"`
	SourceCodeURL  *string  `json:"source_code_url" validate:"omitempty,url,max=500"`
	InstallCommand *string  `json:"install_command" validate:"omitempty,max=500"`
	License        *string  `json:"license" validate:"omitempty,max=50"`
	PackageTypes   []string `json:"package_types" validate:"omitempty,max=5,dive,oneof=deb flatpak snap appimage source"`
	Tags           []string `json:"tags" validate:"omitempty,max=10,dive,max=30"`
}

// AppUpdateInput is the body of PUT /api/apps/{id}. Absent fields are left
// alone; a nil Tags or PackageTypes keeps the current set.
type AppUpdateInput struct {
	Name           *string  `json:"name" validate:"omitnil,min=1,max=100"`
	ShortDesc      *string  `json:"short_desc" validate:"omitnil,min=1,max=200"`
	ShortDescEN    *string  `json:"short_desc_en" validate:"omitempty,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=10000"`
	CategoryID     *int64   `json:"category_id" validate:"omitnil,gt=0"`
	WebsiteURL     *string  `json:"website_url" validate:"omitempty,url,max=500"`
	DownloadURL    *string  `json:"download_url" validate:"omitempty,url,max=500"`
	SourceCodeURL  *string  `json:"source_code_url" validate:"omitempty,url,max=500"`
	InstallCommand *string  `json:"install_command" validate:"omitempty,max=500"`
	License        *string  `json:"license" validate:"omitempty,max=50"`
	PackageTypes   []string `json:"package_types" validate:"omitempty,max=5,dive,oneof=deb flatpak snap appimage source"`
	Tags           []string `json:"tags" validate:"omitempty,max=10,dive,max=30"`
}

func (in AppUpdateInput) patch() domain.AppPatch {
	return domain.AppPatch{
		Name:           trimPtr(in.Name),
		ShortDesc:      trimPtr(in.ShortDesc),
		ShortDescEN:    trimPtr(in.ShortDescEN),
		Description:    trimPtr(in.Description),
		CategoryID:     in.CategoryID,
		WebsiteURL:     trimPtr(in.WebsiteURL),
		DownloadURL:    trimPtr(in.DownloadURL),
		SourceCodeURL:  trimPtr(in.SourceCodeURL),
		InstallCommand: trimPtr(in.InstallCommand),
		License:        trimPtr(in.License),
	}
}

type CreatedApp struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

// Slugify lowercases name, drops everything but ASCII letters, digits,
// whitespace and hyphens, turns whitespace runs into hyphens and cuts the
// result at 80 bytes.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	return s
}

// Create inserts an app owned by the caller along with its tags and
// package types.
func (s *AppService) Create(ctx context.Context, caller domain.Caller, in AppInput) (CreatedApp, error) {
	l := slogx.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.ShortDesc = strings.TrimSpace(in.ShortDesc)
	in.Tags = normalizeTags(in.Tags)
	if err := validateStruct(in); err != nil {
		return CreatedApp{}, err
	}

	slug := strings.Trim(Slugify(in.Name), "-")
	if slug == "" {
		return CreatedApp{}, invalidField("name", "must contain latin letters or digits")
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return CreatedApp{}, err
	}

	now := s.now()
	app := domain.App{
		ID:             idx.NewAt(now).String(),
		Slug:           slug,
		Name:           in.Name,
		ShortDesc:      in.ShortDesc,
		ShortDescEN:    trimPtr(in.ShortDescEN),
		Description:    trimPtr(in.Description),
		CategoryID:     in.CategoryID,
		WebsiteURL:     trimPtr(in.WebsiteURL),
		DownloadURL:    trimPtr(in.DownloadURL),
		SourceCodeURL:  trimPtr(in.SourceCodeURL),
		InstallCommand: trimPtr(in.InstallCommand),
		License:        trimPtr(in.License),
		UserID:         caller.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Apps().CreateApp(ctx, app); err != nil {
			return err
		}
		if err := tx.Apps().ReplaceTags(ctx, app.ID, in.Tags); err != nil {
			return err
		}
		return tx.Apps().ReplacePackageTypes(ctx, app.ID, dedupe(in.PackageTypes))
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return CreatedApp{}, ErrSlugTaken
		}
		l.Error("failed to create app", "error", err)
		return CreatedApp{}, fmt.Errorf("create app: %w", err)
	}

	l.Info("app created", "app_id", app.ID, "slug", slug)
	purgeApp(ctx, s.Cache, slug)
	return CreatedApp{ID: app.ID, Slug: slug}, nil
}

// Update applies a partial edit. Only the owner or an admin may edit. The
// slug never changes.
func (s *AppService) Update(ctx context.Context, caller domain.Caller, appID string, in AppUpdateInput) error {
	app, err := s.authorize(ctx, caller, appID)
	if err != nil {
		return err
	}

	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
	}
	if in.ShortDesc != nil {
		*in.ShortDesc = strings.TrimSpace(*in.ShortDesc)
	}
	if in.Tags != nil {
		in.Tags = normalizeTags(in.Tags)
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, *in.CategoryID); err != nil {
			return err
		}
	}

	patch := in.patch()
	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if !patch.Empty() {
			if err := tx.Apps().UpdateApp(ctx, app.ID, patch, now); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := tx.Apps().ReplaceTags(ctx, app.ID, in.Tags); err != nil {
				return err
			}
		}
		if in.PackageTypes != nil {
			if err := tx.Apps().ReplacePackageTypes(ctx, app.ID, dedupe(in.PackageTypes)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppNotFound
		}
		return fmt.Errorf("update app: %w", err)
	}

	slogx.FromContext(ctx).Info("app updated", "app_id", app.ID)
	purgeApp(ctx, s.Cache, app.Slug)
	return nil
}

// Delete removes an app, its rows in dependent tables and, best effort, its
// media objects.
func (s *AppService) Delete(ctx context.Context, caller domain.Caller, appID string) error {
	l := slogx.FromContext(ctx)

	app, err := s.authorize(ctx, caller, appID)
	if err != nil {
		return err
	}

	media, err := s.Store.Media().ListMediaByApp(ctx, app.ID)
	if err != nil {
		return fmt.Errorf("list media: %w", err)
	}

	if err := s.Store.Apps().DeleteApp(ctx, app.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppNotFound
		}
		return fmt.Errorf("delete app: %w", err)
	}

	if s.Blobs != nil {
		for _, m := range media {
			if err := s.Blobs.Delete(ctx, m.ObjectKey); err != nil && !errors.Is(err, blobx.ErrNotFound) {
				l.Warn("failed to delete media object", "key", m.ObjectKey, "error", err)
			}
		}
	}

	l.Info("app deleted", "app_id", app.ID, "media", len(media))
	purgeApp(ctx, s.Cache, app.Slug)
	return nil
}

// SetFeatured toggles the featured flag. Admin only; the route enforces it.
func (s *AppService) SetFeatured(ctx context.Context, appID string, featured bool) error {
	return s.setFlag(ctx, appID, func(apps store.Apps, now time.Time) error {
		return apps.SetFeatured(ctx, appID, featured, now)
	})
}

// SetVerified toggles the verified badge. Admin only; the route enforces it.
func (s *AppService) SetVerified(ctx context.Context, appID string, verified bool) error {
	return s.setFlag(ctx, appID, func(apps store.Apps, now time.Time) error {
		return apps.SetVerified(ctx, appID, verified, now)
	})
}

func (s *AppService) setFlag(ctx context.Context, appID string, set func(store.Apps, time.Time) error) error {
	app, err := s.Store.Apps().GetAppByID(ctx, appID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppNotFound
		}
		return fmt.Errorf("load app: %w", err)
	}
	if err := set(s.Store.Apps(), s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppNotFound
		}
		return fmt.Errorf("update app flag: %w", err)
	}

	purgeApp(ctx, s.Cache, app.Slug)
	return nil
}

// authorize loads the app and checks the caller may modify it.
func (s *AppService) authorize(ctx context.Context, caller domain.Caller, appID string) (domain.App, error) {
	return authorizeApp(ctx, s.Store, caller, appID)
}

func authorizeApp(ctx context.Context, st store.Store, caller domain.Caller, appID string) (domain.App, error) {
	app, err := st.Apps().GetAppByID(ctx, appID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.App{}, ErrAppNotFound
		}
		return domain.App{}, fmt.Errorf("load app: %w", err)
	}
	if !caller.CanModify(app.UserID) {
		slogx.FromContext(ctx).Warn("app modification denied", "app_id", app.ID)
		return domain.App{}, ErrForbidden
	}
	return app, nil
}

func (s *AppService) checkCategory(ctx context.Context, id int64) error {
	ok, err := s.Store.Categories().CategoryExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return invalidField("category_id", "unknown category")
	}
	return nil
}

// normalizeTags lowercases and trims tags, dropping empties and repeats.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
