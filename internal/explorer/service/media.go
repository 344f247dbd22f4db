package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
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
	IconMaxSize       = 200 << 10
	ScreenshotMaxSize = 2 << 20
	MaxScreenshots    = 5
)

// imageExt maps accepted content types to the stored file extension.
var imageExt = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

var (
	errIconType       = &MediaError{Kind: ErrUnsupportedMedia, Message: "Invalid file type. Allowed: PNG, JPG, WebP, SVG"}
	errIconSize       = &MediaError{Kind: ErrMediaTooLarge, Message: "Icon max size is 200KB"}
	errScreenshotType = &MediaError{Kind: ErrUnsupportedMedia, Message: "Screenshots: PNG, JPG, WebP only"}
	errScreenshotSize = &MediaError{Kind: ErrMediaTooLarge, Message: "Screenshot max size is 2MB"}
	errScreenshotMax  = &MediaError{Kind: ErrScreenshotLimit, Message: "Maximum 5 screenshots per app"}
)

type MediaService struct {
	Store store.Store
	Cache cachex.Cache
	Blobs blobx.Store

	// PublicURL prefixes object keys to form the image_url clients load.
	PublicURL string

	Now func() time.Time
}

func (s *MediaService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload is one file from a multipart form.
type Upload struct {
	AppID       string
	ContentType string
	Size        int64
	Body        io.Reader
	Caption     *string
}

type UploadedMedia struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

func (s *MediaService) url(key string) string {
	return strings.TrimRight(s.PublicURL, "/") + "/" + key
}

func extFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return imageExt[mt]
}

// UploadIcon stores the app's icon, replacing the previous one.
func (s *MediaService) UploadIcon(ctx context.Context, caller domain.Caller, up Upload) (UploadedMedia, error) {
	l := slogx.FromContext(ctx)

	app, err := authorizeApp(ctx, s.Store, caller, up.AppID)
	if err != nil {
		return UploadedMedia{}, err
	}

	ext := extFor(up.ContentType)
	if ext == "" {
		return UploadedMedia{}, errIconType
	}
	if up.Size > IconMaxSize {
		return UploadedMedia{}, errIconSize
	}

	key := blobx.Join("icons", app.ID+"."+ext)
	if err := s.Blobs.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return UploadedMedia{}, fmt.Errorf("store icon: %w", err)
	}
	url := s.url(key)

	previous, err := s.upsertIcon(ctx, app.ID, key, url)
	if err != nil {
		l.Error("failed to record icon", "app_id", app.ID, "error", err)
		return UploadedMedia{}, err
	}
	if previous != "" && previous != key {
		if err := s.Blobs.Delete(ctx, previous); err != nil && !errors.Is(err, blobx.ErrNotFound) {
			l.Warn("failed to delete replaced icon", "key", previous, "error", err)
		}
	}

	l.Info("icon uploaded", "app_id", app.ID, "key", key, "size", up.Size)
	purgeApp(ctx, s.Cache, app.Slug)
	return UploadedMedia{URL: url}, nil
}

// upsertIcon points the app's icon row at key, creating it if needed, and
// returns the object key it replaced.
func (s *MediaService) upsertIcon(ctx context.Context, appID, key, url string) (string, error) {
	var previous string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		icon, err := tx.Media().GetIcon(ctx, appID)
		switch {
		case err == nil:
			previous = icon.ObjectKey
			return tx.Media().ReplaceObject(ctx, icon.ID, key, url)
		case errors.Is(err, store.ErrNotFound):
			return tx.Media().CreateMedia(ctx, domain.Media{
				ID:        idx.New().String(),
				AppID:     appID,
				Type:      domain.MediaIcon,
				ObjectKey: key,
				ImageURL:  url,
				CreatedAt: s.now(),
			})
		default:
			return err
		}
	})
	if err != nil {
		return "", fmt.Errorf("record icon: %w", err)
	}
	return previous, nil
}

// UploadScreenshot appends a screenshot. The per-app limit is checked
// before anything is written.
func (s *MediaService) UploadScreenshot(ctx context.Context, caller domain.Caller, up Upload) (UploadedMedia, error) {
	l := slogx.FromContext(ctx)

	app, err := authorizeApp(ctx, s.Store, caller, up.AppID)
	if err != nil {
		return UploadedMedia{}, err
	}

	count, err := s.Store.Media().CountScreenshots(ctx, app.ID)
	if err != nil {
		return UploadedMedia{}, fmt.Errorf("count screenshots: %w", err)
	}
	if count >= MaxScreenshots {
		return UploadedMedia{}, errScreenshotMax
	}

	ext := extFor(up.ContentType)
	if ext == "" || ext == "svg" {
		return UploadedMedia{}, errScreenshotType
	}
	if up.Size > ScreenshotMaxSize {
		return UploadedMedia{}, errScreenshotSize
	}

	key := blobx.Join("screenshots", app.ID, blobx.UniqueName("."+ext))
	if err := s.Blobs.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return UploadedMedia{}, fmt.Errorf("store screenshot: %w", err)
	}

	now := s.now()
	m := domain.Media{
		ID:        idx.NewAt(now).String(),
		AppID:     app.ID,
		Type:      domain.MediaScreenshot,
		ObjectKey: key,
		ImageURL:  s.url(key),
		Caption:   trimPtr(up.Caption),
		SortOrder: count + 1,
		CreatedAt: now,
	}
	if err := s.Store.Media().CreateMedia(ctx, m); err != nil {
		if derr := s.Blobs.Delete(ctx, key); derr != nil {
			l.Warn("failed to delete orphaned screenshot", "key", key, "error", derr)
		}
		return UploadedMedia{}, fmt.Errorf("record screenshot: %w", err)
	}

	l.Info("screenshot uploaded", "app_id", app.ID, "media_id", m.ID, "size", up.Size)
	purgeApp(ctx, s.Cache, app.Slug)
	return UploadedMedia{ID: m.ID, URL: m.ImageURL}, nil
}

// Delete removes a media row and its object. Only the app owner or an
// admin may delete.
func (s *MediaService) Delete(ctx context.Context, caller domain.Caller, mediaID string) error {
	l := slogx.FromContext(ctx)

	m, err := s.Store.Media().GetMediaByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("load media: %w", err)
	}
	app, err := authorizeApp(ctx, s.Store, caller, m.AppID)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			return ErrMediaNotFound
		}
		return err
	}

	if err := s.Blobs.Delete(ctx, m.ObjectKey); err != nil && !errors.Is(err, blobx.ErrNotFound) {
		l.Warn("failed to delete media object", "key", m.ObjectKey, "error", err)
	}
	if err := s.Store.Media().DeleteMedia(ctx, m.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("delete media: %w", err)
	}

	l.Info("media deleted", "media_id", m.ID, "app_id", app.ID)
	purgeApp(ctx, s.Cache, app.Slug)
	return nil
}

// Open streams a stored object. The caller closes the body.
func (s *MediaService) Open(ctx context.Context, key string) (*blobx.Object, error) {
	if !blobx.ValidKey(key) {
		return nil, ErrMediaNotFound
	}
	obj, err := s.Blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blobx.ErrNotFound) || errors.Is(err, blobx.ErrInvalidKey) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return obj, nil
}
