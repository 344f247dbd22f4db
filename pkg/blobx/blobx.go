// Package blobx stores uploaded media (icons, screenshots) as objects in an
// S3-compatible bucket. A memory driver backs tests and local development.
package blobx

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no object exists under the key.
	ErrNotFound = errors.New("blobx: object not found")
	// ErrInvalidKey rejects keys that are empty, absolute or escape their prefix.
	ErrInvalidKey = errors.New("blobx: invalid key")
)

// Object is an open blob. Callers must close Body.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Store is implemented by every blob driver.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// ValidKey reports whether key is a clean relative object path.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	return path.Clean(key) == key && !strings.HasPrefix(key, "../") && key != ".."
}

// Join builds a key from path segments, e.g. Join("icons", appID+".png").
func Join(parts ...string) string {
	return path.Join(parts...)
}

// UniqueName returns a random file name carrying ext (".png").
func UniqueName(ext string) string {
	return uuid.NewString() + ext
}
