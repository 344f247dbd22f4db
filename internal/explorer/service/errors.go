package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput is the root of every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrForbidden             = errors.New("not authorized")

	ErrUserNotFound   = errors.New("user not found")
	ErrAppNotFound    = errors.New("app not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrReplyNotFound  = errors.New("reply not found")
	ErrMediaNotFound  = errors.New("media not found")

	ErrEmailTaken      = errors.New("email already registered")
	ErrSlugTaken       = errors.New("an app with a similar name already exists")
	ErrAlreadyReviewed = errors.New("you already reviewed this app")

	ErrScreenshotLimit  = errors.New("maximum 5 screenshots per app")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMediaTooLarge    = errors.New("media too large")
)

// ValidationError carries a message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// MediaError is a rejected upload. Message is safe to show to the client.
type MediaError struct {
	Kind    error
	Message string
}

func (e *MediaError) Error() string { return e.Message }
func (e *MediaError) Unwrap() error { return e.Kind }
