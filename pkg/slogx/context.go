package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type (
	ctxKey     struct{}
	summaryKey struct{}
)

// summary collects attributes that should appear on the request's final
// http_request line even when they are added by an inner handler.
type summary struct {
	mu    sync.Mutex
	attrs []any
}

func (s *summary) add(args ...any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, args...)
	s.mu.Unlock()
}

func (s *summary) snapshot() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.attrs...)
}

// WithContext stores logger on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request scoped logger, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return With(ctx, "req_id", reqID)
}

// WithUser tags every later log line on ctx with the authenticated user.
func WithUser(ctx context.Context, userID string) context.Context {
	if s, ok := ctx.Value(summaryKey{}).(*summary); ok {
		s.add("user_id", userID)
	}
	return With(ctx, "user_id", userID)
}

// With derives a logger carrying args and stores it back on ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}
