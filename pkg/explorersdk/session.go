package explorersdk

import (
	"context"
	"net/http"
	"sync"
)

// Session is an authenticated view of the API.
type Session struct {
	client *Client

	mu    sync.RWMutex
	token string
	user  User
}

// Token returns the bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the account the session was opened for, as of login or the
// last Me call.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Me reloads the caller's profile.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var res userEnvelope
	if err := s.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &res, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = res.User
	s.mu.Unlock()

	return &res.User, nil
}

// UpdateProfile changes the display name.
func (s *Session) UpdateProfile(ctx context.Context, displayName string) (*User, error) {
	var res userEnvelope
	err := s.doJSON(ctx, http.MethodPut, "/api/auth/me",
		map[string]string{"display_name": displayName}, &res, http.StatusOK)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = res.User
	s.mu.Unlock()

	return &res.User, nil
}

// ChangePassword replaces the password. The current session stays valid.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	return s.doJSON(ctx, http.MethodPost, "/api/auth/change-password",
		map[string]string{"current_password": current, "new_password": next}, nil, http.StatusOK)
}

// ResendVerification emails a fresh verification link.
func (s *Session) ResendVerification(ctx context.Context, locale string) error {
	return s.doJSON(ctx, http.MethodPost, "/api/auth/resend-verification",
		map[string]string{"locale": locale}, nil, http.StatusOK)
}

func (s *Session) doJSON(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	return s.client.doJSON(ctx, method, path, s.Token(), body, target, expectedStatus)
}
