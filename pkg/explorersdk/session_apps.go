package explorersdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateApp submits a new app owned by the caller.
func (s *Session) CreateApp(ctx context.Context, in AppInput) (*CreatedApp, error) {
	var res CreatedApp
	if err := s.doJSON(ctx, http.MethodPost, "/api/apps", in, &res, http.StatusCreated); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateApp applies a partial update. Only the owner or an admin may.
func (s *Session) UpdateApp(ctx context.Context, id string, patch map[string]any) error {
	return s.doJSON(ctx, http.MethodPut, "/api/apps/"+url.PathEscape(id), patch, nil, http.StatusOK)
}

// DeleteApp removes an app with its media and reviews.
func (s *Session) DeleteApp(ctx context.Context, id string) error {
	return s.doJSON(ctx, http.MethodDelete, "/api/apps/"+url.PathEscape(id), nil, nil, http.StatusOK)
}

// SetFeatured toggles the featured flag. Admin only.
func (s *Session) SetFeatured(ctx context.Context, id string, featured bool) error {
	return s.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/apps/%s/featured", url.PathEscape(id)),
		map[string]bool{"featured": featured}, nil, http.StatusOK)
}

// SetVerified toggles the verified badge. Admin only.
func (s *Session) SetVerified(ctx context.Context, id string, verified bool) error {
	return s.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/apps/%s/verified", url.PathEscape(id)),
		map[string]bool{"verified": verified}, nil, http.StatusOK)
}
