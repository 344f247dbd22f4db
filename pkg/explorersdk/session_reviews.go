package explorersdk

import (
	"context"
	"net/http"
	"net/url"
)

// CreateReview rates an app. A user reviews an app at most once.
func (s *Session) CreateReview(ctx context.Context, appID string, in ReviewInput) (string, error) {
	var res IDResponse
	err := s.doJSON(ctx, http.MethodPost, "/api/apps/"+url.PathEscape(appID)+"/reviews", in, &res, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// Reply answers a review.
func (s *Session) Reply(ctx context.Context, reviewID, content string) (string, error) {
	var res IDResponse
	err := s.doJSON(ctx, http.MethodPost, "/api/reviews/"+url.PathEscape(reviewID)+"/reply",
		map[string]string{"content": content}, &res, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// ToggleHelpful flips the caller's helpful vote and reports the new state.
func (s *Session) ToggleHelpful(ctx context.Context, reviewID string) (bool, error) {
	var res struct {
		Helpful bool `json:"helpful"`
	}
	err := s.doJSON(ctx, http.MethodPost, "/api/reviews/"+url.PathEscape(reviewID)+"/helpful", nil, &res, http.StatusOK)
	if err != nil {
		return false, err
	}
	return res.Helpful, nil
}

// DeleteReview removes a review with its replies.
func (s *Session) DeleteReview(ctx context.Context, reviewID string) error {
	return s.doJSON(ctx, http.MethodDelete, "/api/reviews/"+url.PathEscape(reviewID), nil, nil, http.StatusOK)
}

// DeleteReply removes a single reply.
func (s *Session) DeleteReply(ctx context.Context, replyID string) error {
	return s.doJSON(ctx, http.MethodDelete, "/api/replies/"+url.PathEscape(replyID), nil, nil, http.StatusOK)
}
