package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/idx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

type ReviewService struct {
	Store store.Store
	Cache cachex.Cache

	Now func() time.Time
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type ReviewInput struct {
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Title   *string `json:"title" validate:"omitempty,max=100"`
	Content string  `json:"content" validate:"required,min=1,max=2000"`
}

type ReplyInput struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// Create adds the caller's review of an app and refreshes the app's rating
// aggregate. A user reviews an app at most once.
func (s *ReviewService) Create(ctx context.Context, caller domain.Caller, appID string, in ReviewInput) (string, error) {
	l := slogx.FromContext(ctx)

	in.Title = trimPtr(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in); err != nil {
		return "", err
	}

	app, err := s.Store.Apps().GetAppByID(ctx, appID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrAppNotFound
		}
		return "", fmt.Errorf("load app: %w", err)
	}

	now := s.now()
	review := domain.Review{
		ID:        idx.NewAt(now).String(),
		AppID:     app.ID,
		UserID:    caller.UserID,
		Rating:    in.Rating,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Reviews().CreateReview(ctx, review); err != nil {
			return err
		}
		return tx.Apps().RecomputeRating(ctx, app.ID, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrAlreadyReviewed
		}
		l.Error("failed to create review", "app_id", app.ID, "error", err)
		return "", fmt.Errorf("create review: %w", err)
	}

	l.Info("review created", "review_id", review.ID, "app_id", app.ID, "rating", in.Rating)
	purgeApp(ctx, s.Cache, app.Slug)
	return review.ID, nil
}

// Reply adds the caller's reply under a review.
func (s *ReviewService) Reply(ctx context.Context, caller domain.Caller, reviewID string, in ReplyInput) (string, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in); err != nil {
		return "", err
	}

	review, err := s.review(ctx, reviewID)
	if err != nil {
		return "", err
	}

	now := s.now()
	reply := domain.Reply{
		ID:        idx.NewAt(now).String(),
		ReviewID:  review.ID,
		UserID:    caller.UserID,
		Content:   in.Content,
		CreatedAt: now,
	}
	if err := s.Store.Reviews().CreateReply(ctx, reply); err != nil {
		return "", fmt.Errorf("create reply: %w", err)
	}

	s.purge(ctx, review.AppID)
	return reply.ID, nil
}

// ToggleHelpful flips the caller's helpful vote on a review and reports
// whether the vote is now present.
func (s *ReviewService) ToggleHelpful(ctx context.Context, caller domain.Caller, reviewID string) (bool, error) {
	review, err := s.review(ctx, reviewID)
	if err != nil {
		return false, err
	}

	var helpful bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		removed, err := tx.Reviews().RemoveHelpfulVote(ctx, review.ID, caller.UserID)
		if err != nil || removed {
			return err
		}
		helpful = true
		return tx.Reviews().AddHelpfulVote(ctx, review.ID, caller.UserID)
	})
	if err != nil {
		return false, fmt.Errorf("toggle helpful: %w", err)
	}

	s.purge(ctx, review.AppID)
	return helpful, nil
}

// Delete removes a review and its replies and refreshes the app's rating.
// Only the author or an admin may delete.
func (s *ReviewService) Delete(ctx context.Context, caller domain.Caller, reviewID string) error {
	review, err := s.review(ctx, reviewID)
	if err != nil {
		return err
	}
	if !caller.CanModify(review.UserID) {
		return ErrForbidden
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Reviews().DeleteReview(ctx, review.ID); err != nil {
			return err
		}
		return tx.Apps().RecomputeRating(ctx, review.AppID, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}

	slogx.FromContext(ctx).Info("review deleted", "review_id", review.ID, "app_id", review.AppID)
	s.purge(ctx, review.AppID)
	return nil
}

// DeleteReply removes a reply. Only its author or an admin may delete.
func (s *ReviewService) DeleteReply(ctx context.Context, caller domain.Caller, replyID string) error {
	reply, err := s.Store.Reviews().GetReplyByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReplyNotFound
		}
		return fmt.Errorf("load reply: %w", err)
	}
	if !caller.CanModify(reply.UserID) {
		return ErrForbidden
	}
	review, err := s.review(ctx, reply.ReviewID)
	if err != nil {
		return err
	}

	if err := s.Store.Reviews().DeleteReply(ctx, reply.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReplyNotFound
		}
		return fmt.Errorf("delete reply: %w", err)
	}

	s.purge(ctx, review.AppID)
	return nil
}

func (s *ReviewService) review(ctx context.Context, id string) (domain.Review, error) {
	review, err := s.Store.Reviews().GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Review{}, ErrReviewNotFound
		}
		return domain.Review{}, fmt.Errorf("load review: %w", err)
	}
	return review, nil
}

// purge resolves the app's slug and drops its cached detail.
func (s *ReviewService) purge(ctx context.Context, appID string) {
	app, err := s.Store.Apps().GetAppByID(ctx, appID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to resolve app for cache purge", "app_id", appID, "error", err)
		return
	}
	purgeApp(ctx, s.Cache, app.Slug)
}
