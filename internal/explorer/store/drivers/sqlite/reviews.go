package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
)

type reviewsRepo struct {
	db dbtx
}

const reviewSelect = `SELECT r.id, r.app_id, r.user_id, r.rating, r.title, r.content, r.helpful_count,
	r.created_at, u.display_name
	FROM reviews r
	JOIN users u ON r.user_id = u.id`

func scanReview(row scanner) (domain.Review, error) {
	var (
		rv      domain.Review
		title   sql.NullString
		created string
	)
	err := row.Scan(&rv.ID, &rv.AppID, &rv.UserID, &rv.Rating, &title, &rv.Content,
		&rv.HelpfulCount, &created, &rv.UserDisplayName)
	if err != nil {
		return domain.Review{}, err
	}
	rv.Title = mapNullString(title)
	rv.CreatedAt = parseTime(created)
	return rv, nil
}

const replySelect = `SELECT p.id, p.review_id, p.user_id, p.content, p.created_at, u.display_name
	FROM review_replies p
	JOIN users u ON p.user_id = u.id`

func scanReply(row scanner) (domain.Reply, error) {
	var (
		rp      domain.Reply
		created string
	)
	if err := row.Scan(&rp.ID, &rp.ReviewID, &rp.UserID, &rp.Content, &created, &rp.UserDisplayName); err != nil {
		return domain.Reply{}, err
	}
	rp.CreatedAt = parseTime(created)
	return rp, nil
}

func (r *reviewsRepo) CreateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, app_id, user_id, rating, title, content, helpful_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		rv.ID, rv.AppID, rv.UserID, rv.Rating, mapOptionalString(rv.Title), rv.Content, formatTime(rv.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *reviewsRepo) GetReviewByID(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return domain.Review{}, mapNotFound(err)
	}
	return rv, nil
}

func (r *reviewsRepo) ListReviewsByApp(ctx context.Context, appID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		reviewSelect+` WHERE r.app_id = ? ORDER BY r.created_at DESC, r.id DESC`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *reviewsRepo) DeleteReview(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id))
}

func (r *reviewsRepo) CreateReply(ctx context.Context, rp domain.Reply) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO review_replies (id, review_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rp.ID, rp.ReviewID, rp.UserID, rp.Content, formatTime(rp.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *reviewsRepo) GetReplyByID(ctx context.Context, id string) (domain.Reply, error) {
	rp, err := scanReply(r.db.QueryRowContext(ctx, replySelect+` WHERE p.id = ?`, id))
	if err != nil {
		return domain.Reply{}, mapNotFound(err)
	}
	return rp, nil
}

// ListRepliesByApp returns replies to every review of the app, oldest first.
func (r *reviewsRepo) ListRepliesByApp(ctx context.Context, appID string) ([]domain.Reply, error) {
	rows, err := r.db.QueryContext(ctx, replySelect+`
		JOIN reviews r ON p.review_id = r.id
		WHERE r.app_id = ?
		ORDER BY p.created_at ASC, p.id ASC`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reply{}
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (r *reviewsRepo) DeleteReply(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM review_replies WHERE id = ?`, id))
}

func (r *reviewsRepo) AddHelpfulVote(ctx context.Context, reviewID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO review_helpful (review_id, user_id) VALUES (?, ?)`, reviewID, userID)
	if err := mapConstraint(err); err != nil {
		return err
	}
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = ?`, reviewID))
}

func (r *reviewsRepo) RemoveHelpfulVote(ctx context.Context, reviewID, userID string) (bool, error) {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM review_helpful WHERE review_id = ? AND user_id = ?`, reviewID, userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE reviews SET helpful_count = MAX(0, helpful_count - 1) WHERE id = ?`, reviewID)
	return err == nil, err
}
