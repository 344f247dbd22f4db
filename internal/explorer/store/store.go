package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx can hand out the same repos bound to the
// transaction, and so nobody can open a transaction inside one.
type Store interface {
	Users() Users
	Categories() Categories
	Apps() Apps
	Reviews() Reviews
	Media() Media

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when it returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. A taken email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ConsumeVerifyToken marks the owner of token verified and clears the
	// token in one statement. ok is false when no unverified user holds it.
	ConsumeVerifyToken(ctx context.Context, token string, now time.Time) (ok bool, err error)

	// SetVerifyToken replaces the verification token of an unverified user.
	// ErrNotFound covers both unknown and already verified users.
	SetVerifyToken(ctx context.Context, userID, token string, now time.Time) error

	// SetResetToken stores a reset token and its expiry.
	SetResetToken(ctx context.Context, userID, token string, expires, now time.Time) error

	// ConsumeResetToken sets the new credentials and clears the token in one
	// statement, provided the token is held by someone and expires after now.
	ConsumeResetToken(ctx context.Context, token, hash, salt string, now time.Time) (ok bool, err error)

	UpdatePassword(ctx context.Context, userID, hash, salt string, now time.Time) error
	UpdateDisplayName(ctx context.Context, userID, displayName string, now time.Time) error

	// ClearExpiredResetTokens nulls reset tokens whose expiry is not after now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Categories interface {
	// ListCategories returns every category ordered by id.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CategoryExists(ctx context.Context, id int64) (bool, error)
}

// AppSort picks one of the fixed ORDER BY clauses.
type AppSort string

const (
	SortNewest       AppSort = "newest"
	SortTopRated     AppSort = "top-rated"
	SortMostReviewed AppSort = "most-reviewed"
	SortAZ           AppSort = "az"
	SortTrending     AppSort = "trending"
)

// AppFilter is a validated listing query. Values are bound as parameters,
// never spliced into SQL text.
type AppFilter struct {
	Query    string
	Category string
	Tag      string
	Featured bool
	Sort     AppSort
	Limit    int
	Offset   int
}

type Apps interface {
	// CreateApp inserts an app. A taken slug yields ErrAlreadyExists.
	CreateApp(ctx context.Context, a domain.App) error

	GetAppByID(ctx context.Context, id string) (domain.App, error)
	GetAppViewBySlug(ctx context.Context, slug string) (domain.AppView, error)

	// ListApps returns one page of apps matching f and the total match count.
	ListApps(ctx context.Context, f AppFilter) ([]domain.AppView, int, error)

	UpdateApp(ctx context.Context, id string, p domain.AppPatch, now time.Time) error
	DeleteApp(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool, now time.Time) error
	SetVerified(ctx context.Context, id string, verified bool, now time.Time) error

	// ReplaceTags and ReplacePackageTypes swap the whole set.
	ReplaceTags(ctx context.Context, appID string, tags []string) error
	ReplacePackageTypes(ctx context.Context, appID string, types []string) error

	// ListTags and ListPackageTypes are keyed by app id.
	ListTags(ctx context.Context, appIDs ...string) (map[string][]string, error)
	ListPackageTypes(ctx context.Context, appIDs ...string) (map[string][]string, error)

	// RecomputeRating refreshes review_count and avg_rating (ROUND(AVG,1),
	// 0 with no reviews) from the reviews table.
	RecomputeRating(ctx context.Context, appID string, now time.Time) error
}

type Reviews interface {
	// CreateReview inserts a review. A second review by the same user on the
	// same app yields ErrAlreadyExists.
	CreateReview(ctx context.Context, r domain.Review) error
	GetReviewByID(ctx context.Context, id string) (domain.Review, error)
	ListReviewsByApp(ctx context.Context, appID string) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id string) error

	CreateReply(ctx context.Context, r domain.Reply) error
	GetReplyByID(ctx context.Context, id string) (domain.Reply, error)
	ListRepliesByApp(ctx context.Context, appID string) ([]domain.Reply, error)
	DeleteReply(ctx context.Context, id string) error

	// AddHelpfulVote records a vote and bumps helpful_count.
	// ErrAlreadyExists when the user already voted.
	AddHelpfulVote(ctx context.Context, reviewID, userID string) error

	// RemoveHelpfulVote drops a vote and decrements helpful_count, never
	// below zero. removed is false when there was no vote.
	RemoveHelpfulVote(ctx context.Context, reviewID, userID string) (removed bool, err error)
}

type Media interface {
	// CreateMedia inserts a row. A second icon for an app yields ErrAlreadyExists.
	CreateMedia(ctx context.Context, m domain.Media) error
	GetMediaByID(ctx context.Context, id string) (domain.Media, error)
	GetIcon(ctx context.Context, appID string) (domain.Media, error)
	ListMediaByApp(ctx context.Context, appID string) ([]domain.Media, error)

	// ListIconURLs is keyed by app id; apps without an icon are absent.
	ListIconURLs(ctx context.Context, appIDs ...string) (map[string]string, error)

	CountScreenshots(ctx context.Context, appID string) (int, error)

	// ReplaceObject points an existing row at a new object.
	ReplaceObject(ctx context.Context, id, objectKey, imageURL string) error
	DeleteMedia(ctx context.Context, id string) error
}
