package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/internal/explorer/store/drivers/sqlite"
	"github.com/aussiebroadwan/explorer/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "hash",
		Salt:         "salt",
		DisplayName:  email,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedApp(t *testing.T, s store.Store, owner domain.User, slug string, created time.Time) domain.App {
	t.Helper()

	a := domain.App{
		ID:         idx.NewAt(created).String(),
		Slug:       slug,
		Name:       slug,
		ShortDesc:  "short " + slug,
		CategoryID: 1,
		UserID:     owner.ID,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, s.Apps().CreateApp(context.Background(), a))
	return a
}

func seedReview(t *testing.T, s store.Store, app domain.App, user domain.User, rating int) domain.Review {
	t.Helper()

	rv := domain.Review{
		ID:        idx.New().String(),
		AppID:     app.ID,
		UserID:    user.ID,
		Rating:    rating,
		Content:   "review",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Reviews().CreateReview(context.Background(), rv))
	return rv
}

func TestMigrationsSeedCategories(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cats, err := s.Categories().ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 10)
	require.Equal(t, "development", cats[0].Slug)

	ok, err := s.Categories().CategoryExists(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Categories().CategoryExists(ctx, 99)
	require.NoError(t, err)
	require.False(t, ok)

	// Applying twice is a no-op.
	require.NoError(t, s.ApplyMigrations())
}

func TestUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "a@x.com")

	t.Run("duplicate email", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		_, err = s.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("verify token is single use", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, s.Users().SetVerifyToken(ctx, u.ID, "tok", now))

		ok, err := s.Users().ConsumeVerifyToken(ctx, "tok", now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Users().ConsumeVerifyToken(ctx, "tok", now)
		require.NoError(t, err)
		require.False(t, ok)

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.EmailVerified)
		require.Nil(t, got.VerifyToken)

		require.ErrorIs(t, s.Users().SetVerifyToken(ctx, u.ID, "again", now), store.ErrNotFound)
	})

	t.Run("reset token expiry", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "reset", now.Add(time.Hour), now))

		ok, err := s.Users().ConsumeResetToken(ctx, "reset", "newhash", "newsalt", now.Add(2*time.Hour))
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = s.Users().ConsumeResetToken(ctx, "reset", "newhash", "newsalt", now)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "newhash", got.PasswordHash)
		require.Nil(t, got.ResetToken)

		ok, err = s.Users().ConsumeResetToken(ctx, "reset", "x", "y", now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("clear expired reset tokens", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "stale", now, now))

		n, err := s.Users().ClearExpiredResetTokens(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})
}

func TestListApps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@x.com")
	r1 := seedUser(t, s, "r1@x.com")
	r2 := seedUser(t, s, "r2@x.com")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	alpha := seedApp(t, s, owner, "alpha", base)
	beta := seedApp(t, s, owner, "beta", base.Add(time.Hour))
	gamma := seedApp(t, s, owner, "gamma", base.Add(2*time.Hour))

	require.NoError(t, s.Apps().ReplaceTags(ctx, beta.ID, []string{"editor", "cli"}))
	require.NoError(t, s.Apps().SetFeatured(ctx, gamma.ID, true, base))

	seedReview(t, s, alpha, r1, 5)
	seedReview(t, s, beta, r1, 3)
	seedReview(t, s, beta, r2, 4)
	for _, a := range []domain.App{alpha, beta, gamma} {
		require.NoError(t, s.Apps().RecomputeRating(ctx, a.ID, base))
	}

	slugs := func(vs []domain.AppView) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = v.Slug
		}
		return out
	}

	tests := []struct {
		name  string
		f     store.AppFilter
		want  []string
		total int
	}{
		{"newest", store.AppFilter{Sort: store.SortNewest, Limit: 10}, []string{"gamma", "beta", "alpha"}, 3},
		{"top rated", store.AppFilter{Sort: store.SortTopRated, Limit: 10}, []string{"alpha", "beta", "gamma"}, 3},
		{"most reviewed", store.AppFilter{Sort: store.SortMostReviewed, Limit: 10}, []string{"beta", "alpha", "gamma"}, 3},
		{"az", store.AppFilter{Sort: store.SortAZ, Limit: 10}, []string{"alpha", "beta", "gamma"}, 3},
		{"tag", store.AppFilter{Tag: "cli", Limit: 10}, []string{"beta"}, 1},
		{"featured", store.AppFilter{Featured: true, Limit: 10}, []string{"gamma"}, 1},
		{"query", store.AppFilter{Query: "short gam", Limit: 10}, []string{"gamma"}, 1},
		{"category", store.AppFilter{Category: "games", Limit: 10}, []string{}, 0},
		{"page", store.AppFilter{Sort: store.SortAZ, Limit: 1, Offset: 1}, []string{"beta"}, 3},
		{"like wildcard is literal", store.AppFilter{Query: "%", Limit: 10}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.Apps().ListApps(ctx, tt.f)
			require.NoError(t, err)
			require.Equal(t, tt.total, total)
			require.Equal(t, tt.want, slugs(got))
		})
	}

	t.Run("rating recomputed", func(t *testing.T) {
		got, err := s.Apps().GetAppByID(ctx, beta.ID)
		require.NoError(t, err)
		require.Equal(t, 2, got.ReviewCount)
		require.InDelta(t, 3.5, got.AvgRating, 0.001)

		got, err = s.Apps().GetAppByID(ctx, gamma.ID)
		require.NoError(t, err)
		require.Zero(t, got.ReviewCount)
		require.Zero(t, got.AvgRating)
	})

	t.Run("tags keyed by app", func(t *testing.T) {
		tags, err := s.Apps().ListTags(ctx, alpha.ID, beta.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"cli", "editor"}, tags[beta.ID])
		require.Empty(t, tags[alpha.ID])
	})
}

func TestAppUpdateAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@x.com")
	now := time.Now().UTC()
	a := seedApp(t, s, owner, "app", now)

	dup := a
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Apps().CreateApp(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, s.Apps().UpdateApp(ctx, a.ID, domain.AppPatch{
		Name:    ptr("Renamed"),
		License: ptr("MIT"),
	}, now))

	view, err := s.Apps().GetAppViewBySlug(ctx, "app")
	require.NoError(t, err)
	require.Equal(t, "Renamed", view.Name)
	require.Equal(t, "MIT", *view.License)
	require.Equal(t, "development", view.CategorySlug)
	require.Equal(t, owner.DisplayName, view.UserDisplayName)

	require.NoError(t, s.Apps().UpdateApp(ctx, a.ID, domain.AppPatch{License: ptr("")}, now))
	got, err := s.Apps().GetAppByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.License)

	require.ErrorIs(t, s.Apps().UpdateApp(ctx, "missing", domain.AppPatch{Name: ptr("x")}, now), store.ErrNotFound)

	t.Run("delete cascades", func(t *testing.T) {
		rv := seedReview(t, s, a, owner, 4)
		require.NoError(t, s.Apps().ReplaceTags(ctx, a.ID, []string{"x"}))
		require.NoError(t, s.Media().CreateMedia(ctx, domain.Media{
			ID: idx.New().String(), AppID: a.ID, Type: domain.MediaIcon,
			ObjectKey: "icons/a.png", ImageURL: "/r2/icons/a.png", CreatedAt: now,
		}))

		require.NoError(t, s.Apps().DeleteApp(ctx, a.ID))

		_, err := s.Reviews().GetReviewByID(ctx, rv.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		media, err := s.Media().ListMediaByApp(ctx, a.ID)
		require.NoError(t, err)
		require.Empty(t, media)
		require.ErrorIs(t, s.Apps().DeleteApp(ctx, a.ID), store.ErrNotFound)
	})
}

func TestReviews(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@x.com")
	voter := seedUser(t, s, "voter@x.com")
	a := seedApp(t, s, owner, "app", time.Now().UTC())
	rv := seedReview(t, s, a, owner, 5)

	t.Run("one review per user per app", func(t *testing.T) {
		dup := rv
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Reviews().CreateReview(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("helpful votes", func(t *testing.T) {
		require.NoError(t, s.Reviews().AddHelpfulVote(ctx, rv.ID, voter.ID))
		require.ErrorIs(t, s.Reviews().AddHelpfulVote(ctx, rv.ID, voter.ID), store.ErrAlreadyExists)

		got, err := s.Reviews().GetReviewByID(ctx, rv.ID)
		require.NoError(t, err)
		require.Equal(t, 1, got.HelpfulCount)

		removed, err := s.Reviews().RemoveHelpfulVote(ctx, rv.ID, voter.ID)
		require.NoError(t, err)
		require.True(t, removed)

		removed, err = s.Reviews().RemoveHelpfulVote(ctx, rv.ID, voter.ID)
		require.NoError(t, err)
		require.False(t, removed)

		got, err = s.Reviews().GetReviewByID(ctx, rv.ID)
		require.NoError(t, err)
		require.Zero(t, got.HelpfulCount)
	})

	t.Run("replies oldest first", func(t *testing.T) {
		base := time.Now().UTC()
		for i, who := range []domain.User{voter, owner} {
			require.NoError(t, s.Reviews().CreateReply(ctx, domain.Reply{
				ID: idx.New().String(), ReviewID: rv.ID, UserID: who.ID,
				Content: "reply", CreatedAt: base.Add(time.Duration(i) * time.Second),
			}))
		}

		replies, err := s.Reviews().ListRepliesByApp(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, replies, 2)
		require.Equal(t, voter.ID, replies[0].UserID)
		require.Equal(t, voter.DisplayName, replies[0].UserDisplayName)
	})

	t.Run("delete review removes replies", func(t *testing.T) {
		require.NoError(t, s.Reviews().DeleteReview(ctx, rv.ID))
		replies, err := s.Reviews().ListRepliesByApp(ctx, a.ID)
		require.NoError(t, err)
		require.Empty(t, replies)
	})
}

func TestMedia(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@x.com")
	a := seedApp(t, s, owner, "app", time.Now().UTC())
	now := time.Now().UTC()

	icon := domain.Media{
		ID: idx.New().String(), AppID: a.ID, Type: domain.MediaIcon,
		ObjectKey: "icons/one.png", ImageURL: "/r2/icons/one.png", CreatedAt: now,
	}
	require.NoError(t, s.Media().CreateMedia(ctx, icon))

	second := icon
	second.ID = idx.New().String()
	require.ErrorIs(t, s.Media().CreateMedia(ctx, second), store.ErrAlreadyExists)

	for i := range 2 {
		require.NoError(t, s.Media().CreateMedia(ctx, domain.Media{
			ID: idx.New().String(), AppID: a.ID, Type: domain.MediaScreenshot,
			ObjectKey: "shots/x.png", ImageURL: "/r2/shots/x.png", SortOrder: i, CreatedAt: now,
		}))
	}

	n, err := s.Media().CountScreenshots(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := s.Media().ListMediaByApp(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, domain.MediaIcon, list[0].Type)

	require.NoError(t, s.Media().ReplaceObject(ctx, icon.ID, "icons/two.png", "/r2/icons/two.png"))
	got, err := s.Media().GetIcon(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "icons/two.png", got.ObjectKey)

	urls, err := s.Media().ListIconURLs(ctx, a.ID, "other")
	require.NoError(t, err)
	require.Equal(t, map[string]string{a.ID: "/r2/icons/two.png"}, urls)

	require.NoError(t, s.Media().DeleteMedia(ctx, icon.ID))
	_, err = s.Media().GetIcon(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now().UTC()
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "tx@x.com", PasswordHash: "h", Salt: "s",
			DisplayName: "tx", Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
		}))
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByEmail(ctx, "tx@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
