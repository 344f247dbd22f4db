package explorer_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/explorer/pkg/explorersdk"
	"github.com/stretchr/testify/require"
)

// TestCatalogueFlow walks one app through submission, moderation, review
// and media upload against a running container.
func TestCatalogueFlow(t *testing.T) {
	baseURL := setupExplorerContainer(t, nil)
	client := explorersdk.NewClient(baseURL)
	ctx := t.Context()

	admin := registerAndLogin(t, client, adminEmail, adminPassword, "Admin")
	require.Equal(t, "admin", admin.User().Role)

	owner := registerAndLogin(t, client, "owner@example.com", "secret1", "Owner")
	require.Equal(t, "user", owner.User().Role)
	require.False(t, owner.User().EmailVerified)

	reviewer := registerAndLogin(t, client, "reviewer@example.com", "secret1", "Reviewer")

	created, err := owner.CreateApp(ctx, explorersdk.AppInput{
		Name:         "Hello World",
		ShortDesc:    "Says hello",
		CategoryID:   firstCategory(t, client),
		PackageTypes: []string{"flatpak"},
		Tags:         []string{"CLI", "demo"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello-world", created.Slug)

	t.Run("duplicate slug is a conflict", func(t *testing.T) {
		_, err := owner.CreateApp(ctx, explorersdk.AppInput{
			Name:       "Hello World",
			ShortDesc:  "Again",
			CategoryID: firstCategory(t, client),
		})
		require.True(t, explorersdk.IsStatus(err, http.StatusConflict), "got %v", err)
	})

	t.Run("only the owner edits", func(t *testing.T) {
		err := reviewer.UpdateApp(ctx, created.ID, map[string]any{"short_desc": "hijacked"})
		require.True(t, explorersdk.IsStatus(err, http.StatusForbidden), "got %v", err)

		require.NoError(t, owner.UpdateApp(ctx, created.ID, map[string]any{"short_desc": "Says hello politely"}))

		app, err := client.GetApp(ctx, created.Slug)
		require.NoError(t, err)
		require.Equal(t, "Says hello politely", app.ShortDesc)
		require.ElementsMatch(t, []string{"cli", "demo"}, app.Tags)
	})

	t.Run("featuring is admin only", func(t *testing.T) {
		err := owner.SetFeatured(ctx, created.ID, true)
		require.True(t, explorersdk.IsStatus(err, http.StatusForbidden), "got %v", err)

		require.NoError(t, admin.SetFeatured(ctx, created.ID, true))
		require.NoError(t, admin.SetVerified(ctx, created.ID, true))

		page, err := client.ListApps(ctx, explorersdk.ListAppsParams{Featured: true})
		require.NoError(t, err)
		require.Len(t, page.Apps, 1)
		require.True(t, page.Apps[0].IsVerified)
	})

	t.Run("reviews update the rating", func(t *testing.T) {
		reviewID, err := reviewer.CreateReview(ctx, created.ID, explorersdk.ReviewInput{Rating: 4, Content: "Nice"})
		require.NoError(t, err)

		_, err = reviewer.CreateReview(ctx, created.ID, explorersdk.ReviewInput{Rating: 5, Content: "Again"})
		require.True(t, explorersdk.IsStatus(err, http.StatusConflict), "got %v", err)

		_, err = owner.Reply(ctx, reviewID, "Thanks!")
		require.NoError(t, err)

		helpful, err := owner.ToggleHelpful(ctx, reviewID)
		require.NoError(t, err)
		require.True(t, helpful)

		app, err := client.GetApp(ctx, created.Slug)
		require.NoError(t, err)
		require.Equal(t, 1, app.ReviewCount)
		require.InDelta(t, 4.0, app.AvgRating, 0.001)
		require.Len(t, app.Reviews, 1)
		require.Equal(t, 1, app.Reviews[0].HelpfulCount)
		require.Len(t, app.Reviews[0].Replies, 1)
	})

	t.Run("icon upload is served back", func(t *testing.T) {
		image := "\x89PNG e2e icon"
		res, err := owner.UploadIcon(ctx, explorersdk.Upload{
			AppID:       created.ID,
			Filename:    "icon.png",
			ContentType: "image/png",
			Body:        strings.NewReader(image),
		})
		require.NoError(t, err)

		u, err := url.Parse(res.URL)
		require.NoError(t, err)

		resp, err := http.Get(baseURL + u.Path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, image, string(body))
	})

	t.Run("delete removes the app", func(t *testing.T) {
		require.NoError(t, owner.DeleteApp(ctx, created.ID))

		_, err := client.GetApp(ctx, created.Slug)
		require.True(t, explorersdk.IsStatus(err, http.StatusNotFound), "got %v", err)
	})
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	baseURL := setupExplorerContainer(t, nil)
	client := explorersdk.NewClient(baseURL)

	session := registerAndLogin(t, client, "someone@example.com", "secret1", "Someone")
	_, err := session.Me(t.Context())
	require.NoError(t, err)

	forged := client.NewSession(session.Token() + "x")
	_, err = forged.Me(t.Context())
	require.True(t, explorersdk.IsStatus(err, http.StatusUnauthorized), "got %v", err)
}
