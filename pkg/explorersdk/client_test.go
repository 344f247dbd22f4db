package explorersdk

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListAppsQuery(t *testing.T) {
	t.Parallel()

	require.Empty(t, ListAppsParams{}.query())

	q := ListAppsParams{Category: "dev", Tag: "go", Sort: "rating", Featured: true, Page: 2, Limit: 5}.query()
	require.True(t, strings.HasPrefix(q, "?"))
	require.Contains(t, q, "category=dev")
	require.Contains(t, q, "tag=go")
	require.Contains(t, q, "sort=rating")
	require.Contains(t, q, "featured=true")
	require.Contains(t, q, "page=2")
	require.Contains(t, q, "limit=5")
}

func TestLoginAndSessionCalls(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"id":"u1","email":"a@b.com","role":"user"}}`)
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"user":{"id":"u1","email":"a@b.com","display_name":"Ann","role":"user"}}`)
	})
	mux.HandleFunc("POST /api/apps", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid input","details":{"name":"is required"}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL + "/")

	_, err := client.Login(t.Context(), "a@b.com", "wrong")
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	require.Contains(t, err.Error(), "Invalid email or password")

	session, err := client.Login(t.Context(), "a@b.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "tok-1", session.Token())
	require.Equal(t, "u1", session.User().ID)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Ann", me.DisplayName)
	require.Equal(t, "Ann", session.User().DisplayName)

	_, err = session.CreateApp(t.Context(), AppInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Invalid input", apiErr.Message)
	require.JSONEq(t, `{"name":"is required"}`, string(apiErr.Details))
}

func TestErrorWithoutJSONBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).GetLiveness(t.Context())
	require.True(t, IsStatus(err, http.StatusBadGateway))
	require.Contains(t, err.Error(), "Bad Gateway")
}

func TestUploadSendsMultipart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload/screenshot", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "app-1", r.FormValue("app_id"))
		require.Equal(t, "home", r.FormValue("caption"))

		f, h, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "image/png", h.Header.Get("Content-Type"))

		_, _ = io.WriteString(w, `{"id":"m1","url":"http://x/r2/a.png","message":"Screenshot uploaded"}`)
	}))
	t.Cleanup(srv.Close)

	session := NewClient(srv.URL).NewSession("tok")
	res, err := session.UploadScreenshot(t.Context(), Upload{
		AppID:       "app-1",
		Filename:    "a.png",
		ContentType: "image/png",
		Body:        strings.NewReader("\x89PNG"),
		Caption:     "home",
	})
	require.NoError(t, err)
	require.Equal(t, "m1", res.ID)
	require.Equal(t, "http://x/r2/a.png", res.URL)
}
