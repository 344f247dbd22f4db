/*
Package explorersdk is a Go client for the App Explorer API.

# Client vs Session

Client covers the public endpoints: health probes, registration, login, the
app catalogue and categories. Login returns a Session, which carries the
bearer token and covers everything that needs an account.

	client := explorersdk.NewClient("http://localhost:8080")

	page, err := client.ListApps(ctx, explorersdk.ListAppsParams{Sort: "rating"})

	session, err := client.Login(ctx, "user@example.com", "secret1")
	created, err := session.CreateApp(ctx, explorersdk.AppInput{
		Name:       "Firefox",
		ShortDesc:  "Web browser",
		CategoryID: 1,
	})

# Errors

Any non-success response is returned as an *APIError holding the status code,
the server's error message and its validation details if present:

	var apiErr *explorersdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		// slug or email already taken
	}

Sessions do not refresh. A token past its expiry yields 401 and the caller
logs in again. Session is safe for concurrent use.
*/
package explorersdk
