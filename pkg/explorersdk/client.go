package explorersdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the public surface of the API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession wraps an existing session token, for example one restored from
// storage.
func (c *Client) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": email, "password": password}, &res, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return &Session{client: c, token: res.Token, user: res.User}, nil
}

// Register creates an unverified account and returns its id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var res IDResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &res, http.StatusCreated); err != nil {
		return "", err
	}
	return res.ID, nil
}

// VerifyEmail consumes an emailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/verify-email", "",
		map[string]string{"token": token}, nil, http.StatusOK)
}

// ForgotPassword requests a reset email. The server answers the same way
// whether or not the address exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", "",
		map[string]string{"email": email}, nil, http.StatusOK)
}

// ResetPassword consumes an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", "",
		map[string]string{"token": token, "password": password}, nil, http.StatusOK)
}
