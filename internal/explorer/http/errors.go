package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

const (
	msgInvalidInput   = "Invalid input"
	msgInternal       = "Internal server error"
	msgNotFound       = "Not found"
	msgNotAuthorized  = "Not authorized"
	msgInvalidToken   = "Invalid or expired token"
	msgBadCredentials = "Invalid email or password"
)

// writeServiceError maps a service error onto a status code and the
// {"error": ...} body. Anything it does not recognise is logged and
// reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var merr *service.MediaError

	switch {
	case errors.As(err, &verr):
		httpx.WriteErrorDetails(w, http.StatusBadRequest, msgInvalidInput, verr.Fields)
	case errors.As(err, &merr):
		httpx.WriteError(w, http.StatusBadRequest, merr.Message)
	case errors.Is(err, service.ErrScreenshotLimit):
		httpx.WriteError(w, http.StatusBadRequest, "Maximum 5 screenshots per app")
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidInput)

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, msgBadCredentials)
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidToken)
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, msgNotAuthorized)

	case errors.Is(err, service.ErrAppNotFound):
		httpx.WriteError(w, http.StatusNotFound, "App not found")
	case errors.Is(err, service.ErrReviewNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Review not found")
	case errors.Is(err, service.ErrReplyNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Reply not found")
	case errors.Is(err, service.ErrMediaNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Media not found")
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "User not found")

	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, service.ErrSlugTaken):
		httpx.WriteError(w, http.StatusConflict, "An app with a similar name already exists")
	case errors.Is(err, service.ErrAlreadyReviewed):
		httpx.WriteError(w, http.StatusConflict, "You already reviewed this app")

	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeBody decodes a JSON request body, answering 400 on failure.
// It reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		slogx.FromContext(r.Context()).Debug("bad request body", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidInput)
		return false
	}
	return true
}
