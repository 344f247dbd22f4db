package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

type registerResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type userResponse struct {
	User domain.PublicUser `json:"user"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type localeRequest struct {
	Locale string `json:"locale"`
}

// HandleRegister creates an account and sends the verification email.
//
//	@Summary		Register
//	@Description	Creates an unverified account and emails a verification link. The role is admin when the email is on the configured allow-list.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.RegisterInput	true	"Account details"
//	@Success		201		{object}	registerResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		409		{object}	httpx.ErrorBody	"Email already registered"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limit exceeded"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.Origin = r.Header.Get("Origin")

	id, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "Registered. Check email for verification.",
		ID:      id,
	})
}

// HandleLogin exchanges credentials for a session token.
//
//	@Summary		Login
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.LoginInput	true	"Credentials"
//	@Success		200		{object}	service.LoginResult
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid email or password"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limit exceeded"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeBody(w, r, &in) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleVerifyEmail consumes a verification token.
//
//	@Summary		Verify email
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tokenRequest	true	"Verification token"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		400		{object}	httpx.ErrorBody	"Token required, or invalid or expired token"
//	@Router			/api/auth/verify-email [post].
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Token required")
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Email verified")
}

// HandleResendVerification emails a fresh verification link to the caller.
//
//	@Summary		Resend verification email
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		localeRequest	false	"Email locale"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/auth/resend-verification [post].
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req localeRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	if err := h.AuthService.ResendVerification(r.Context(), userID, req.Locale, r.Header.Get("Origin")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Verification email sent")
}

// HandleForgotPassword starts a password reset. The answer never reveals
// whether the email is registered.
//
//	@Summary		Forgot password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.ForgotPasswordInput	true	"Account email"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		400		{object}	httpx.ErrorBody	"Email required"
//	@Router			/api/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in service.ForgotPasswordInput
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email required")
		return
	}
	in.Origin = r.Header.Get("Origin")

	if err := h.AuthService.ForgotPassword(r.Context(), in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "If the email exists, a reset link has been sent.")
}

// HandleResetPassword sets a new password from a reset token.
//
//	@Summary		Reset password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.ResetPasswordInput	true	"Reset token and new password"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input, or invalid or expired token"
//	@Router			/api/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in service.ResetPasswordInput
	if !decodeBody(w, r, &in) {
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password reset successful")
}

// HandleMe returns the caller's account.
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	userResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Failure		404	{object}	httpx.ErrorBody	"User not found"
//	@Security		BearerAuth
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{User: u})
}

// HandleUpdateProfile renames the caller.
//
//	@Summary		Update profile
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.UpdateProfileInput	true	"New display name"
//	@Success		200		{object}	userResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/auth/me [put].
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateProfileInput
	if !decodeBody(w, r, &in) {
		return
	}

	u, err := h.AuthService.UpdateProfile(r.Context(), httpx.UserIDFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{User: u})
}

// HandleChangePassword replaces the caller's password.
//
//	@Summary		Change password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.ChangePasswordInput	true	"Current and new password"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input or wrong current password"
//	@Failure		401		{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/auth/change-password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in service.ChangePasswordInput
	if !decodeBody(w, r, &in) {
		return
	}

	err := h.AuthService.ChangePassword(r.Context(), httpx.UserIDFromContext(r.Context()), in)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password changed")
}
