package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/pkg/cryptox"
	"github.com/aussiebroadwan/explorer/pkg/idx"
	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/aussiebroadwan/explorer/pkg/mailx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

// ResetTokenTTL is how long a password reset link stays usable.
const ResetTokenTTL = time.Hour

const mailTimeout = 10 * time.Second

// Used to spend the same PBKDF2 work on unknown emails as on real ones.
var (
	dummySalt   = cryptox.MustGenerateSalt()
	dummyDigest = cryptox.HashPassword("unused", dummySalt)
)

type AuthService struct {
	Store  store.Store
	Tokens jwtx.Signer
	Mailer mailx.Sender

	// AdminEmails are granted the admin role at registration. Lowercase.
	AdminEmails []string
	// LinkBase prefixes email links unless the request's Origin is one of
	// LinkOrigins.
	LinkBase    string
	LinkOrigins []string

	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=6,max=100"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
	Locale      string `json:"locale" validate:"omitempty,oneof=vi en"`

	// Origin of the calling page. It becomes the link base only when listed
	// in LinkOrigins.
	Origin string `json:"-"`
}

// Register creates an unverified account and emails a verification link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	l := slogx.FromContext(ctx)

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateStruct(in); err != nil {
		return "", err
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return "", err
	}
	verifyToken, err := cryptox.GenerateToken()
	if err != nil {
		return "", err
	}

	role := domain.RoleUser
	if slices.Contains(s.AdminEmails, in.Email) {
		role = domain.RoleAdmin
	}

	now := s.now()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		PasswordHash: cryptox.HashPassword(in.Password, salt),
		Salt:         salt,
		DisplayName:  in.DisplayName,
		Role:         role,
		VerifyToken:  &verifyToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		l.Error("failed to create user", "error", err)
		return "", fmt.Errorf("create user: %w", err)
	}

	l.Info("user registered", "user_id", u.ID, "role", role)
	s.sendMail(ctx, mailx.TemplateVerifyEmail, mailx.ParseLocale(in.Locale), u, in.Origin, verifyToken)
	return u.ID, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// Login exchanges email and password for a session token. Unknown email and
// wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.VerifyPassword(in.Password, dummyDigest, dummySalt)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if !cryptox.VerifyPassword(in.Password, u.PasswordHash, u.Salt) {
		slogx.FromContext(ctx).Warn("login failed", "user_id", u.ID)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.Tokens.Sign(jwtx.NewSessionClaims(u.ID, u.Email, u.Role, u.DisplayName))
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign session: %w", err)
	}

	return LoginResult{Token: token, User: u.Public()}, nil
}

// VerifyEmail consumes a verification token. A token works exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalidField("token", "is required")
	}
	if !cryptox.IsWellFormedToken(token) {
		return ErrInvalidOrExpiredToken
	}

	ok, err := s.Store.Users().ConsumeVerifyToken(ctx, token, s.now())
	if err != nil {
		return fmt.Errorf("consume verify token: %w", err)
	}
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	slogx.FromContext(ctx).Info("email verified", "token_fp", cryptox.FingerprintToken(token))
	return nil
}

// ResendVerification issues a fresh verification token to an unverified
// user. Already verified users get no email and no error.
func (s *AuthService) ResendVerification(ctx context.Context, userID, locale, origin string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.EmailVerified {
		return nil
	}

	token, err := cryptox.GenerateToken()
	if err != nil {
		return err
	}
	if err := s.Store.Users().SetVerifyToken(ctx, u.ID, token, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("set verify token: %w", err)
	}

	s.sendMail(ctx, mailx.TemplateVerifyEmail, mailx.ParseLocale(locale), u, origin, token)
	return nil
}

type ForgotPasswordInput struct {
	Email  string `json:"email"`
	Locale string `json:"locale"`
	Origin string `json:"-"`
}

// ForgotPassword stores a reset token valid for ResetTokenTTL and emails
// it. The outcome looks identical whether or not the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return invalidField("email", "is required")
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, err := cryptox.GenerateToken()
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.Store.Users().SetResetToken(ctx, u.ID, token, now.Add(ResetTokenTTL), now); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	s.sendMail(ctx, mailx.TemplateResetPassword, mailx.ParseLocale(in.Locale), u, in.Origin, token)
	return nil
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// ResetPassword sets a new password if the token is held by someone and has
// not expired. The token is cleared by the same statement.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := validateStruct(in); err != nil {
		return err
	}
	if !cryptox.IsWellFormedToken(in.Token) {
		return ErrInvalidOrExpiredToken
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return err
	}
	hash := cryptox.HashPassword(in.Password, salt)

	ok, err := s.Store.Users().ConsumeResetToken(ctx, in.Token, hash, salt, s.now())
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	slogx.FromContext(ctx).Info("password reset", "token_fp", cryptox.FingerprintToken(in.Token))
	return nil
}

// Me returns the public view of the caller's account.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.PublicUser, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PublicUser{}, ErrUserNotFound
		}
		return domain.PublicUser{}, fmt.Errorf("load user: %w", err)
	}
	return u.Public(), nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=100"`
}

// ChangePassword replaces the password after checking the current one.
// A fresh salt is drawn every time.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !cryptox.VerifyPassword(in.CurrentPassword, u.PasswordHash, u.Salt) {
		return ErrInvalidCredentials
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePassword(ctx, u.ID, cryptox.HashPassword(in.NewPassword, salt), salt, s.now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed", "user_id", u.ID)
	return nil
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
}

// UpdateProfile renames the caller. Existing session tokens keep the old
// display name until they are reissued.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (domain.PublicUser, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateStruct(in); err != nil {
		return domain.PublicUser{}, err
	}

	if err := s.Store.Users().UpdateDisplayName(ctx, userID, in.DisplayName, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PublicUser{}, ErrUserNotFound
		}
		return domain.PublicUser{}, fmt.Errorf("update display name: %w", err)
	}
	return s.Me(ctx, userID)
}

// linkBase only trusts exact matches; "*" in LinkOrigins matches nothing.
func (s *AuthService) linkBase(origin string) string {
	if origin != "" && origin != "*" && slices.Contains(s.LinkOrigins, origin) {
		return origin
	}
	return s.LinkBase
}

// sendMail renders and delivers a token email. Failures are logged and
// never returned.
func (s *AuthService) sendMail(ctx context.Context, tmpl mailx.Template, locale mailx.Locale, u domain.User, origin, token string) {
	l := slogx.FromContext(ctx)
	if s.Mailer == nil {
		return
	}

	msg, err := mailx.Render(tmpl, locale, u.Email, u.DisplayName, mailx.Link(s.linkBase(origin), tmpl, token))
	if err != nil {
		l.Error("failed to render email", "template", tmpl, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	if err := s.Mailer.Send(ctx, msg); err != nil {
		l.Error("failed to send email", "template", tmpl, "user_id", u.ID, "error", err)
	}
}
