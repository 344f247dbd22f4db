package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, salt, display_name, role, email_verified,
	verify_token, reset_token, reset_token_expires, created_at, updated_at`

func scanUser(row scanner) (domain.User, error) {
	var (
		u                  domain.User
		verified           int
		verify, reset, exp sql.NullString
		created, updated   string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.DisplayName, &u.Role, &verified,
		&verify, &reset, &exp, &created, &updated)
	if err != nil {
		return domain.User{}, err
	}
	u.EmailVerified = verified != 0
	u.VerifyToken = mapNullString(verify)
	u.ResetToken = mapNullString(reset)
	u.ResetTokenExpires = mapNullTime(exp)
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	var expires sql.NullString
	if u.ResetTokenExpires != nil {
		expires = sql.NullString{String: formatTime(*u.ResetTokenExpires), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Salt, u.DisplayName, u.Role, boolInt(u.EmailVerified),
		mapOptionalString(u.VerifyToken), mapOptionalString(u.ResetToken), expires,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ConsumeVerifyToken(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified = 1, verify_token = NULL, updated_at = ?
		WHERE verify_token = ? AND email_verified = 0`,
		formatTime(now), token,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *usersRepo) SetVerifyToken(ctx context.Context, userID, token string, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users SET verify_token = ?, updated_at = ?
		WHERE id = ? AND email_verified = 0`,
		token, formatTime(now), userID,
	))
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID, token string, expires, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = ?, reset_token_expires = ?, updated_at = ?
		WHERE id = ?`,
		token, formatTime(expires), formatTime(now), userID,
	))
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, token, hash, salt string, now time.Time) (bool, error) {
	ts := formatTime(now)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, salt = ?, reset_token = NULL, reset_token_expires = NULL, updated_at = ?
		WHERE reset_token = ? AND reset_token_expires > ?`,
		hash, salt, ts, token, ts,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *usersRepo) UpdatePassword(ctx context.Context, userID, hash, salt string, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, salt = ?, updated_at = ? WHERE id = ?`,
		hash, salt, formatTime(now), userID,
	))
}

func (r *usersRepo) UpdateDisplayName(ctx context.Context, userID, displayName string, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`,
		displayName, formatTime(now), userID,
	))
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_expires = NULL
		WHERE reset_token IS NOT NULL AND reset_token_expires <= ?`,
		formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
