package db

import (
	"context"
	"strings"
	"time"

	"github.com/theLastOfCats/contentgate/internal/model"
)

const userColumns = `id, email, username, password_hash, is_admin, is_vip, vip_expiration_date, is_disabled,
	stripe_subscription_id, password_reset_token_hash, password_reset_token_expires_at, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, email, username, passwordHash string) (*model.User, error) {
	now := model.Now()
	query := `INSERT INTO users (email, username, password_hash, is_admin, is_vip, is_disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{normalizeEmail(email), username, passwordHash, false, false, false, now, now}

	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return nil, duplicate(err)
	}
	return db.GetUserByID(ctx, id)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	if err := db.GetContext(ctx, &user, db.Rebind(query), arg); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, "id = ?", id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email = ?", normalizeEmail(email))
}

func (db *DB) GetUserBySubscriptionID(ctx context.Context, subscriptionID string) (*model.User, error) {
	return db.getUser(ctx, "stripe_subscription_id = ?", subscriptionID)
}

func (db *DB) GetUserByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	return db.getUser(ctx, "password_reset_token_hash = ?", tokenHash)
}

func (db *DB) SetPasswordResetToken(ctx context.Context, userID int64, tokenHash string, expiresAt int64) error {
	query := `UPDATE users SET password_reset_token_hash = ?, password_reset_token_expires_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, db.Rebind(query), tokenHash, expiresAt, userID)
	return err
}

func (db *DB) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, db.Rebind(query), passwordHash, model.Now(), userID)
	return err
}

func (db *DB) ClearResetToken(ctx context.Context, userID int64) error {
	query := `UPDATE users SET password_reset_token_hash = NULL, password_reset_token_expires_at = NULL WHERE id = ?`
	_, err := db.ExecContext(ctx, db.Rebind(query), userID)
	return err
}

// ProfileUpdate holds the optional fields a user may change on their own account.
type ProfileUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

func (db *DB) UpdateProfile(ctx context.Context, userID int64, u ProfileUpdate) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{model.Now()}
	if u.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *u.Username)
	}
	if u.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, normalizeEmail(*u.Email))
	}
	if u.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *u.PasswordHash)
	}
	args = append(args, userID)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := db.ExecContext(ctx, db.Rebind(query), args...); err != nil {
		return nil, duplicate(err)
	}
	return db.GetUserByID(ctx, userID)
}

func (db *DB) DeleteUser(ctx context.Context, userID int64) error {
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListUsers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, err
	}

	users := []model.User{}
	query := "SELECT " + userColumns + " FROM users ORDER BY id ASC LIMIT ? OFFSET ?"
	if err := db.SelectContext(ctx, &users, db.Rebind(query), limit, offset); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetVip marks the user VIP until expiresAt. A nil subscriptionID leaves the stored id untouched.
func (db *DB) SetVip(ctx context.Context, userID int64, expiresAt time.Time, subscriptionID *string) error {
	query := `UPDATE users SET is_vip = ?, vip_expiration_date = ?, updated_at = ?`
	args := []any{true, model.NewTime(expiresAt), model.Now()}
	if subscriptionID != nil {
		query += `, stripe_subscription_id = ?`
		args = append(args, *subscriptionID)
	}
	query += ` WHERE id = ?`
	args = append(args, userID)

	_, err := db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

// ClearSubscription forgets a subscription id. VIP status and expiration are left as they are.
func (db *DB) ClearSubscription(ctx context.Context, subscriptionID string) (int64, error) {
	query := `UPDATE users SET stripe_subscription_id = NULL, updated_at = ? WHERE stripe_subscription_id = ?`
	res, err := db.ExecContext(ctx, db.Rebind(query), model.Now(), subscriptionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpiredVips lists VIP users whose expiration date is before now.
func (db *DB) ExpiredVips(ctx context.Context, now time.Time) ([]model.User, error) {
	users := []model.User{}
	query := "SELECT " + userColumns + ` FROM users
		WHERE is_vip = ? AND vip_expiration_date IS NOT NULL AND vip_expiration_date < ?
		ORDER BY id ASC`
	if err := db.SelectContext(ctx, &users, db.Rebind(query), true, now.UnixMilli()); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) ClearVip(ctx context.Context, userID int64) error {
	query := `UPDATE users SET is_vip = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, db.Rebind(query), false, model.Now(), userID)
	return err
}

func (db *DB) SetDisabled(ctx context.Context, userID int64, disabled bool) (*model.User, error) {
	if _, err := db.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	query := `UPDATE users SET is_disabled = ?, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, db.Rebind(query), disabled, model.Now(), userID); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
