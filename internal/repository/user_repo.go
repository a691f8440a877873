package repository

import (
	"app/internal/model"
	"context"
	"database/sql"
	"errors"
	"time"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile persists full name and avatar changes.
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// UpdateSubscription stores the provider subscription id and local status.
	UpdateSubscription(ctx context.Context, userID string, subscriptionID *string, status model.SubscriptionStatus) error
	// SetResetToken stores or clears (with nils) the hashed reset token and expiry.
	SetResetToken(ctx context.Context, userID string, tokenHash *string, expiry *time.Time) error
	// GetUserByResetToken finds a user whose stored token hash matches and has not expired.
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	// ResetPassword sets a new password hash and clears the reset-token fields
	// in a single statement.
	ResetPassword(ctx context.Context, userID, passwordHash string) error
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `user_id, full_name, email, password_hash, role,
              avatar_public_id, avatar_secure_url,
              subscription_id, subscription_status,
              forgot_password_token, forgot_password_expiry,
              created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Avatar.PublicID, &u.Avatar.SecureURL,
		&u.Subscription.ID, &u.Subscription.Status,
		&u.ForgotPasswordToken, &u.ForgotPasswordExpiry,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (full_name, email, password_hash, role, avatar_public_id, avatar_secure_url, subscription_status)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING user_id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		u.FullName, u.Email, u.PasswordHash, u.Role,
		u.Avatar.PublicID, u.Avatar.SecureURL, u.Subscription.Status,
	).Scan(&u.UserID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	query := `UPDATE users
              SET full_name = $1, avatar_public_id = $2, avatar_secure_url = $3, updated_at = NOW()
              WHERE user_id = $4
              RETURNING updated_at`
	return r.db.QueryRowContext(ctx, query, u.FullName, u.Avatar.PublicID, u.Avatar.SecureURL, u.UserID).
		Scan(&u.UpdatedAt)
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

func (r *userRepo) UpdateSubscription(ctx context.Context, userID string, subscriptionID *string, status model.SubscriptionStatus) error {
	query := `UPDATE users SET subscription_id = $1, subscription_status = $2, updated_at = NOW() WHERE user_id = $3`
	_, err := r.db.ExecContext(ctx, query, subscriptionID, status, userID)
	return err
}

func (r *userRepo) SetResetToken(ctx context.Context, userID string, tokenHash *string, expiry *time.Time) error {
	query := `UPDATE users SET forgot_password_token = $1, forgot_password_expiry = $2, updated_at = NOW() WHERE user_id = $3`
	_, err := r.db.ExecContext(ctx, query, tokenHash, expiry, userID)
	return err
}

func (r *userRepo) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE forgot_password_token = $1 AND forgot_password_expiry > $2`
	return scanUser(r.db.QueryRowContext(ctx, query, tokenHash, now))
}

func (r *userRepo) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users
              SET password_hash = $1, forgot_password_token = NULL, forgot_password_expiry = NULL, updated_at = NOW()
              WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}
