package model

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleLearner Role = "LEARNER"
)

// SubscriptionStatus tracks the local view of a recurring billing subscription.
type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionCreated   SubscriptionStatus = "created"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the user's billing state: an opaque provider identifier
// plus a local status.
type Subscription struct {
	ID     *string            `db:"subscription_id" json:"id,omitempty"`
	Status SubscriptionStatus `db:"subscription_status" json:"status"`
}

// Identity is the authenticated caller resolved by the auth middleware and
// attached to the request context.
type Identity struct {
	ID                 string
	Role               Role
	SubscriptionStatus SubscriptionStatus
}

// User represents an account in the system. PasswordHash and the reset-token
// fields are never serialized outward.
type User struct {
	UserID       string       `db:"user_id" json:"user_id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         Role         `db:"role" json:"role"`
	Avatar       MediaRef     `json:"avatar"`
	Subscription Subscription `json:"subscription"`

	ForgotPasswordToken  *string    `db:"forgot_password_token" json:"-"`
	ForgotPasswordExpiry *time.Time `db:"forgot_password_expiry" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
