package dto

import (
	"time"

	"app/internal/model"
)

// UserRegisterDTO is the scalar part of a multipart register request; the
// optional avatar file travels alongside it.
type UserRegisterDTO struct {
	FullName string `json:"full_name" validate:"required,min=3,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserLoginDTO is used for incoming login requests
type UserLoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateDTO is the scalar part of a multipart profile update
type UserUpdateDTO struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=3,max=60"`
}

// ForgotPasswordDTO requests a reset-token email
type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordDTO carries the new password; the token rides in the path
type ResetPasswordDTO struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ChangePasswordDTO is used for authenticated password changes
type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// SubscriptionDTO mirrors the user's local subscription state
type SubscriptionDTO struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

// UserResponseDTO is returned in API responses. Credentials and reset-token
// state never appear here.
type UserResponseDTO struct {
	UserID       string          `json:"user_id"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email"`
	Role         string          `json:"role"`
	Avatar       MediaRefDTO     `json:"avatar"`
	Subscription SubscriptionDTO `json:"subscription"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewUserResponse maps a user model to its response DTO.
func NewUserResponse(u *model.User) UserResponseDTO {
	sub := SubscriptionDTO{Status: string(u.Subscription.Status)}
	if u.Subscription.ID != nil {
		sub.ID = *u.Subscription.ID
	}
	return UserResponseDTO{
		UserID:       u.UserID,
		FullName:     u.FullName,
		Email:        u.Email,
		Role:         string(u.Role),
		Avatar:       MediaRefDTO{PublicID: u.Avatar.PublicID, SecureURL: u.Avatar.SecureURL},
		Subscription: sub,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
