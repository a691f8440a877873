package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/apperr"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/util"

	"github.com/rs/zerolog"
)

// UserService covers registration, login, profile and password flows.
type UserService interface {
	// Register creates a LEARNER account and returns it with a session token.
	Register(ctx context.Context, fullName, email, password string, avatar *Upload) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateUser edits a profile; learners may only edit their own.
	UpdateUser(ctx context.Context, actor model.Identity, targetID string, fullName string, avatar *Upload) (*model.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// ForgotPassword issues a one-time reset token and emails the reset link.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes a reset token and sets the new password.
	ResetPassword(ctx context.Context, plaintextToken, newPassword string) error
}

type userService struct {
	userRepo    repository.UserRepository
	media       MediaStorage
	email       EmailSender
	jwtSecret   string
	frontendURL string
	resetTTL    time.Duration
	logger      zerolog.Logger
}

// NewUserService creates a UserService with a scoped logger.
func NewUserService(
	userRepo repository.UserRepository,
	media MediaStorage,
	email EmailSender,
	jwtSecret, frontendURL string,
	resetTTL time.Duration,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		media:       media,
		email:       email,
		jwtSecret:   jwtSecret,
		frontendURL: frontendURL,
		resetTTL:    resetTTL,
		logger:      logger.With().Str("service", "UserService").Logger(),
	}
}

const avatarFolder = "lms/avatars"

func (s *userService) Register(ctx context.Context, fullName, email, password string, avatar *Upload) (*model.User, string, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to check existing email", err)
	}
	if existing != nil {
		return nil, "", apperr.New(apperr.KindValidation, "email already exists")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user := &model.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleLearner,
		Avatar:       PlaceholderAvatar,
		Subscription: model.Subscription{Status: model.SubscriptionNone},
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "user registration failed, please try again later", err)
	}

	// Enrich with the uploaded avatar after the record exists; the account is
	// usable with the placeholder if the upload fails.
	if avatar != nil {
		ref, err := s.media.UploadMedia(ctx, avatarFolder, avatar)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Avatar upload failed during registration")
			return nil, "", apperr.Wrap(apperr.KindUpstream, "file upload failed, please try again", err)
		}
		user.Avatar = ref
		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			return nil, "", apperr.Wrap(apperr.KindInternal, "failed to save avatar", err)
		}
	}

	token, err := util.IssueSessionToken(user.UserID, user.Role, s.jwtSecret)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to issue session token", err)
	}
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to fetch user", err)
	}
	// Same message for unknown email and wrong password.
	if user == nil {
		return nil, "", apperr.New(apperr.KindValidation, "invalid email or password")
	}
	if err := util.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", apperr.New(apperr.KindValidation, "invalid email or password")
	}

	token, err := util.IssueSessionToken(user.UserID, user.Role, s.jwtSecret)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to issue session token", err)
	}
	return user, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch profile details", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user does not exist")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor model.Identity, targetID string, fullName string, avatar *Upload) (*model.User, error) {
	if actor.ID != targetID && actor.Role != model.RoleAdmin {
		return nil, apperr.New(apperr.KindForbidden, "you are not authorized to update other users")
	}

	user, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch user", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user does not exist")
	}

	if fullName != "" {
		user.FullName = fullName
	}

	if avatar != nil {
		// Best-effort cleanup of the previous asset before replacing it.
		if user.Avatar.PublicID != "" && user.Avatar.PublicID != PlaceholderAvatar.PublicID {
			if err := s.media.DeleteMedia(ctx, user.Avatar.PublicID); err != nil {
				s.logger.Warn().Err(err).Str("public_id", user.Avatar.PublicID).Msg("Failed to delete previous avatar")
			}
		}
		ref, err := s.media.UploadMedia(ctx, avatarFolder, avatar)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "file upload failed, please try again", err)
		}
		user.Avatar = ref
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update user details", err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to fetch user", err)
	}
	if user == nil {
		return apperr.New(apperr.KindNotFound, "user does not exist")
	}
	if err := util.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperr.New(apperr.KindValidation, "invalid old password")
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to change password", err)
	}
	return nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to fetch user", err)
	}
	if user == nil {
		return apperr.New(apperr.KindValidation, "email not registered")
	}

	plaintext, hashed, expiry, err := util.NewResetToken(s.resetTTL)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to generate reset token", err)
	}
	if err := s.userRepo.SetResetToken(ctx, user.UserID, &hashed, &expiry); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to store reset token", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, plaintext)
	subject := "Reset Password"
	body := fmt.Sprintf(
		`You can reset your password by clicking <a href=%q target="_blank">Reset your password</a>.<br>`+
			`If the link does not work, copy this URL into a new tab: %s<br>`+
			`If you have not requested this, kindly ignore.`,
		resetURL, resetURL,
	)
	if err := s.email.Send(email, subject, body); err != nil {
		// The emailed plaintext is lost, so the stored token is useless; clear it.
		if clearErr := s.userRepo.SetResetToken(ctx, user.UserID, nil, nil); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("user_id", user.UserID).Msg("Failed to clear reset token after send failure")
		}
		return apperr.Wrap(apperr.KindUpstream, "failed to send reset email", err)
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, plaintextToken, newPassword string) error {
	hashed := util.HashResetToken(plaintextToken)
	user, err := s.userRepo.GetUserByResetToken(ctx, hashed, time.Now())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to look up reset token", err)
	}
	if user == nil {
		return apperr.New(apperr.KindValidation, "token is invalid or expired, please try again")
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	// Sets the password and clears the token fields in one statement.
	if err := s.userRepo.ResetPassword(ctx, user.UserID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to reset password", err)
	}
	return nil
}
