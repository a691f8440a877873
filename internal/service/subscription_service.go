package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"app/internal/apperr"
	"app/internal/billing"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Billing terms for the single offered plan.
const (
	subscriptionBillingCycles = 12
	defaultPaymentListCount   = 10
)

// SubscriptionService orchestrates the subscription lifecycle against the
// payment-plan provider and keeps the owning user's state in step.
//
// Valid status transitions: none → created → active, and
// {created, active} → cancelled. Nothing else.
type SubscriptionService interface {
	// APIKey exposes the provider's public key id for the frontend checkout.
	APIKey() string
	// Purchase creates a recurring subscription with the provider and moves
	// the user to status "created". Admins cannot subscribe.
	Purchase(ctx context.Context, userID string) (string, error)
	// Verify checks the provider's signed confirmation, records the payment
	// audit entry and activates the subscription.
	Verify(ctx context.Context, userID, paymentID, signature, subscriptionID string) error
	// Cancel cancels with the provider and stores the reported status.
	Cancel(ctx context.Context, userID string) error
	FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error)
	ListPayments(ctx context.Context, count int) ([]map[string]interface{}, error)
}

type subscriptionService struct {
	userRepo      repository.UserRepository
	paymentRepo   repository.PaymentRepository
	billingClient billing.Client
	apiKeyID      string
	planID        string
	signingSecret string
	logger        zerolog.Logger
}

// NewSubscriptionService creates a SubscriptionService with a scoped logger.
func NewSubscriptionService(
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	billingClient billing.Client,
	apiKeyID, planID, signingSecret string,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		userRepo:      userRepo,
		paymentRepo:   paymentRepo,
		billingClient: billingClient,
		apiKeyID:      apiKeyID,
		planID:        planID,
		signingSecret: signingSecret,
		logger:        logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

// canTransition encodes the subscription state machine.
func canTransition(from, to model.SubscriptionStatus) bool {
	switch to {
	case model.SubscriptionCreated:
		return from == model.SubscriptionNone
	case model.SubscriptionActive:
		return from == model.SubscriptionCreated
	case model.SubscriptionCancelled:
		return from == model.SubscriptionCreated || from == model.SubscriptionActive
	default:
		return false
	}
}

func (s *subscriptionService) APIKey() string {
	return s.apiKeyID
}

func (s *subscriptionService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch user", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "unauthorized, please login")
	}
	return user, nil
}

func (s *subscriptionService) Purchase(ctx context.Context, userID string) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Role == model.RoleAdmin {
		return "", apperr.New(apperr.KindForbidden, "admin cannot purchase a subscription")
	}
	if s.planID == "" {
		return "", apperr.New(apperr.KindInternal, "payment plan id is not configured")
	}
	if !canTransition(user.Subscription.Status, model.SubscriptionCreated) {
		return "", apperr.New(apperr.KindValidation, "subscription already exists")
	}

	sub, err := s.billingClient.CreateSubscription(ctx, s.planID, subscriptionBillingCycles, true)
	if err != nil {
		// User state is untouched on provider failure.
		return "", apperr.Wrap(apperr.KindUpstream, "payment provider error", err)
	}

	if err := s.userRepo.UpdateSubscription(ctx, userID, &sub.ID, model.SubscriptionCreated); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to store subscription", err)
	}
	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Subscription purchased")
	return sub.ID, nil
}

func (s *subscriptionService) Verify(ctx context.Context, userID, paymentID, signature, subscriptionID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Subscription.ID == nil || *user.Subscription.ID == "" {
		return apperr.New(apperr.KindNotVerified, "payment not verified, please try again")
	}

	// The digest covers the payment id and the subscription id we stored at
	// purchase time, not whatever the caller claims.
	expected := computeSignature(s.signingSecret, paymentID, *user.Subscription.ID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn().Str("user_id", userID).Str("payment_id", paymentID).Msg("Payment signature mismatch")
		return apperr.New(apperr.KindNotVerified, "payment not verified, please try again")
	}

	if !canTransition(user.Subscription.Status, model.SubscriptionActive) {
		return apperr.New(apperr.KindValidation, "subscription cannot be activated from its current status")
	}

	// The audit record must be durable before the status flip counts as
	// committed. If the flip fails the record remains as evidence for
	// manual reconciliation.
	payment := &model.Payment{
		ProviderPaymentID:      paymentID,
		ProviderSubscriptionID: subscriptionID,
		ProviderSignature:      signature,
	}
	if err := s.paymentRepo.CreatePayment(ctx, payment); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record payment", err)
	}
	if err := s.userRepo.UpdateSubscription(ctx, userID, user.Subscription.ID, model.SubscriptionActive); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("payment_id", payment.ID).Msg("Subscription activation failed after payment was recorded")
		return apperr.Wrap(apperr.KindInternal, "failed to activate subscription", err)
	}
	s.logger.Info().Str("user_id", userID).Str("payment_id", paymentID).Msg("Subscription verified")
	return nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		return apperr.New(apperr.KindForbidden, "admin cannot cancel a subscription")
	}
	if user.Subscription.ID == nil || *user.Subscription.ID == "" {
		return apperr.New(apperr.KindValidation, "no subscription to cancel")
	}
	if !canTransition(user.Subscription.Status, model.SubscriptionCancelled) {
		return apperr.New(apperr.KindValidation, "subscription cannot be cancelled from its current status")
	}

	sub, err := s.billingClient.CancelSubscription(ctx, *user.Subscription.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "payment provider error", err)
	}

	// Store whatever the provider reports; anything unrecognized is treated
	// as cancelled.
	status := model.SubscriptionStatus(sub.Status)
	switch status {
	case model.SubscriptionCreated, model.SubscriptionActive, model.SubscriptionCancelled:
	default:
		status = model.SubscriptionCancelled
	}
	if err := s.userRepo.UpdateSubscription(ctx, userID, user.Subscription.ID, status); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to store subscription status", err)
	}
	s.logger.Info().Str("user_id", userID).Str("status", string(status)).Msg("Subscription cancelled")
	return nil
}

func (s *subscriptionService) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	payment, err := s.billingClient.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "payment provider error", err)
	}
	if payment == nil {
		return nil, apperr.New(apperr.KindNotFound, "payment not found")
	}
	return payment, nil
}

func (s *subscriptionService) ListPayments(ctx context.Context, count int) ([]map[string]interface{}, error) {
	if count <= 0 {
		count = defaultPaymentListCount
	}
	payments, err := s.billingClient.ListPayments(ctx, count)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "payment provider error", err)
	}
	return payments, nil
}

// computeSignature builds the provider's confirmation digest:
// hex(HMAC-SHA256(secret, payment_id + "|" + subscription_id)).
func computeSignature(secret, paymentID, subscriptionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	return hex.EncodeToString(mac.Sum(nil))
}
