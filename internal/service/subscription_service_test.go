package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/apperr"
	"app/internal/billing"
	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	user *model.User

	subscriptionUpdates []model.Subscription
}

func (s *stubUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.UserID = "u1"
	s.user = u
	return nil
}
func (s *stubUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.UserID == id {
		return s.user, nil
	}
	return nil, nil
}
func (s *stubUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, nil
}
func (s *stubUserRepo) UpdateProfile(ctx context.Context, u *model.User) error { return nil }
func (s *stubUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if s.user != nil {
		s.user.PasswordHash = passwordHash
	}
	return nil
}
func (s *stubUserRepo) UpdateSubscription(ctx context.Context, userID string, subscriptionID *string, status model.SubscriptionStatus) error {
	s.subscriptionUpdates = append(s.subscriptionUpdates, model.Subscription{ID: subscriptionID, Status: status})
	if s.user != nil {
		s.user.Subscription = model.Subscription{ID: subscriptionID, Status: status}
	}
	return nil
}
func (s *stubUserRepo) SetResetToken(ctx context.Context, userID string, tokenHash *string, expiry *time.Time) error {
	if s.user != nil {
		s.user.ForgotPasswordToken = tokenHash
		s.user.ForgotPasswordExpiry = expiry
	}
	return nil
}
func (s *stubUserRepo) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	if s.user != nil && s.user.ForgotPasswordToken != nil && *s.user.ForgotPasswordToken == tokenHash &&
		s.user.ForgotPasswordExpiry != nil && s.user.ForgotPasswordExpiry.After(now) {
		return s.user, nil
	}
	return nil, nil
}
func (s *stubUserRepo) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	if s.user != nil {
		s.user.PasswordHash = passwordHash
		s.user.ForgotPasswordToken = nil
		s.user.ForgotPasswordExpiry = nil
	}
	return nil
}

type stubPaymentRepo struct {
	payments []model.Payment
	err      error
}

func (s *stubPaymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	if s.err != nil {
		return s.err
	}
	p.ID = "pay-rec-1"
	s.payments = append(s.payments, *p)
	return nil
}

type stubBillingClient struct {
	created   *billing.Subscription
	cancelled *billing.Subscription
	err       error

	cancelledIDs []string
}

func (s *stubBillingClient) CreateSubscription(ctx context.Context, planID string, totalCount int, customerNotify bool) (*billing.Subscription, error) {
	return s.created, s.err
}
func (s *stubBillingClient) CancelSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	s.cancelledIDs = append(s.cancelledIDs, subscriptionID)
	return s.cancelled, s.err
}
func (s *stubBillingClient) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	return nil, s.err
}
func (s *stubBillingClient) ListPayments(ctx context.Context, count int) ([]map[string]interface{}, error) {
	return nil, s.err
}

const signingSecret = "rzp-secret"

func newSubscriptionFixture(user *model.User, client *stubBillingClient) (SubscriptionService, *stubUserRepo, *stubPaymentRepo) {
	userRepo := &stubUserRepo{user: user}
	paymentRepo := &stubPaymentRepo{}
	svc := NewSubscriptionService(userRepo, paymentRepo, client, "key-id", "plan-1", signingSecret, zerolog.Nop())
	return svc, userRepo, paymentRepo
}

func subscriber(status model.SubscriptionStatus, subID string) *model.User {
	u := &model.User{UserID: "u1", Role: model.RoleLearner, Subscription: model.Subscription{Status: status}}
	if subID != "" {
		u.Subscription.ID = &subID
	}
	return u
}

func TestPurchaseCreatesSubscription(t *testing.T) {
	client := &stubBillingClient{created: &billing.Subscription{ID: "sub-1", Status: "created"}}
	svc, userRepo, _ := newSubscriptionFixture(subscriber(model.SubscriptionNone, ""), client)

	subID, err := svc.Purchase(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", subID)

	require.Len(t, userRepo.subscriptionUpdates, 1)
	update := userRepo.subscriptionUpdates[0]
	assert.Equal(t, model.SubscriptionCreated, update.Status)
	require.NotNil(t, update.ID)
	assert.Equal(t, "sub-1", *update.ID)
}

func TestPurchaseRejectsAdmin(t *testing.T) {
	admin := &model.User{UserID: "a1", Role: model.RoleAdmin}
	client := &stubBillingClient{created: &billing.Subscription{ID: "sub-1"}}
	svc, userRepo, _ := newSubscriptionFixture(admin, client)

	_, err := svc.Purchase(context.Background(), "a1")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.Empty(t, userRepo.subscriptionUpdates)
}

func TestPurchaseRejectsExistingSubscription(t *testing.T) {
	for _, status := range []model.SubscriptionStatus{
		model.SubscriptionCreated, model.SubscriptionActive, model.SubscriptionCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			client := &stubBillingClient{created: &billing.Subscription{ID: "sub-2"}}
			svc, userRepo, _ := newSubscriptionFixture(subscriber(status, "sub-1"), client)

			_, err := svc.Purchase(context.Background(), "u1")
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			assert.Empty(t, userRepo.subscriptionUpdates)
		})
	}
}

func TestPurchaseProviderFailureLeavesUserUntouched(t *testing.T) {
	client := &stubBillingClient{err: errors.New("provider down")}
	svc, userRepo, _ := newSubscriptionFixture(subscriber(model.SubscriptionNone, ""), client)

	_, err := svc.Purchase(context.Background(), "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Empty(t, userRepo.subscriptionUpdates)
	assert.Equal(t, model.SubscriptionNone, userRepo.user.Subscription.Status)
}

func TestPurchaseUnknownUser(t *testing.T) {
	client := &stubBillingClient{created: &billing.Subscription{ID: "sub-1"}}
	svc, _, _ := newSubscriptionFixture(nil, client)

	_, err := svc.Purchase(context.Background(), "nobody")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestVerifyActivatesSubscription(t *testing.T) {
	svc, userRepo, paymentRepo := newSubscriptionFixture(subscriber(model.SubscriptionCreated, "sub-1"), &stubBillingClient{})
	signature := computeSignature(signingSecret, "pay-1", "sub-1")

	err := svc.Verify(context.Background(), "u1", "pay-1", signature, "sub-1")
	require.NoError(t, err)

	require.Len(t, paymentRepo.payments, 1)
	assert.Equal(t, "pay-1", paymentRepo.payments[0].ProviderPaymentID)
	assert.Equal(t, "sub-1", paymentRepo.payments[0].ProviderSubscriptionID)
	assert.Equal(t, signature, paymentRepo.payments[0].ProviderSignature)
	assert.Equal(t, model.SubscriptionActive, userRepo.user.Subscription.Status)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	svc, userRepo, paymentRepo := newSubscriptionFixture(subscriber(model.SubscriptionCreated, "sub-1"), &stubBillingClient{})
	signature := computeSignature(signingSecret, "pay-1", "sub-1")

	// Flip the last hex digit.
	last := signature[len(signature)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	bad := signature[:len(signature)-1] + string(flipped)

	err := svc.Verify(context.Background(), "u1", "pay-1", bad, "sub-1")
	assert.True(t, apperr.IsKind(err, apperr.KindNotVerified))
	assert.Empty(t, paymentRepo.payments)
	assert.Equal(t, model.SubscriptionCreated, userRepo.user.Subscription.Status)
}

func TestVerifySignsOverStoredSubscriptionID(t *testing.T) {
	// The digest must cover the subscription id stored at purchase time, so a
	// signature over an attacker-chosen id never validates.
	svc, userRepo, paymentRepo := newSubscriptionFixture(subscriber(model.SubscriptionCreated, "sub-1"), &stubBillingClient{})
	signature := computeSignature(signingSecret, "pay-1", "sub-other")

	err := svc.Verify(context.Background(), "u1", "pay-1", signature, "sub-other")
	assert.True(t, apperr.IsKind(err, apperr.KindNotVerified))
	assert.Empty(t, paymentRepo.payments)
	assert.Equal(t, model.SubscriptionCreated, userRepo.user.Subscription.Status)
}

func TestVerifyWithoutSubscription(t *testing.T) {
	svc, _, paymentRepo := newSubscriptionFixture(subscriber(model.SubscriptionNone, ""), &stubBillingClient{})

	err := svc.Verify(context.Background(), "u1", "pay-1", "whatever", "sub-1")
	assert.True(t, apperr.IsKind(err, apperr.KindNotVerified))
	assert.Empty(t, paymentRepo.payments)
}

func TestVerifyRejectsInvalidTransition(t *testing.T) {
	// A good signature on an already-active subscription must not re-activate
	// or record a duplicate payment.
	svc, _, paymentRepo := newSubscriptionFixture(subscriber(model.SubscriptionActive, "sub-1"), &stubBillingClient{})
	signature := computeSignature(signingSecret, "pay-1", "sub-1")

	err := svc.Verify(context.Background(), "u1", "pay-1", signature, "sub-1")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, paymentRepo.payments)
}

func TestCancelStoresProviderStatus(t *testing.T) {
	client := &stubBillingClient{cancelled: &billing.Subscription{ID: "sub-1", Status: "cancelled"}}
	svc, userRepo, _ := newSubscriptionFixture(subscriber(model.SubscriptionActive, "sub-1"), client)

	err := svc.Cancel(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1"}, client.cancelledIDs)
	assert.Equal(t, model.SubscriptionCancelled, userRepo.user.Subscription.Status)
}

func TestCancelNormalizesUnknownStatus(t *testing.T) {
	client := &stubBillingClient{cancelled: &billing.Subscription{ID: "sub-1", Status: "halted"}}
	svc, userRepo, _ := newSubscriptionFixture(subscriber(model.SubscriptionCreated, "sub-1"), client)

	err := svc.Cancel(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCancelled, userRepo.user.Subscription.Status)
}

func TestCancelRejectsAdmin(t *testing.T) {
	admin := &model.User{UserID: "a1", Role: model.RoleAdmin}
	svc, _, _ := newSubscriptionFixture(admin, &stubBillingClient{})

	err := svc.Cancel(context.Background(), "a1")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCancelWithoutSubscription(t *testing.T) {
	client := &stubBillingClient{}
	svc, _, _ := newSubscriptionFixture(subscriber(model.SubscriptionNone, ""), client)

	err := svc.Cancel(context.Background(), "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, client.cancelledIDs)
}

func TestCancelRejectsAlreadyCancelled(t *testing.T) {
	client := &stubBillingClient{}
	svc, _, _ := newSubscriptionFixture(subscriber(model.SubscriptionCancelled, "sub-1"), client)

	err := svc.Cancel(context.Background(), "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, client.cancelledIDs)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.SubscriptionStatus
		want     bool
	}{
		{model.SubscriptionNone, model.SubscriptionCreated, true},
		{model.SubscriptionCreated, model.SubscriptionActive, true},
		{model.SubscriptionCreated, model.SubscriptionCancelled, true},
		{model.SubscriptionActive, model.SubscriptionCancelled, true},
		{model.SubscriptionNone, model.SubscriptionActive, false},
		{model.SubscriptionNone, model.SubscriptionCancelled, false},
		{model.SubscriptionActive, model.SubscriptionCreated, false},
		{model.SubscriptionCancelled, model.SubscriptionCreated, false},
		{model.SubscriptionCancelled, model.SubscriptionActive, false},
		{model.SubscriptionActive, model.SubscriptionActive, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestComputeSignatureIsStable(t *testing.T) {
	a := computeSignature("secret", "pay-1", "sub-1")
	b := computeSignature("secret", "pay-1", "sub-1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, computeSignature("secret", "pay-1", "sub-2"))
	assert.NotEqual(t, a, computeSignature("other", "pay-1", "sub-1"))
}
