package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/util"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) UpdateProfile(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return nil
}
func (f *fakeUserRepo) UpdateSubscription(ctx context.Context, userID string, subscriptionID *string, status model.SubscriptionStatus) error {
	return nil
}
func (f *fakeUserRepo) SetResetToken(ctx context.Context, userID string, tokenHash *string, expiry *time.Time) error {
	return nil
}
func (f *fakeUserRepo) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	return nil
}

const testSecret = "test-secret"

func newTestAuth(users ...*model.User) *Auth {
	repo := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		repo.users[u.UserID] = u
	}
	return NewAuth(testSecret, repo, zerolog.Nop())
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func sessionRequest(t *testing.T, user *model.User, viaHeader bool) *http.Request {
	t.Helper()
	token, err := util.IssueSessionToken(user.UserID, user.Role, testSecret)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/courses/abc", nil)
	if viaHeader {
		r.Header.Set("Authorization", "Bearer "+token)
	} else {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return r
}

func learner(id string, status model.SubscriptionStatus) *model.User {
	return &model.User{UserID: id, Role: model.RoleLearner, Subscription: model.Subscription{Status: status}}
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	user := learner("u1", model.SubscriptionActive)
	auth := newTestAuth(user)

	var got model.Identity
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
	}))

	for _, viaHeader := range []bool{false, true} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, sessionRequest(t, user, viaHeader))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", got.ID)
		assert.Equal(t, model.RoleLearner, got.Role)
		assert.Equal(t, model.SubscriptionActive, got.SubscriptionStatus)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	auth := newTestAuth()
	next, called := okHandler()

	rec := httptest.NewRecorder()
	auth.Authenticate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/abc", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	auth := newTestAuth()
	next, called := okHandler()

	r := httptest.NewRequest(http.MethodGet, "/courses/abc", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	auth.Authenticate(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	// Valid token but the account no longer exists.
	auth := newTestAuth()
	next, called := okHandler()

	rec := httptest.NewRecorder()
	auth.Authenticate(next).ServeHTTP(rec, sessionRequest(t, learner("ghost", model.SubscriptionNone), false))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		wantCode int
	}{
		{"admin allowed", model.RoleAdmin, http.StatusOK},
		{"learner forbidden", model.RoleLearner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &model.User{UserID: "u1", Role: tt.role}
			auth := newTestAuth(user)
			next, _ := okHandler()
			handler := auth.Authenticate(auth.RequireRoles(model.RoleAdmin)(next))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, sessionRequest(t, user, false))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireRolesWithoutAuthenticate(t *testing.T) {
	// Role check before authentication must fail closed as 401, not 403.
	auth := newTestAuth()
	next, called := okHandler()

	rec := httptest.NewRecorder()
	auth.RequireRoles(model.RoleAdmin)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/abc", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestRequireSubscriber(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		wantCode int
	}{
		{"active learner allowed", learner("u1", model.SubscriptionActive), http.StatusOK},
		{"created learner forbidden", learner("u1", model.SubscriptionCreated), http.StatusForbidden},
		{"cancelled learner forbidden", learner("u1", model.SubscriptionCancelled), http.StatusForbidden},
		{"unsubscribed learner forbidden", learner("u1", model.SubscriptionNone), http.StatusForbidden},
		{"admin bypasses subscription", &model.User{UserID: "a1", Role: model.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuth(tt.user)
			next, _ := okHandler()
			handler := auth.Authenticate(auth.RequireSubscriber(next))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, sessionRequest(t, tt.user, false))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestSubscriberAllowed(t *testing.T) {
	assert.True(t, subscriberAllowed(model.RoleAdmin, model.SubscriptionNone))
	assert.True(t, subscriberAllowed(model.RoleAdmin, model.SubscriptionCancelled))
	assert.True(t, subscriberAllowed(model.RoleLearner, model.SubscriptionActive))
	assert.False(t, subscriberAllowed(model.RoleLearner, model.SubscriptionCreated))
	assert.False(t, subscriberAllowed(model.RoleLearner, model.SubscriptionNone))
}
