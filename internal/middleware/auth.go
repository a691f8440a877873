package middleware

import (
	"context"
	"net/http"
	"strings"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const IdentityContextKey = contextKey("identity")

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(model.Identity)
	return identity, ok
}

// Auth evaluates the access-control chain for protected routes:
// authenticate, then role, then subscription. Each step short-circuits
// before the next runs.
type Auth struct {
	jwtSecret string
	userRepo  repository.UserRepository
	logger    zerolog.Logger
}

func NewAuth(jwtSecret string, userRepo repository.UserRepository, logger zerolog.Logger) *Auth {
	return &Auth{jwtSecret: jwtSecret, userRepo: userRepo, logger: logger.With().Str("middleware", "Auth").Logger()}
}

// tokenFromRequest pulls the session token from the cookie or the
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Authenticate validates the session token and attaches the caller's
// Identity to the request context. The token proves signature and expiry on
// its own; the user is still re-fetched because role or existence may have
// changed since issuance.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			http.Error(w, "unauthenticated, please login again", http.StatusUnauthorized)
			return
		}
		claims, err := util.ValidateSessionToken(token, a.jwtSecret)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Session token rejected")
			http.Error(w, "invalid or expired token, please login again", http.StatusUnauthorized)
			return
		}

		user, err := a.userRepo.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			a.logger.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to resolve user for session")
			http.Error(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "user does not exist", http.StatusUnauthorized)
			return
		}

		identity := model.Identity{
			ID:                 user.UserID,
			Role:               user.Role,
			SubscriptionStatus: user.Subscription.Status,
		}
		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles allows the request only when the authenticated role is in the
// given set. Must run after Authenticate.
func (a *Auth) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthenticated, please login again", http.StatusUnauthorized)
				return
			}
			if !roleAllowed(identity.Role, roles...) {
				http.Error(w, "you are not authorized to access this route", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSubscriber gates lecture content: admins always pass, learners need
// an active subscription. Must run after Authenticate.
func (a *Auth) RequireSubscriber(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated, please login again", http.StatusUnauthorized)
			return
		}
		if !subscriberAllowed(identity.Role, identity.SubscriptionStatus) {
			http.Error(w, "please subscribe to access this route", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// roleAllowed is the pure role decision: allow iff the role is in the set.
func roleAllowed(role model.Role, allowed ...model.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// subscriberAllowed is the pure subscription decision: admins bypass the
// subscription check entirely.
func subscriberAllowed(role model.Role, status model.SubscriptionStatus) bool {
	return role == model.RoleAdmin || status == model.SubscriptionActive
}
