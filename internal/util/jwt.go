package util

import (
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenTTL is how long a login session stays valid.
const SessionTokenTTL = 7 * 24 * time.Hour

// SessionClaims is the JWT claims structure for login sessions. The role is
// embedded for convenience only; callers must re-fetch the user, since role
// or existence may have changed after issuance.
type SessionClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueSessionToken produces a signed HS256 bearer token for a user.
func IssueSessionToken(userID string, role model.Role, secret string) (string, error) {
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken checks signature and expiry without any database
// round trip and returns the embedded claims.
func ValidateSessionToken(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v (expected HMAC)", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}
