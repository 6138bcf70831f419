// Package auth implements the signed session token carried by the client
// in a cookie. Tokens are stateless: there is no server-side session store,
// so logout is purely a client-side cookie removal.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager signs and verifies session tokens (HS256 JWT).
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a token manager.
// secret must be non-empty; verification always fails on an empty secret.
func NewTokenManager(secret string, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// sessionClaims extends standard JWT claims with the user's role.
// No expiry is embedded: the session lives until the cookie is removed.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Issue creates a signed HS256 token binding the username and role.
func (m *TokenManager) Issue(username string, role string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("signing secret is empty")
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token, returning the embedded
// username and role. Any tampering, wrong algorithm, or foreign issuer
// fails verification.
func (m *TokenManager) Verify(tokenString string) (username string, role string, err error) {
	if tokenString == "" {
		return "", "", fmt.Errorf("token is empty")
	}
	if len(m.secret) == 0 {
		return "", "", fmt.Errorf("signing secret is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return "", "", fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("empty subject")
	}

	return claims.Subject, claims.Role, nil
}
