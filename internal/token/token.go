// Package token issues and verifies the signed bearer tokens used for
// session auth. The token is an opaque capability: it asserts a user id with
// a fixed expiry, nothing more.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token is malformed, has a bad
// signature, carries unexpected claims, or has expired.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	issuer   = "inkwell-api"
	audience = "inkwell-client"
)

// Manager issues and verifies HS256-signed tokens with a fixed TTL.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager returns a Manager signing with the given secret.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token asserting the given user ID.
func (m *Manager) Issue(userID uint) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10), // Subject (user ID as string)
		"iss": issuer,
		"aud": audience,
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": generateJTI(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses the token and returns the embedded user ID. All failure
// modes (bad signature, malformed, expired, wrong issuer/audience) collapse
// to ErrInvalidToken so callers cannot distinguish them.
func (m *Manager) Verify(tokenString string) (uint, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil || !t.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
