// Package session issues and verifies the signed tokens that carry a login
// between requests. Nothing is stored server side: a token is valid until it
// expires, and logging out only clears the cookie holding it.
//
// The signing secret is read once at startup. Changing it invalidates every
// live session.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kevinaaaquil/poems/backend/models"
)

// DefaultTTL is how long a session lasts unless configured otherwise.
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the identity asserted by a session token. Role and ID are those of
// the user at login time; later changes are not reflected until the next login.
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Manager signs and verifies HS256 session tokens and writes the session cookie.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

type Option func(*Manager)

// WithSecureCookies forces the Secure cookie attribute even on plain HTTP
// requests, for deployments that terminate TLS in a proxy.
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) { m.secureCookie = secure }
}

// WithClock replaces time.Now for issuing and checking expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(secret []byte, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for user valid for the manager's TTL.
func (m *Manager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := jwt.NewNumericDate(now.Add(m.ttl))
	claims := &Claims{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenString. It fails with
// ErrMissingToken, ErrExpiredToken or ErrInvalidToken (possibly wrapped).
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		// Signature is checked before claims, so a forged token never
		// reports as expired.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == 0 || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return claims, nil
}
