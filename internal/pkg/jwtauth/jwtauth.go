// Package jwtauth signs and verifies the bearer tokens handed out at login.
//
// Wire shape of the payload:
//
//	{ "user": { "id": "...", "role": "admin|employee", "name": "..." }, "exp": 0, "iat": 0 }
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minicrm/crm-api/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// UserClaim is the identity embedded in a token.
type UserClaim struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
}

// Claims is the full token payload.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

// Manager issues and parses HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given identity.
func (m *Manager) Issue(id string, role domain.Role, name string) (string, error) {
	now := m.now()
	claims := Claims{
		User: UserClaim{ID: id, Role: role, Name: name},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm and expiry and returns the caller the
// token describes.
func (m *Manager) Parse(raw string) (domain.Caller, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tkn.Valid {
		return domain.Caller{}, ErrInvalidToken
	}
	if claims.User.ID == "" || !claims.User.Role.Valid() {
		return domain.Caller{}, ErrInvalidToken
	}

	return domain.NewCaller(claims.User.ID, claims.User.Role, claims.User.Name), nil
}
