package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	demoUserID = "demo-user-123"
	demoEmail  = "demo@exemplo.com"
)

// Identity is the signed-in operator carried by a session.
type Identity struct {
	UserID string
	Email  string
	Demo   bool
}

// DemoIdentity is issued by the demo login without touching the users table.
func DemoIdentity() Identity {
	return Identity{UserID: demoUserID, Email: demoEmail, Demo: true}
}

// Claims represents the custom JWT claims for an operator session.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Demo   bool   `json:"demo,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager signs and validates HS256 session tokens.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionManager creates a manager with the given secret and token lifetime.
func NewSessionManager(secretKey string, ttl time.Duration) *SessionManager {
	return &SessionManager{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens stay valid.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for id.
func (m *SessionManager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Demo:   id.Demo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it carries.
func (m *SessionManager) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, Demo: claims.Demo}, nil
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
