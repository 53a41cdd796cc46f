// Package auth verifies the access tokens issued by the external identity
// service and the short-lived punch tokens issued by this service.
package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// Claims represents the access token claims
type Claims struct {
	jwt.RegisteredClaims
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"is_admin"`
	SessionID string `json:"sid,omitempty"`

	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
}

// IsAdminRole reports whether a role name carries admin rights.
func IsAdminRole(role string) bool {
	return role == "admin" || role == "staff"
}

// Actor builds the caller identity from verified claims. The session falls
// back to the token id for tokens without a sid claim.
func (c *Claims) Actor() *actor.Actor {
	session := c.SessionID
	if session == "" {
		session = c.ID
	}
	a := &actor.Actor{
		ID:        c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		TenantID:  c.TenantID,
		Role:      c.Role,
		IsAdmin:   c.IsAdmin || IsAdminRole(c.Role),
		SessionID: session,
	}
	if c.ExpiresAt != nil {
		a.ExpiresAt = c.ExpiresAt.Time
	}
	return a
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
	clock  clock.Clock
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig, clk clock.Clock) *Manager {
	return &Manager{config: cfg, clock: clk}
}

// UserInfo contains user information for token generation
type UserInfo struct {
	ID         string
	Email      string
	Name       string
	Role       string
	IsAdmin    bool
	TenantID   string
	TenantSlug string
}

// IssueAccessToken signs an access token. Production tokens come from the
// identity service; this is used by the admin CLI and tests.
func (m *Manager) IssueAccessToken(user *UserInfo, sessionID string) (string, time.Time, error) {
	now := m.clock.Now()
	expiry := now.Add(m.config.AccessExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsAdmin:    user.IsAdmin,
		SessionID:  sessionID,
		TenantID:   user.TenantID,
		TenantSlug: user.TenantSlug,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc,
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.TokenInvalid()
	}
	return []byte(m.config.Secret), nil
}
