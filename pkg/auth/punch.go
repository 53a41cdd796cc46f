package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/config"
)

const punchAudience = "punch"

// PunchClaims are carried by the tokens handed out on GET /punch/token.
type PunchClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	TenantID  string `json:"tenant_id"`
}

// PunchTokens issues and checks the session token sent with each punch.
//
// In presence mode any non-empty token marks an entry verified. In signed
// mode the token must be one this service issued to the same user in the
// same tenant and must not have expired.
type PunchTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	mode   string
	clock  clock.Clock
}

// NewPunchTokens builds the token policy from config.
func NewPunchTokens(jwtCfg *config.JWTConfig, punchCfg *config.PunchConfig, clk clock.Clock) *PunchTokens {
	return &PunchTokens{
		secret: []byte(jwtCfg.Secret),
		issuer: jwtCfg.Issuer,
		ttl:    punchCfg.TokenTTL,
		mode:   punchCfg.TokenMode,
		clock:  clk,
	}
}

// Mode returns the configured token mode.
func (p *PunchTokens) Mode() string { return p.mode }

// Issue signs a punch token for a.
func (p *PunchTokens) Issue(a *actor.Actor) (string, time.Time, error) {
	now := p.clock.Now()
	expiry := now.Add(p.ttl)

	claims := PunchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   a.ID,
			Audience:  jwt.ClaimStrings{punchAudience},
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		SessionID: a.SessionID,
		TenantID:  a.TenantID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// Verify reports whether token authenticates a punch by a.
func (p *PunchTokens) Verify(token string, a *actor.Actor) bool {
	if token == "" || a == nil {
		return false
	}
	if p.mode != config.TokenModeSigned {
		return true
	}

	var claims PunchClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithTimeFunc(p.clock.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(punchAudience),
		jwt.WithIssuer(p.issuer),
	)
	if err != nil || !parsed.Valid {
		return false
	}

	return claims.Subject == a.ID &&
		claims.TenantID == a.TenantID &&
		claims.SessionID == a.SessionID
}
