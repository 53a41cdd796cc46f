package auth

import (
	"net/http"
	"strings"

	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// Middleware validates the bearer token and puts the actor and tenant on
// the request context. Tokens without a tenant are refused.
func Middleware(m *Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := m.ValidateAccessToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				httputil.ErrorLocalized(w, r, err)
				return
			}

			if claims.TenantID == "" {
				log.Warn().
					Str("user_id", claims.Subject).
					Msg("token missing tenant context")
				httputil.ErrorLocalized(w, r, errors.Forbidden("missing tenant context in token"))
				return
			}

			a := claims.Actor()
			ctx := actor.WithActor(r.Context(), a)
			ctx = tenant.WithTenantContext(ctx, claims.TenantID, claims.TenantSlug)
			httputil.AnnotateRequest(ctx, "user_id", a.ID)
			httputil.AnnotateRequest(ctx, "tenant_id", claims.TenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
