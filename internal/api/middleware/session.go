package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/model"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// TokenValidator checks a session token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*model.SessionClaims, error)
}

// CookieName is the session cookie name. The __Host- prefix requires the
// Secure attribute, so plain-HTTP deployments use a bare name.
func CookieName(secure bool) string {
	if secure {
		return "__Host-session"
	}
	return "session"
}

// Session loads claims from a valid session cookie into the context. Requests
// without one pass through unauthenticated.
func Session(tokens TokenValidator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ValidateToken(c.Value)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("discarding session cookie")
				next.ServeHTTP(w, r)
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("user_id", claims.Subject).Logger()
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
		})
	}
}

// RequireSession redirects to the login page when no session is present.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaims returns the session claims from the context, or nil.
func GetClaims(ctx context.Context) *model.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*model.SessionClaims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
