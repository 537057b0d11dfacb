package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/model"
)

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "csrf_token"

// CSRFVerifier checks a form token against the session it was issued for.
type CSRFVerifier interface {
	VerifyCSRF(claims *model.SessionClaims, token string) bool
}

// CSRF rejects state-changing requests whose token does not match the
// session. It must run after Session.
func CSRF(verifier CSRFVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			claims := GetClaims(r.Context())
			token := r.PostFormValue(CSRFFieldName)
			if claims == nil || !verifier.VerifyCSRF(claims, token) {
				zerolog.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("csrf token mismatch")
				http.Error(w, "invalid or missing CSRF token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
