package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

const contentSecurityPolicy = "default-src 'self'; form-action 'self'; frame-ancestors 'none'; base-uri 'none'"

var secureHeaders = secure.New(secure.Options{
	ContentSecurityPolicy: contentSecurityPolicy,
	FrameDeny:             true,
	ContentTypeNosniff:    true,
	ReferrerPolicy:        "no-referrer",
	PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
})

// SecureHeaders sets the response headers every page is served with.
func SecureHeaders(next http.Handler) http.Handler {
	return secureHeaders.Handler(next)
}
