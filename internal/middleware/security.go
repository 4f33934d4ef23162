package middleware

import (
	"net/http"
	"strings"
)

const (
	// apiCSP applies to JSON responses, which never load anything.
	apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

	// documentCSP applies to stored certificates and thumbnails. Rendered
	// HTML certificates carry inline <style> blocks and data-URI photos.
	documentCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; " +
		"frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

	hstsValue = "max-age=31536000; includeSubDomains"
)

// commonHeaders are set on every response.
var commonHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// SecurityHeadersMiddleware sets response headers for the calculator API and
// the stored documents it links to.
type SecurityHeadersMiddleware struct {
	hsts bool
}

// NewSecurityHeadersMiddleware returns the middleware. HSTS is only sent when
// the server sits behind HTTPS.
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{hsts: isSecure}
}

// Handler sets the headers before calling next. Certificate and calculation
// responses carry client names and addresses, so /api/ responses are never
// cached.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range commonHeaders {
			h.Set(kv[0], kv[1])
		}
		if m.hsts {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		switch {
		case strings.HasPrefix(r.URL.Path, "/files/"):
			h.Set("Content-Security-Policy", documentCSP)
		case strings.HasPrefix(r.URL.Path, "/api/"):
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cache-Control", "no-store")
		default:
			h.Set("Content-Security-Policy", apiCSP)
		}

		next.ServeHTTP(w, r)
	})
}
