package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// MetricsHandler serves the calculation, certificate, photo and job metrics
// registered on the default registry. Once a username or password is
// configured, scrapes must present both.
func MetricsHandler(username, password string) http.Handler {
	scrape := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	if username == "" && password == "" {
		return scrape
	}
	return BasicAuth("metrics", username, password)(scrape)
}

// BasicAuth rejects requests whose basic-auth credentials do not match with
// a JSON 401 in the API's error shape.
func BasicAuth(realm, username, password string) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf("Basic realm=%q", realm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !credentialsMatch(user, pass, username, password) {
				w.Header().Set("WWW-Authenticate", challenge)
				writeError(w, http.StatusUnauthorized, domain.EUNAUTHORIZED, "Valid credentials are required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credentialsMatch compares both fields in constant time, always checking
// the password even when the username is wrong.
func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return u&p == 1
}
