package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Basic Auth Tests
// =============================================================================

func TestBasicAuth_Credentials(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scraped"))
	})
	wrapped := BasicAuth("metrics", "prometheus", "s3cret")(okHandler)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", basicHeader("prometheus", "s3cret"), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong username", basicHeader("grafana", "s3cret"), http.StatusUnauthorized},
		{"wrong password", basicHeader("prometheus", "guess"), http.StatusUnauthorized},
		{"both wrong", basicHeader("grafana", "guess"), http.StatusUnauthorized},
		{"empty credentials", basicHeader("", ""), http.StatusUnauthorized},
		{"bearer scheme", "Bearer s3cret", http.StatusUnauthorized},
		{"not base64", "Basic %%%", http.StatusUnauthorized},
		{"trailing header injection", "Basic " + base64.StdEncoding.EncodeToString([]byte("prometheus:s3cret\r\nX-Injected: 1")), http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusOK && rec.Body.String() != "scraped" {
				t.Errorf("expected wrapped handler body, got %q", rec.Body.String())
			}
		})
	}
}

func TestBasicAuth_RejectionUsesAPIErrorShape(t *testing.T) {
	called := false
	wrapped := BasicAuth("metrics", "prometheus", "s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if called {
		t.Fatal("wrapped handler must not run without credentials")
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="metrics"` {
		t.Errorf("unexpected challenge %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error.Code != "unauthorized" {
		t.Errorf("expected code unauthorized, got %q", body.Error.Code)
	}
	if body.Error.Message == "" {
		t.Error("expected a message")
	}
}

// =============================================================================
// Metrics Handler Tests
// =============================================================================

func TestMetricsHandler_OpenWithoutCredentials(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler("", "").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with no credentials configured, got %d", rec.Code)
	}
}

func TestMetricsHandler_PasswordOnlyStillProtected(t *testing.T) {
	handler := MetricsHandler("", "s3cret")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	req.SetBasicAuth("", "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsHandler_ServesPrometheusBehindAuth(t *testing.T) {
	handler := MetricsHandler("prometheus", "s3cret")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	req.SetBasicAuth("prometheus", "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Prometheus exposition output")
	}
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
