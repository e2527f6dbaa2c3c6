package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithSecurityHeaders(cfg SecurityHeadersConfig, path string) *httptest.ResponseRecorder {
	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestDefaultSecurityHeadersConfig(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		cfg := DefaultSecurityHeadersConfig(false)
		if cfg.IsDevelopment {
			t.Error("IsDevelopment = true, want false")
		}
		if cfg.HSTSMaxAge != 31536000 {
			t.Errorf("HSTSMaxAge = %d, want 31536000", cfg.HSTSMaxAge)
		}
		if !cfg.HSTSIncludeSubDomains {
			t.Error("HSTSIncludeSubDomains = false, want true in production")
		}
		if cfg.FrameOptions != "DENY" {
			t.Errorf("FrameOptions = %q, want DENY", cfg.FrameOptions)
		}
		if !strings.Contains(cfg.ContentSecurityPolicy, "default-src 'none'") {
			t.Errorf("CSP %q missing default-src 'none'", cfg.ContentSecurityPolicy)
		}
		if !strings.Contains(cfg.ContentSecurityPolicy, "frame-ancestors 'none'") {
			t.Errorf("CSP %q missing frame-ancestors 'none'", cfg.ContentSecurityPolicy)
		}
	})

	t.Run("development", func(t *testing.T) {
		cfg := DefaultSecurityHeadersConfig(true)
		if !cfg.IsDevelopment {
			t.Error("IsDevelopment = false, want true")
		}
		if cfg.HSTSIncludeSubDomains {
			t.Error("HSTSIncludeSubDomains = true, want false in development")
		}
	})
}

func TestSecurityHeadersProduction(t *testing.T) {
	rr := serveWithSecurityHeaders(DefaultSecurityHeadersConfig(false), "/api/companies")

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for header, value := range want {
		if got := rr.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("Content-Security-Policy = %q, missing default-src", csp)
	}
}

func TestSecurityHeadersDevelopmentSkipsHSTS(t *testing.T) {
	rr := serveWithSecurityHeaders(DefaultSecurityHeadersConfig(true), "/api/companies")

	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want empty in development", got)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestSecurityHeadersZeroHSTSMaxAge(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.HSTSMaxAge = 0

	rr := serveWithSecurityHeaders(cfg, "/")
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want empty when max-age is 0", got)
	}
}

func TestSecurityHeadersExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.ExcludePaths = []string{"/feed/"}

	rr := serveWithSecurityHeaders(cfg, "/feed/some-device-key")
	if got := rr.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("excluded path got Content-Security-Policy %q", got)
	}

	rr = serveWithSecurityHeaders(cfg, "/api/layouts")
	if got := rr.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("non-excluded path missing Content-Security-Policy")
	}
}

func TestSecurityHeadersCustomValues(t *testing.T) {
	cfg := SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'",
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
	}

	rr := serveWithSecurityHeaders(cfg, "/")
	if got := rr.Header().Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Errorf("Content-Security-Policy = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q, want SAMEORIGIN", got)
	}
	if got := rr.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}
}

func TestBuildCSP(t *testing.T) {
	got := buildCSP(map[string]string{
		"base-uri":    "'self'",
		"default-src": "'none'",
		"img-src":     "'self' data:",
	})

	// Directives come out in canonical order regardless of map iteration.
	want := "default-src 'none'; img-src 'self' data:; base-uri 'self'"
	if got != want {
		t.Errorf("buildCSP() = %q, want %q", got, want)
	}
}
