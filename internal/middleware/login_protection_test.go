package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fastLoginProtection returns protection tuned for quick tests: high IP
// rate limits so only the account lockout path is exercised.
func fastLoginProtection(maxAttempts int, lockout, window time.Duration) *LoginProtection {
	return NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
	if cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("AttemptWindow = %v, want 15m", cfg.AttemptWindow)
	}
}

func TestNewLoginProtectionAppliesDefaults(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m", lp.lockoutDuration)
	}
}

func TestAccountLockoutAndExpiry(t *testing.T) {
	lp := fastLoginProtection(3, 200*time.Millisecond, time.Minute)
	email := "editor@acme.example"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account locked before any failed attempt")
	}

	// First two failures do not lock; the third does.
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("locked after first failure")
	}
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("locked after second failure")
	}
	locked, dur := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("not locked after third failure")
	}
	if dur <= 0 {
		t.Errorf("lockout duration = %v, want > 0", dur)
	}

	locked, remaining := lp.IsAccountLocked(email)
	if !locked {
		t.Fatal("IsAccountLocked() = false while locked")
	}
	if remaining <= 0 {
		t.Errorf("remaining = %v, want > 0", remaining)
	}

	time.Sleep(dur + 50*time.Millisecond)

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("still locked after lockout expired")
	}
}

func TestSuccessfulLoginResetsAttempts(t *testing.T) {
	lp := fastLoginProtection(3, time.Minute, time.Minute)
	email := "viewer@acme.example"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)

	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("GetRemainingAttempts() = %d, want 3", got)
	}
}

func TestGetRemainingAttempts(t *testing.T) {
	lp := fastLoginProtection(5, time.Minute, time.Minute)
	email := "manager@acme.example"

	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("initial GetRemainingAttempts() = %d, want 5", got)
	}

	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 4 {
		t.Errorf("after one failure GetRemainingAttempts() = %d, want 4", got)
	}

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 2 {
		t.Errorf("after three failures GetRemainingAttempts() = %d, want 2", got)
	}
}

func TestLockoutBackoffDoubles(t *testing.T) {
	lp := fastLoginProtection(2, 100*time.Millisecond, time.Minute)
	email := "admin@acme.example"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)

	time.Sleep(first + 20*time.Millisecond)

	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if second <= first {
		t.Errorf("second lockout %v not longer than first %v", second, first)
	}
}

func TestAttemptWindowReset(t *testing.T) {
	lp := fastLoginProtection(5, time.Minute, 100*time.Millisecond)
	email := "stale@acme.example"

	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 4 {
		t.Fatalf("GetRemainingAttempts() = %d, want 4", got)
	}

	time.Sleep(150 * time.Millisecond)

	// Failures outside the window no longer count.
	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("GetRemainingAttempts() after window = %d, want 5", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xForwarded string
		xRealIP    string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "X-Forwarded-For single",
			remoteAddr: "127.0.0.1:8080",
			xForwarded: "10.0.0.1",
			want:       "10.0.0.1",
		},
		{
			name:       "X-Forwarded-For chain takes first hop",
			remoteAddr: "127.0.0.1:8080",
			xForwarded: "10.0.0.1, 10.0.0.2, 10.0.0.3",
			want:       "10.0.0.1",
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "127.0.0.1:8080",
			xRealIP:    "10.0.0.5",
			want:       "10.0.0.5",
		},
		{
			name:       "X-Forwarded-For wins over X-Real-IP",
			remoteAddr: "127.0.0.1:8080",
			xForwarded: "10.0.0.1",
			xRealIP:    "10.0.0.5",
			want:       "10.0.0.1",
		},
		{
			name:       "X-Forwarded-For trims whitespace",
			remoteAddr: "127.0.0.1:8080",
			xForwarded: "  10.0.0.1  ",
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwarded)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := fastLoginProtection(5, time.Minute, time.Minute)
	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET is never rate limited.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rr.Code)
	}

	// POST within the burst passes through.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("POST status = %d, want 200", rr.Code)
	}
}

func TestCheckIPRateLimitBurst(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	for i := 0; i < 5; i++ {
		if !lp.CheckIPRateLimit("192.168.1.100") {
			t.Errorf("request %d denied inside burst", i+1)
		}
	}
}
