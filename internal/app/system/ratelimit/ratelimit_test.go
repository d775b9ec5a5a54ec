package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowWithinWindow(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("third request should be limited")
	}
	if l.Remaining("k") != 0 {
		t.Errorf("Remaining: got %d, want 0", l.Remaining("k"))
	}
	if !l.Allow("other") {
		t.Error("other keys are independent")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request should be limited")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("k") {
		t.Fatal("request after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	l.Allow("k")
	l.Reset("k")
	if l.Remaining("k") != 1 {
		t.Errorf("Remaining after reset: got %d, want 1", l.Remaining("k"))
	}
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	h := l.Middleware("tooManyAttempts")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/register", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: got %d, want %d", i, rec.Code, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:80", "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.2 "}, "10.0.0.2:80", "203.0.113.2"},
		{"remote with port", nil, "192.0.2.10:4000", "192.0.2.10"},
		{"remote without port", nil, "192.0.2.11", "192.0.2.11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_EmailLimit(t *testing.T) {
	ll := NewLoginLimiter(100, time.Minute, 1, time.Minute)
	defer ll.Stop()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if ok, _ := ll.Check(req, "Ana@Example.com"); !ok {
		t.Fatal("first attempt should pass")
	}
	ok, reason := ll.Check(req, "ana@example.com")
	if ok || reason != ReasonEmail {
		t.Fatalf("second attempt: got (%v, %q), want (false, %q)", ok, reason, ReasonEmail)
	}

	ll.ResetEmail("ANA@example.com")
	if ok, _ := ll.Check(req, "ana@example.com"); !ok {
		t.Fatal("attempt after reset should pass")
	}
}
