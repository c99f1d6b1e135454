package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(2, time.Minute, 2)
	defer l.Close()

	r1 := l.Allow("client-a")
	if !r1.Allowed {
		t.Fatal("first request denied")
	}
	if r1.Limit != 2 {
		t.Errorf("Limit = %d, want 2", r1.Limit)
	}
	if !l.Allow("client-a").Allowed {
		t.Fatal("second request denied")
	}
	r3 := l.Allow("client-a")
	if r3.Allowed {
		t.Fatal("third request allowed, burst is 2")
	}
	if r3.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v", r3.RetryAfter)
	}
}

func TestLimiterKeysIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute, 1)
	defer l.Close()

	if !l.Allow("client-a").Allowed {
		t.Fatal("client-a denied")
	}
	if !l.Allow("client-b").Allowed {
		t.Fatal("client-b denied after client-a consumed its bucket")
	}
	if l.Allow("client-a").Allowed {
		t.Fatal("client-a second request allowed")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, time.Minute, 0)
	if l != nil {
		t.Fatal("requests <= 0 should return nil")
	}
	// nil limiter allows everything.
	for range 100 {
		if !l.Allow("anyone").Allowed {
			t.Fatal("nil limiter denied a request")
		}
	}
}

func TestLimiterCleanup(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	l.Allow("stale")
	l.mu.Lock()
	l.buckets["stale"].lastSeen = time.Now().Add(-3 * time.Minute)
	l.mu.Unlock()

	l.cleanup()

	l.mu.Lock()
	_, exists := l.buckets["stale"]
	l.mu.Unlock()
	if exists {
		t.Error("stale bucket survived cleanup")
	}
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(1, time.Minute, 1)
	defer l.Close()

	var hits int
	h := Middleware(l, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	req.RemoteAddr = "192.0.2.1:4444"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on 429")
	}
	if hits != 1 {
		t.Errorf("handler hits = %d, want 1", hits)
	}
}

func TestMiddlewareNilLimiter(t *testing.T) {
	called := false
	h := Middleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil limiter blocked the request")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"remote addr", "192.0.2.1:4444", "", "192.0.2.1"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.9, 10.0.0.2", "203.0.113.9"},
		{"no port", "192.0.2.7", "", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
