package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

func TestHostAllowed(t *testing.T) {
	patterns := []string{"marks.example.com", "*.home.lan"}

	tests := []struct {
		host string
		want bool
	}{
		{"marks.example.com", true},
		{"MARKS.example.com:8443", true},
		{"tab.home.lan", true},
		{"home.lan", false},
		{"evil.example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HostAllowed(tt.host, patterns); got != tt.want {
			t.Errorf("HostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
	if HostAllowed("marks.example.com", nil) {
		t.Error("HostAllowed with no patterns = true")
	}
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"none", "", "", ""},
		{"cookie", "", "abc", "abc"},
		{"bearer", "Bearer xyz", "", "xyz"},
		{"bearer wins", "Bearer xyz", "abc", "xyz"},
		{"other scheme", "Basic Zm9vOmJhcg==", "abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if got := SessionToken(r); got != tt.want {
				t.Errorf("SessionToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireUserWithoutClient(t *testing.T) {
	h := RequireUser(true, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler called")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLimiterRefill(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerMin: 60})
	now := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("10.0.0.1", now); !ok {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	ok, _, retry := l.allow("10.0.0.1", now)
	if ok || retry != 1 {
		t.Fatalf("over burst: ok=%v retry=%d, want rejected with retry 1", ok, retry)
	}
	if ok, _, _ := l.allow("10.0.0.2", now); !ok {
		t.Error("other IP shares the bucket")
	}
	if ok, _, _ := l.allow("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("token not refilled after one second")
	}
}

func TestRateLimitPerUser(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Burst:        1,
		RefillPerMin: 1,
		KeyFunc:      PerUser(false),
		JSON:         true,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req = req.WithContext(context.WithValue(req.Context(), userKey, &domain.User{ID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("alice")
	if first.Code != http.StatusNoContent {
		t.Fatalf("first alice write = %d, want 204", first.Code)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	rec := send("alice")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second alice write = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	// Same IP, different user: separate bucket.
	if rec := send("bob"); rec.Code != http.StatusNoContent {
		t.Errorf("bob write = %d, want 204", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		allowed []string
		remote  string
		want    int
	}{
		{"empty list passes", nil, "203.0.113.7:1", http.StatusNoContent},
		{"inside cidr", []string{"203.0.113.0/24"}, "203.0.113.7:1", http.StatusNoContent},
		{"outside cidr", []string{"10.0.0.0/8"}, "203.0.113.7:1", http.StatusForbidden},
		{"only typos deny", []string{"10.0.0.0/33"}, "10.0.0.1:1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, false, logger.Nop())(ok)
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			r.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLogRecordsUserAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	h := Log(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotateUser(r.Context(), "user-1")
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/", "/boom", "/healthz"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.ErrorLevel, zapcore.DebugLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, e.Level, wantLevels[i])
		}
		if got := e.ContextMap()["user_id"]; got != "user-1" {
			t.Errorf("entry %d user_id = %v, want user-1", i, got)
		}
	}
	if got := entries[0].ContextMap()["bytes"]; got != int64(2) {
		t.Errorf("bytes = %v (%T), want 2", got, got)
	}
}
