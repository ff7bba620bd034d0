package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	now := time.Now()

	signed, session, err := tokens.Issue("user-1", now)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if session.ID == "" || session.UserID != "user-1" {
		t.Errorf("Issue() session = %+v", session)
	}

	got, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.ID != session.ID || got.UserID != "user-1" {
		t.Errorf("Parse() = %+v, want %+v", got, session)
	}
}

func TestTokensReject(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)

	expired, _, _ := tokens.Issue("user-1", time.Now().Add(-2*time.Hour))
	forged, _, _ := NewTokens("another-secret-another-secret-xx", time.Hour).Issue("user-1", time.Now())
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "user-1",
		ID:        "s1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", forged},
		{"alg none", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("HashPassword(short) error = %v, want ErrWeakPassword", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "battery staple") {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("", "correct horse") {
		t.Error("CheckPassword() accepted an empty hash")
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	b, _ := NewState()
	if a == "" || a == b {
		t.Errorf("NewState() = %q, %q, want distinct values", a, b)
	}
}

func newTestGoogle(t *testing.T, identity GoogleIdentity) *Google {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(identity)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewGoogle("client", "secret", "http://localhost/auth/google/callback")
	g.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}
	g.userInfoURL = srv.URL + "/userinfo"
	return g
}

func TestGoogleIdentity(t *testing.T) {
	g := newTestGoogle(t, GoogleIdentity{ID: "g-1", Email: "alice@example.com", VerifiedEmail: true})

	got, err := g.Identity(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if got.ID != "g-1" || got.Email != "alice@example.com" {
		t.Errorf("Identity() = %+v", got)
	}
}

func TestGoogleIdentityUnverified(t *testing.T) {
	g := newTestGoogle(t, GoogleIdentity{ID: "g-1", Email: "alice@example.com"})

	if _, err := g.Identity(context.Background(), "code-1"); !errors.Is(err, ErrUnverifiedEmail) {
		t.Errorf("Identity() error = %v, want ErrUnverifiedEmail", err)
	}
}

func TestGoogleAuthCodeURL(t *testing.T) {
	g := NewGoogle("client", "secret", "http://localhost/cb")
	u := g.AuthCodeURL("state-1")
	if !strings.Contains(u, "state=state-1") || !strings.Contains(u, "client_id=client") {
		t.Errorf("AuthCodeURL() = %q", u)
	}
}
