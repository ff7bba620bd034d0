package mw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/dataservice"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// SessionCookie holds the signed session token of browser users.
const SessionCookie = "marks_session"

type ctxKey int

const (
	clientKey ctxKey = iota
	userKey
)

// SessionToken extracts the session token from the cookie or, for API
// callers, from an "Authorization: Bearer" header.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Session attaches a data service client for the request's token.
func Session(data *dataservice.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientKey, data.Session(SessionToken(r)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a signed-in user. Pages redirect to
// the login form, API calls get a 401.
func RequireUser(api bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFrom(r.Context())
			if client == nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			user, err := client.User(r.Context())
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					log.Error("session lookup failed", logger.Error(err))
				}
				if api {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			annotateUser(r.Context(), user.ID)
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFrom returns the client attached by Session.
func ClientFrom(ctx context.Context) *dataservice.Client {
	c, _ := ctx.Value(clientKey).(*dataservice.Client)
	return c
}

// UserFrom returns the user attached by RequireUser.
func UserFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}
