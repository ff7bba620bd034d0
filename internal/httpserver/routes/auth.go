package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register("auth", registerAuth, middleware.Timeout(requestTimeout)) }

func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.AuthRateBurst,
			RefillPerMin: d.AuthRatePerMn,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
			Logger:       d.Logger,
		}),
	)
	limited.Post("/login", handlers.Login(d))
	limited.Post("/signup", handlers.Signup(d))
	limited.Get("/auth/google/login", handlers.GoogleLogin(d))
	limited.Get("/auth/google/callback", handlers.GoogleCallback(d))
}
