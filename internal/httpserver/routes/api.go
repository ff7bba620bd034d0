package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register("api", registerAPI, middleware.Timeout(requestTimeout)) }

func registerAPI(r chi.Router, d deps.Deps) {
	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), mw.RequireUser(true, d.Logger))
	api.Get("/api/bookmarks", handlers.ListBookmarks(d))

	writes := api
	if d.APIRateBurst > 0 {
		writes = api.With(apiWriteLimit(d))
	}
	writes.Post("/api/bookmarks", handlers.CreateBookmark(d))
	writes.Patch("/api/bookmarks/{id}", handlers.UpdateBookmark(d))
	writes.Delete("/api/bookmarks/{id}", handlers.DeleteBookmarkAPI(d))
}

func apiWriteLimit(d deps.Deps) func(http.Handler) http.Handler {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.APIRateBurst,
		RefillPerMin: d.APIRatePerMn,
		MaxEntries:   10000,
		KeyFunc:      mw.PerUser(d.TrustProxy),
		JSON:         true,
		Logger:       d.Logger,
	})
}
