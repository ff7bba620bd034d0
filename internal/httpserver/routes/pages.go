package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

// requestTimeout bounds every route but the websocket.
const requestTimeout = 10 * time.Second

func init() { Register("pages", registerPages, middleware.Timeout(requestTimeout)) }

func registerPages(r chi.Router, d deps.Deps) {
	pages := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	pages.With(mw.RequireUser(false, d.Logger)).Get("/", handlers.Home(d))
	pages.Get("/login", handlers.LoginPage(d))
}
