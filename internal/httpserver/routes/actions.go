package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register("actions", registerActions, middleware.Timeout(requestTimeout)) }

func registerActions(r chi.Router, d deps.Deps) {
	host := mw.EnforceHost(d.AllowedHosts, d.Logger)
	signedIn := r.With(host, mw.RequireUser(false, d.Logger))
	signedIn.Post("/actions/bookmarks", handlers.AddBookmark(d))
	signedIn.Post("/actions/bookmarks/{id}/delete", handlers.DeleteBookmark(d))

	// signing out without a session still clears the cookie
	r.With(host).Post("/actions/signout", handlers.SignOut(d))
}
