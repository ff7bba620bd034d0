package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

// AddBookmark is the form fallback used without JavaScript.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		// errors are logged by the handler, the page shows the current list
		_, _ = d.Actions.AddBookmark(r.Context(), mw.ClientFrom(r.Context()), r.PostFormValue("title"), r.PostFormValue("url"))
		http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
	}
}

// DeleteBookmark is the form fallback used without JavaScript.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = d.Actions.DeleteBookmark(r.Context(), mw.ClientFrom(r.Context()), chi.URLParam(r, "id"))
		http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
	}
}

// SignOut terminates the session and clears the cookie.
func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		to, err := d.Actions.SignOut(r.Context(), mw.ClientFrom(r.Context()))
		if err != nil {
			http.Error(w, "failed to sign out", http.StatusInternalServerError)
			return
		}
		clearCookie(w, mw.SessionCookie, d.SecureCookies)
		http.Redirect(w, r, to, http.StatusSeeOther)
	}
}
