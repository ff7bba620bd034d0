package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const oauthStateCookie = "marks_oauth_state"

type loginPage struct {
	Error  string
	Email  string
	Google bool
}

// LoginPage shows the sign-in and sign-up forms. Signed-in users go
// straight to their bookmarks.
func LoginPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := mw.ClientFrom(r.Context()).User(r.Context()); err == nil {
			http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
			return
		}
		render(w, d.Logger, http.StatusOK, "login.html", loginPage{Google: d.Data.GoogleEnabled()})
	}
}

// Login signs in with email and password.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password := r.PostFormValue("email"), r.PostFormValue("password")

		token, user, err := d.Data.SignIn(r.Context(), email, password)
		if err != nil {
			status, msg := http.StatusInternalServerError, "Something went wrong, please try again."
			if errors.Is(err, domain.ErrInvalidCredentials) {
				status, msg = http.StatusUnauthorized, "Wrong email or password."
			} else {
				d.Logger.Error("sign-in failed", logger.Error(err))
			}
			render(w, d.Logger, status, "login.html", loginPage{Error: msg, Email: email, Google: d.Data.GoogleEnabled()})
			return
		}

		d.Logger.Info("user signed in", logger.String("user_id", user.ID))
		setSessionCookie(w, d, token)
		http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
	}
}

// Signup registers a password account and signs it in.
func Signup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password := r.PostFormValue("email"), r.PostFormValue("password")

		token, _, err := d.Data.SignUp(r.Context(), email, password)
		if err != nil {
			status, msg := http.StatusInternalServerError, "Something went wrong, please try again."
			switch {
			case errors.Is(err, domain.ErrEmailTaken):
				status, msg = http.StatusConflict, "This email is already registered."
			case errors.Is(err, auth.ErrWeakPassword):
				status, msg = http.StatusBadRequest, "Passwords need at least 8 characters."
			default:
				d.Logger.Error("sign-up failed", logger.Error(err))
			}
			render(w, d.Logger, status, "login.html", loginPage{Error: msg, Email: email, Google: d.Data.GoogleEnabled()})
			return
		}

		setSessionCookie(w, d, token)
		http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
	}
}

// GoogleLogin starts the OAuth flow.
func GoogleLogin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := auth.NewState()
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		target, err := d.Data.GoogleAuthURL(state)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Expires:  d.Now().Add(20 * time.Minute),
			Path:     "/",
			HttpOnly: true,
			Secure:   d.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}

// GoogleCallback completes the OAuth flow.
func GoogleCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := r.Cookie(oauthStateCookie)
		if err != nil || state.Value == "" || r.FormValue("state") != state.Value {
			d.Logger.Warn("oauth callback with invalid state", logger.String("remote_ip", r.RemoteAddr))
			http.Error(w, "invalid oauth state", http.StatusBadRequest)
			return
		}
		clearCookie(w, oauthStateCookie, d.SecureCookies)

		token, user, err := d.Data.SignInWithGoogle(r.Context(), r.FormValue("code"))
		if err != nil {
			d.Logger.Error("google sign-in failed", logger.Error(err))
			render(w, d.Logger, http.StatusUnauthorized, "login.html",
				loginPage{Error: "Google sign-in failed.", Google: d.Data.GoogleEnabled()})
			return
		}

		d.Logger.Info("user signed in with google", logger.String("user_id", user.ID))
		setSessionCookie(w, d, token)
		http.Redirect(w, r, actions.HomePath, http.StatusSeeOther)
	}
}

func setSessionCookie(w http.ResponseWriter, d deps.Deps, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  d.Now().Add(d.Data.SessionTTL()),
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
