package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := auth.Authenticate(r.Context(), s.DB, username, password)
	if err != nil {
		var le *auth.LoginError
		if errors.As(err, &le) {
			slog.Warn("web login failed", "username", username, "code", le.Code, "remote", r.RemoteAddr)
		} else {
			slog.Error("web login failed", "username", username, "error", err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: auth.LoginMessage(err),
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: auth.LoginMessage(err),
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry / time.Second),
	})

	slog.Info("user logged in", "user", user.Username, "role", user.Role, "via", "web")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The cookie's token is revoked so a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil && claims.ID != "" {
			expires := time.Now().Add(auth.TokenExpiry)
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time
			}
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expires); err != nil {
				slog.Error("failed to revoke token", "error", err)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// back redirects to path with a flash message in the query string.
func back(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	if msg != "" {
		sep := "?"
		if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		path += sep + url.Values{key: {msg}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func backOK(w http.ResponseWriter, r *http.Request, path, msg string) {
	back(w, r, path, "ok", msg)
}

func backErr(w http.ResponseWriter, r *http.Request, path, msg string) {
	back(w, r, path, "error", msg)
}
