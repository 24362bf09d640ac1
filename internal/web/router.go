package web

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/model"
	webembed "github.com/erazemk/zaloga/web"
)

// NewRouter creates the web page router with all page routes registered.
// Business pages are admin only; family members see the overview and the
// calendar.
func NewRouter(s *Server) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(s.JWTSecret, s.DB)
	requireAdmin := RequireWebRole(model.RoleAdmin)
	requireFamily := RequireWebRole(model.RoleFamily)

	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireAdmin(h)) }
	family := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireFamily(h)) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))
	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	mux.Handle("GET /items", admin(s.ItemsPage))
	mux.Handle("POST /items", admin(s.ItemCreateSubmit))
	mux.Handle("GET /items/{id}", admin(s.ItemDetailPage))
	mux.Handle("POST /items/{id}", admin(s.ItemUpdateSubmit))
	mux.Handle("POST /items/{id}/delete", admin(s.ItemDeleteSubmit))
	mux.Handle("POST /items/{id}/photos", admin(s.ItemPhotoSubmit))
	mux.Handle("POST /items/{id}/photos/delete", admin(s.ItemPhotoDeleteSubmit))

	mux.Handle("GET /ammo", admin(s.AmmoPage))
	mux.Handle("POST /ammo", admin(s.AmmoCreateSubmit))
	mux.Handle("POST /ammo/log-use", admin(s.AmmoLogUseSubmit))
	mux.Handle("POST /ammo/{id}", admin(s.AmmoUpdateSubmit))

	mux.Handle("GET /alerts", admin(s.AlertsPage))
	mux.Handle("POST /people", admin(s.PersonCreateSubmit))
	mux.Handle("POST /people/{id}/toggle", admin(s.PersonToggleSubmit))
	mux.Handle("POST /people/{id}/delete", admin(s.PersonDeleteSubmit))
	mux.Handle("POST /people/{id}/test", admin(s.PersonTestSubmit))
	mux.Handle("POST /thresholds", admin(s.ThresholdCreateSubmit))
	mux.Handle("POST /thresholds/{id}/toggle", admin(s.ThresholdToggleSubmit))
	mux.Handle("POST /thresholds/{id}/delete", admin(s.ThresholdDeleteSubmit))

	mux.Handle("GET /calendar", family(s.CalendarPage))
	mux.Handle("POST /days/{date}", admin(s.DaySubmit))
	mux.Handle("POST /days/{date}/clear", admin(s.DayClearSubmit))

	mux.Handle("GET /users", admin(s.UsersPage))
	mux.Handle("POST /users", admin(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}", admin(s.UserUpdateSubmit))
	mux.Handle("POST /users/{id}/password", admin(s.UserResetPasswordSubmit))

	return mux, nil
}
