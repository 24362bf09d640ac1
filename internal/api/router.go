package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
)

// Deps are the collaborators the API handlers share.
type Deps struct {
	DB         *sql.DB
	JWTSecret  string
	Ledger     *ledger.Service
	Sender     Sender
	Objects    storage.ObjectStore
	PresignTTL time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Ledger: d.Ledger, Objects: d.Objects, PresignTTL: d.PresignTTL}
	ammoHandler := &AmmoHandler{DB: d.DB, Ledger: d.Ledger}
	peopleHandler := &PeopleHandler{DB: d.DB}
	thresholdsHandler := &ThresholdsHandler{DB: d.DB}
	notificationsHandler := &NotificationsHandler{Sender: d.Sender}
	calendarHandler := &CalendarHandler{DB: d.DB}
	exportHandler := &ExportHandler{DB: d.DB}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireFamily := RequireRole(model.RoleFamily)

	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }
	family := func(h http.HandlerFunc) http.Handler { return authMW(requireFamily(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Inventory catalog and photos (admin only).
	mux.Handle("GET /api/items", admin(itemsHandler.List))
	mux.Handle("POST /api/items", admin(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", admin(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", admin(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", admin(itemsHandler.Delete))
	mux.Handle("GET /api/items/{id}/photos", admin(itemsHandler.ListPhotos))
	mux.Handle("POST /api/items/{id}/photos", admin(itemsHandler.UploadPhoto))
	mux.Handle("DELETE /api/items/{id}/photos", admin(itemsHandler.DeletePhoto))

	// Ammo ledger (admin only).
	mux.Handle("GET /api/ammo", admin(ammoHandler.List))
	mux.Handle("GET /api/ammo/calibers", admin(ammoHandler.Calibers))
	mux.Handle("POST /api/ammo/{id}/consume", admin(ammoHandler.Consume))
	mux.Handle("POST /api/ammo/log-use", admin(ammoHandler.LogUse))

	// Alerting (admin only).
	mux.Handle("GET /api/people", admin(peopleHandler.List))
	mux.Handle("POST /api/people", admin(peopleHandler.Create))
	mux.Handle("GET /api/people/{id}", admin(peopleHandler.Get))
	mux.Handle("PUT /api/people/{id}", admin(peopleHandler.Update))
	mux.Handle("DELETE /api/people/{id}", admin(peopleHandler.Delete))
	mux.Handle("GET /api/thresholds", admin(thresholdsHandler.List))
	mux.Handle("POST /api/thresholds", admin(thresholdsHandler.Create))
	mux.Handle("GET /api/thresholds/{id}", admin(thresholdsHandler.Get))
	mux.Handle("PUT /api/thresholds/{id}", admin(thresholdsHandler.Update))
	mux.Handle("DELETE /api/thresholds/{id}", admin(thresholdsHandler.Delete))
	mux.Handle("POST /api/notifications/test", admin(notificationsHandler.Test))

	// Calendar: read (family+), write (admin).
	mux.Handle("GET /api/calendar", family(calendarHandler.View))
	mux.Handle("GET /api/trips", family(calendarHandler.ListTrips))
	mux.Handle("POST /api/trips", admin(calendarHandler.CreateTrip))
	mux.Handle("GET /api/trips/{id}", family(calendarHandler.GetTrip))
	mux.Handle("PUT /api/trips/{id}", admin(calendarHandler.UpdateTrip))
	mux.Handle("DELETE /api/trips/{id}", admin(calendarHandler.DeleteTrip))
	mux.Handle("GET /api/days/{date}", family(calendarHandler.GetDay))
	mux.Handle("PUT /api/days/{date}", admin(calendarHandler.PutDay))
	mux.Handle("DELETE /api/days/{date}", admin(calendarHandler.DeleteDay))
	mux.Handle("GET /api/events", family(calendarHandler.ListEvents))
	mux.Handle("POST /api/events", admin(calendarHandler.CreateEvent))
	mux.Handle("GET /api/events/{id}", family(calendarHandler.GetEvent))
	mux.Handle("PUT /api/events/{id}", admin(calendarHandler.UpdateEvent))
	mux.Handle("DELETE /api/events/{id}", admin(calendarHandler.DeleteEvent))

	// Export (admin only).
	mux.Handle("GET /api/export/inventory.xlsx", admin(exportHandler.Inventory))

	return mux
}
