package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// AlertsPage handles GET /alerts: notification people and ammo thresholds.
func (s *Server) AlertsPage(w http.ResponseWriter, r *http.Request) {
	people, err := store.ListPeople(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list people", "error", err)
	}
	thresholds, err := store.ListThresholds(r.Context(), s.DB, store.ThresholdFilter{})
	if err != nil {
		slog.Error("failed to list thresholds", "error", err)
	}
	calibers, err := store.ListCalibers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list calibers", "error", err)
	}

	s.Templates.Render(w, "alerts.html", &struct {
		PageData
		People     []model.NotificationPerson
		Thresholds []model.AmmoThreshold
		Calibers   []string
		Channels   []model.Channel
	}{
		PageData:   s.page(r, "Alerts"),
		People:     people,
		Thresholds: thresholds,
		Calibers:   calibers,
		Channels:   []model.Channel{model.ChannelSMS, model.ChannelWhatsApp, model.ChannelEmail},
	})
}

// PersonCreateSubmit handles POST /people.
func (s *Server) PersonCreateSubmit(w http.ResponseWriter, r *http.Request) {
	p := &model.NotificationPerson{
		Name:             r.FormValue("name"),
		Phone:            r.FormValue("phone"),
		Email:            r.FormValue("email"),
		PreferredChannel: model.Channel(r.FormValue("preferred_channel")),
		Active:           true,
	}
	if err := model.Validate(p); err != nil {
		s.formError(w, r, "/alerts", "create person", err)
		return
	}
	if _, err := store.CreatePerson(r.Context(), s.DB, p); err != nil {
		s.formError(w, r, "/alerts", "create person", err)
		return
	}

	slog.Info("notification person created", "user", GetWebClaims(r.Context()).Username, "name", p.Name)
	backOK(w, r, "/alerts", "Person added.")
}

// PersonToggleSubmit handles POST /people/{id}/toggle.
func (s *Server) PersonToggleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.personFromPath(w, r)
	if !ok {
		return
	}
	p.Active = !p.Active
	if err := store.UpdatePerson(r.Context(), s.DB, p); err != nil {
		s.formError(w, r, "/alerts", "update person", err)
		return
	}
	http.Redirect(w, r, "/alerts", http.StatusSeeOther)
}

// PersonDeleteSubmit handles POST /people/{id}/delete.
func (s *Server) PersonDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.personFromPath(w, r)
	if !ok {
		return
	}
	if err := store.DeletePerson(r.Context(), s.DB, p.ID); err != nil {
		s.formError(w, r, "/alerts", "delete person", err)
		return
	}

	slog.Info("notification person deleted", "user", GetWebClaims(r.Context()).Username, "name", p.Name)
	backOK(w, r, "/alerts", "Person removed with their thresholds.")
}

// PersonTestSubmit handles POST /people/{id}/test.
func (s *Server) PersonTestSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.personFromPath(w, r)
	if !ok {
		return
	}

	res := s.Sender.Send(r.Context(), p.ID, r.FormValue("message"))
	if !res.OK {
		backErr(w, r, "/alerts", "Test to "+p.Name+" failed: "+res.Error)
		return
	}
	backOK(w, r, "/alerts", "Test sent to "+p.Name+".")
}

// ThresholdCreateSubmit handles POST /thresholds.
func (s *Server) ThresholdCreateSubmit(w http.ResponseWriter, r *http.Request) {
	p := &formParser{r: r}
	th := &model.AmmoThreshold{
		Caliber:   p.str("caliber"),
		MinRounds: p.int("min_rounds"),
		PersonID:  int64(p.int("person_id")),
		Enabled:   true,
	}
	if p.err != nil {
		s.formError(w, r, "/alerts", "create threshold", p.err)
		return
	}
	if err := model.Validate(th); err != nil {
		s.formError(w, r, "/alerts", "create threshold", err)
		return
	}
	if person, err := store.GetPerson(r.Context(), s.DB, th.PersonID); err != nil || person == nil {
		backErr(w, r, "/alerts", "Choose an existing person.")
		return
	}
	if _, err := store.CreateThreshold(r.Context(), s.DB, th); err != nil {
		s.formError(w, r, "/alerts", "create threshold", err)
		return
	}
	backOK(w, r, "/alerts", "Threshold added.")
}

// ThresholdToggleSubmit handles POST /thresholds/{id}/toggle.
func (s *Server) ThresholdToggleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	th, err := store.GetThreshold(r.Context(), s.DB, id)
	if err != nil || th == nil {
		backErr(w, r, "/alerts", "Threshold not found.")
		return
	}
	th.Enabled = !th.Enabled
	if err := store.UpdateThreshold(r.Context(), s.DB, th); err != nil {
		s.formError(w, r, "/alerts", "update threshold", err)
		return
	}
	http.Redirect(w, r, "/alerts", http.StatusSeeOther)
}

// ThresholdDeleteSubmit handles POST /thresholds/{id}/delete.
func (s *Server) ThresholdDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := store.DeleteThreshold(r.Context(), s.DB, id); err != nil {
		s.formError(w, r, "/alerts", "delete threshold", err)
		return
	}
	backOK(w, r, "/alerts", "Threshold removed.")
}

func (s *Server) personFromPath(w http.ResponseWriter, r *http.Request) (*model.NotificationPerson, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}
	p, err := store.GetPerson(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get person", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		backErr(w, r, "/alerts", "Person not found.")
		return nil, false
	}
	return p, true
}
