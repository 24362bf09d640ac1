package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/calendar"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// CalendarHandler handles trips, day statuses, events and the merged view.
type CalendarHandler struct {
	DB *sql.DB
}

type calendarResponse struct {
	Entries []calendar.Entry `json:"entries"`
	Days    []model.Day      `json:"days"`
}

// View handles GET /api/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD. Every date
// in the range appears in days, stored or not.
func (h *CalendarHandler) View(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	start, end, err := calendar.ParseRange(from, to)
	if err != nil {
		storeError(w, err, "parse range")
		return
	}

	trips, err := store.ListTrips(r.Context(), h.DB, from, to)
	if err != nil {
		storeError(w, err, "list trips")
		return
	}
	events, err := store.ListEvents(r.Context(), h.DB, start, end.AddDate(0, 0, 1))
	if err != nil {
		storeError(w, err, "list events")
		return
	}
	entries, err := calendar.Merge(trips, events)
	if err != nil {
		storeError(w, err, "merge calendar")
		return
	}

	stored, err := store.ListDays(r.Context(), h.DB, from, to)
	if err != nil {
		storeError(w, err, "list days")
		return
	}
	days, err := calendar.Days(from, to, stored)
	if err != nil {
		storeError(w, err, "resolve days")
		return
	}

	jsonResponse(w, http.StatusOK, calendarResponse{Entries: entries, Days: days})
}

// ListTrips handles GET /api/trips?from=&to=.
func (h *CalendarHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := store.ListTrips(r.Context(), h.DB, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		storeError(w, err, "list trips")
		return
	}
	if trips == nil {
		trips = []model.Trip{}
	}
	jsonResponse(w, http.StatusOK, trips)
}

// CreateTrip handles POST /api/trips.
func (h *CalendarHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req model.Trip
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateTrip(&req); err != nil {
		storeError(w, err, "validate trip")
		return
	}

	trip, err := store.CreateTrip(r.Context(), h.DB, &req)
	if err != nil {
		storeError(w, err, "create trip")
		return
	}
	jsonResponse(w, http.StatusCreated, trip)
}

// GetTrip handles GET /api/trips/{id}.
func (h *CalendarHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "trip")
	if !ok {
		return
	}

	trip, err := store.GetTrip(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get trip")
		return
	}
	if trip == nil {
		jsonError(w, http.StatusNotFound, "trip not found")
		return
	}
	jsonResponse(w, http.StatusOK, trip)
}

// UpdateTrip handles PUT /api/trips/{id}.
func (h *CalendarHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "trip")
	if !ok {
		return
	}

	var req model.Trip
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = id
	if err := validateTrip(&req); err != nil {
		storeError(w, err, "validate trip")
		return
	}

	if err := store.UpdateTrip(r.Context(), h.DB, &req); err != nil {
		storeError(w, err, "update trip")
		return
	}
	trip, _ := store.GetTrip(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /api/trips/{id}. Days and events linked to the
// trip keep their data but lose the link.
func (h *CalendarHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "trip")
	if !ok {
		return
	}

	if err := store.DeleteTrip(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete trip")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "trip deleted"})
}

// GetDay handles GET /api/days/{date}. Dates without a record return the
// implicit default.
func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	stored, err := store.GetDay(r.Context(), h.DB, date.Format(model.DateLayout))
	if err != nil {
		storeError(w, err, "get day")
		return
	}
	jsonResponse(w, http.StatusOK, calendar.ResolveDay(date, stored))
}

// PutDay handles PUT /api/days/{date}.
func (h *CalendarHandler) PutDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	var req model.Day
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Date = date.Format(model.DateLayout)
	req.Implicit = false
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "validate day")
		return
	}

	if req.TripID != nil {
		trip, err := store.GetTrip(r.Context(), h.DB, *req.TripID)
		if err != nil {
			storeError(w, err, "get trip")
			return
		}
		if trip == nil {
			jsonError(w, http.StatusBadRequest, "trip_id does not reference an existing trip")
			return
		}
		if req.TripName == "" {
			req.TripName = trip.Name
		}
	}

	if err := store.PutDay(r.Context(), h.DB, &req); err != nil {
		storeError(w, err, "store day")
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// DeleteDay handles DELETE /api/days/{date}; the date reverts to its default.
func (h *CalendarHandler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	if err := store.DeleteDay(r.Context(), h.DB, date.Format(model.DateLayout)); err != nil {
		storeError(w, err, "delete day")
		return
	}
	jsonResponse(w, http.StatusOK, calendar.ResolveDay(date, nil))
}

// ListEvents handles GET /api/events?from=&to= with RFC3339 bounds.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	for name, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, name+" must be an RFC3339 timestamp")
			return
		}
		*dst = t
	}

	events, err := store.ListEvents(r.Context(), h.DB, from, to)
	if err != nil {
		storeError(w, err, "list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// CreateEvent handles POST /api/events.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.Event
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "validate event")
		return
	}

	ev, err := store.CreateEvent(r.Context(), h.DB, &req)
	if err != nil {
		storeError(w, err, "create event")
		return
	}
	jsonResponse(w, http.StatusCreated, ev)
}

// GetEvent handles GET /api/events/{id}.
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	ev, err := store.GetEvent(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get event")
		return
	}
	if ev == nil {
		jsonError(w, http.StatusNotFound, "event not found")
		return
	}
	jsonResponse(w, http.StatusOK, ev)
}

// UpdateEvent handles PUT /api/events/{id}.
func (h *CalendarHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	var req model.Event
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = id
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "validate event")
		return
	}

	if err := store.UpdateEvent(r.Context(), h.DB, &req); err != nil {
		storeError(w, err, "update event")
		return
	}
	ev, _ := store.GetEvent(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, ev)
}

// DeleteEvent handles DELETE /api/events/{id}.
func (h *CalendarHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	if err := store.DeleteEvent(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete event")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func validateTrip(t *model.Trip) error {
	if err := model.Validate(t); err != nil {
		return err
	}
	if t.EndDate < t.StartDate {
		return model.Invalidf("end_date is before start_date")
	}
	return nil
}

func pathDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse(model.DateLayout, r.PathValue("date"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
