package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// PeopleHandler handles notification recipients.
type PeopleHandler struct {
	DB *sql.DB
}

// personRequest defaults Active to true when the field is omitted.
type personRequest struct {
	model.NotificationPerson
	Active *bool `json:"active"`
}

func (req *personRequest) person() *model.NotificationPerson {
	p := req.NotificationPerson
	p.Active = req.Active == nil || *req.Active
	return &p
}

// List handles GET /api/people.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := store.ListPeople(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list people")
		return
	}
	if people == nil {
		people = []model.NotificationPerson{}
	}
	jsonResponse(w, http.StatusOK, people)
}

// Create handles POST /api/people.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in := req.person()
	if err := model.Validate(in); err != nil {
		storeError(w, err, "create person")
		return
	}

	p, err := store.CreatePerson(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "create person")
		return
	}

	slog.Info("notification person created", "user", GetClaims(r.Context()).Username, "person_id", p.ID,
		"channel", p.PreferredChannel)
	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/people/{id}.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "person")
	if !ok {
		return
	}

	p, err := store.GetPerson(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get person")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "person not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/people/{id}.
func (h *PeopleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "person")
	if !ok {
		return
	}

	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in := req.person()
	in.ID = id
	if err := model.Validate(in); err != nil {
		storeError(w, err, "update person")
		return
	}

	if err := store.UpdatePerson(r.Context(), h.DB, in); err != nil {
		storeError(w, err, "update person")
		return
	}

	p, _ := store.GetPerson(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, p)
}

// Delete handles DELETE /api/people/{id}. The person's thresholds go with it.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "person")
	if !ok {
		return
	}

	if err := store.DeletePerson(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete person")
		return
	}

	slog.Info("notification person deleted", "user", GetClaims(r.Context()).Username, "person_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "person deleted"})
}
