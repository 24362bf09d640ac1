package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ThresholdsHandler handles low-stock alert rules.
type ThresholdsHandler struct {
	DB *sql.DB
}

// thresholdRequest defaults Enabled to true when the field is omitted.
type thresholdRequest struct {
	model.AmmoThreshold
	Enabled *bool `json:"enabled"`
}

// List handles GET /api/thresholds?caliber=&enabled=.
func (h *ThresholdsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ThresholdFilter{Caliber: strings.TrimSpace(r.URL.Query().Get("caliber"))}
	if v := r.URL.Query().Get("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "enabled must be true or false")
			return
		}
		filter.Enabled = &enabled
	}

	thresholds, err := store.ListThresholds(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "list thresholds")
		return
	}
	if thresholds == nil {
		thresholds = []model.AmmoThreshold{}
	}
	jsonResponse(w, http.StatusOK, thresholds)
}

// Create handles POST /api/thresholds.
func (h *ThresholdsHandler) Create(w http.ResponseWriter, r *http.Request) {
	th, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := store.CreateThreshold(r.Context(), h.DB, th)
	if err != nil {
		storeError(w, err, "create threshold")
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/thresholds/{id}.
func (h *ThresholdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "threshold")
	if !ok {
		return
	}

	th, err := store.GetThreshold(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get threshold")
		return
	}
	if th == nil {
		jsonError(w, http.StatusNotFound, "threshold not found")
		return
	}
	jsonResponse(w, http.StatusOK, th)
}

// Update handles PUT /api/thresholds/{id}.
func (h *ThresholdsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "threshold")
	if !ok {
		return
	}

	th, ok := h.decode(w, r)
	if !ok {
		return
	}
	th.ID = id

	if err := store.UpdateThreshold(r.Context(), h.DB, th); err != nil {
		storeError(w, err, "update threshold")
		return
	}

	updated, _ := store.GetThreshold(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/thresholds/{id}.
func (h *ThresholdsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "threshold")
	if !ok {
		return
	}

	if err := store.DeleteThreshold(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete threshold")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "threshold deleted"})
}

// decode reads and validates a threshold body. The referenced person must
// exist.
func (h *ThresholdsHandler) decode(w http.ResponseWriter, r *http.Request) (*model.AmmoThreshold, bool) {
	var req thresholdRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	th := req.AmmoThreshold
	th.Caliber = strings.TrimSpace(th.Caliber)
	th.Enabled = req.Enabled == nil || *req.Enabled
	if err := model.Validate(&th); err != nil {
		storeError(w, err, "validate threshold")
		return nil, false
	}

	p, err := store.GetPerson(r.Context(), h.DB, th.PersonID)
	if err != nil {
		storeError(w, err, "get person")
		return nil, false
	}
	if p == nil {
		jsonError(w, http.StatusBadRequest, "person_id does not reference an existing person")
		return nil, false
	}
	return &th, true
}
