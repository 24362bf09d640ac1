package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// AmmoHandler handles the ammunition stock ledger.
type AmmoHandler struct {
	DB     *sql.DB
	Ledger *ledger.Service
}

type consumeRequest struct {
	Rounds int `json:"rounds"`
}

type logUseRequest struct {
	Entries []ledger.UseEntry `json:"entries"`
}

type caliberSummary struct {
	Caliber   string `json:"caliber"`
	Available int    `json:"available"`
}

// List handles GET /api/ammo?caliber=.
func (h *AmmoHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		lots []model.ItemWithDetail
		err  error
	)
	if caliber := r.URL.Query().Get("caliber"); caliber != "" {
		lots, err = store.ListAmmoByCaliber(r.Context(), h.DB, caliber)
	} else {
		lots, err = store.ListAmmo(r.Context(), h.DB)
	}
	if err != nil {
		storeError(w, err, "list ammo")
		return
	}
	if lots == nil {
		lots = []model.ItemWithDetail{}
	}
	jsonResponse(w, http.StatusOK, lots)
}

// Calibers handles GET /api/ammo/calibers with the on-hand total per caliber.
func (h *AmmoHandler) Calibers(w http.ResponseWriter, r *http.Request) {
	calibers, err := store.ListCalibers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list calibers")
		return
	}

	out := make([]caliberSummary, 0, len(calibers))
	for _, c := range calibers {
		total, err := store.SumAvailableByCaliber(r.Context(), h.DB, c)
		if err != nil {
			storeError(w, err, "sum calibers")
			return
		}
		out = append(out, caliberSummary{Caliber: c, Available: total})
	}
	jsonResponse(w, http.StatusOK, out)
}

// Consume handles POST /api/ammo/{id}/consume.
func (h *AmmoHandler) Consume(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req consumeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Ledger.Consume(r.Context(), id, req.Rounds)
	if err != nil {
		storeError(w, err, "consume rounds")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// LogUse handles POST /api/ammo/log-use. Entries are applied in order and
// each gets its own result; per-entry failures do not fail the request.
func (h *AmmoHandler) LogUse(w http.ResponseWriter, r *http.Request) {
	var req logUseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		jsonError(w, http.StatusBadRequest, "at least one entry required")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"results": h.Ledger.LogUse(r.Context(), req.Entries),
	})
}
