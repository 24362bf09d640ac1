package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ammoPageData is rendered by ammo.html. Panel decides which side panel,
// if any, is open.
type ammoPageData struct {
	PageData
	Lots     []model.ItemWithDetail
	Calibers []caliberRow
	Units    []model.AmmoUnit
	Panel    Panel
	Results  []model.ConsumeResult
}

// AmmoPage handles GET /ammo?panel=.
func (s *Server) AmmoPage(w http.ResponseWriter, r *http.Request) {
	panel, err := ParsePanel(r.Context(), s.DB, r.URL.Query())
	if err != nil {
		backErr(w, r, "/ammo", err.Error())
		return
	}
	s.renderAmmo(w, r, panel, nil)
}

func (s *Server) renderAmmo(w http.ResponseWriter, r *http.Request, panel Panel, results []model.ConsumeResult) {
	ctx := r.Context()
	lots, err := store.ListAmmo(ctx, s.DB)
	if err != nil {
		slog.Error("failed to list ammo", "error", err)
	}

	var calibers []caliberRow
	names, err := store.ListCalibers(ctx, s.DB)
	if err != nil {
		slog.Error("failed to list calibers", "error", err)
	}
	for _, c := range names {
		total, err := store.SumAvailableByCaliber(ctx, s.DB, c)
		if err != nil {
			slog.Error("failed to sum caliber", "caliber", c, "error", err)
			continue
		}
		calibers = append(calibers, caliberRow{Caliber: c, Available: total})
	}

	s.Templates.Render(w, "ammo.html", &ammoPageData{
		PageData: s.page(r, "Ammunition"),
		Lots:     lots,
		Calibers: calibers,
		Units:    []model.AmmoUnit{model.UnitRounds, model.UnitBox, model.UnitCase},
		Panel:    panel,
		Results:  results,
	})
}

// AmmoCreateSubmit handles POST /ammo from the new-lot panel.
func (s *Server) AmmoCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	in, err := itemFromForm(r, model.CategoryAmmo)
	if err == nil {
		in, err = s.Ledger.CreateItem(r.Context(), in)
	}
	if err != nil {
		s.formError(w, r, "/ammo?panel=new", "create ammo", err)
		return
	}

	slog.Info("ammo lot created", "user", claims.Username, "item", in.Item.Name, "caliber", in.Ammo.Caliber)
	backOK(w, r, "/ammo", "Lot added.")
}

// AmmoUpdateSubmit handles POST /ammo/{id} from the edit panel.
func (s *Server) AmmoUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/ammo?panel=edit&id=%d", id)

	in, err := itemFromForm(r, model.CategoryAmmo)
	if err == nil {
		in.Item.ID = id
		in, err = s.Ledger.UpdateItem(r.Context(), in)
	}
	if err != nil {
		s.formError(w, r, path, "update ammo", err)
		return
	}

	slog.Info("ammo lot updated", "user", claims.Username, "item", in.Item.Name,
		"available", in.Ammo.Available())
	backOK(w, r, "/ammo", "Lot saved.")
}

// AmmoLogUseSubmit handles POST /ammo/log-use. The form carries parallel
// item_id and rounds lists; blank lines are skipped. The results are shown
// in the log-use panel.
func (s *Server) AmmoLogUseSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if err := r.ParseForm(); err != nil {
		backErr(w, r, "/ammo?panel=log-use", "Invalid form.")
		return
	}

	ids, rounds := r.PostForm["item_id"], r.PostForm["rounds"]
	var entries []ledger.UseEntry
	for i := range min(len(ids), len(rounds)) {
		if strings.TrimSpace(ids[i]) == "" || strings.TrimSpace(rounds[i]) == "" {
			continue
		}
		id, err1 := strconv.ParseInt(ids[i], 10, 64)
		n, err2 := strconv.Atoi(strings.TrimSpace(rounds[i]))
		if err1 != nil || err2 != nil {
			backErr(w, r, "/ammo?panel=log-use", fmt.Sprintf("Line %d is not valid.", i+1))
			return
		}
		entries = append(entries, ledger.UseEntry{ItemID: id, Rounds: n})
	}
	if len(entries) == 0 {
		backErr(w, r, "/ammo?panel=log-use", "Add at least one line.")
		return
	}

	results := s.Ledger.LogUse(r.Context(), entries)
	slog.Info("range session logged", "user", claims.Username, "entries", len(entries))
	s.renderAmmo(w, r, PanelLogUse{}, results)
}
