package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// caliberRow is one line of the stock overview.
type caliberRow struct {
	Caliber   string
	Available int
	Minimum   int
	Low       bool
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := &struct {
		PageData
		Calibers []caliberRow
		Counts   map[model.Category]int
		Trips    []model.Trip
	}{
		PageData: s.page(r, "Overview"),
		Counts:   make(map[model.Category]int),
	}

	if model.RoleAtLeast(data.User.Role, model.RoleAdmin) {
		calibers, err := store.ListCalibers(ctx, s.DB)
		if err != nil {
			slog.Error("failed to list calibers for dashboard", "error", err)
		}
		for _, c := range calibers {
			row := caliberRow{Caliber: c}
			if row.Available, err = store.SumAvailableByCaliber(ctx, s.DB, c); err != nil {
				slog.Error("failed to sum caliber", "caliber", c, "error", err)
				continue
			}
			thresholds, err := store.EnabledThresholdsForCaliber(ctx, s.DB, c)
			if err != nil {
				slog.Error("failed to list thresholds for dashboard", "error", err)
			}
			for _, th := range thresholds {
				row.Minimum = max(row.Minimum, th.MinRounds)
				if th.Crossed(row.Available) {
					row.Low = true
				}
			}
			data.Calibers = append(data.Calibers, row)
		}

		items, err := store.ListItems(ctx, s.DB, "")
		if err != nil {
			slog.Error("failed to list items for dashboard", "error", err)
		}
		for _, it := range items {
			data.Counts[it.Category]++
		}
	}

	today := time.Now().Format(model.DateLayout)
	trips, err := store.ListTrips(ctx, s.DB, today, time.Now().AddDate(0, 0, 60).Format(model.DateLayout))
	if err != nil {
		slog.Error("failed to list trips for dashboard", "error", err)
	}
	data.Trips = trips

	s.Templates.Render(w, "dashboard.html", data)
}
