package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/zaloga/internal/calendar"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// calendarCell is one day of the month grid.
type calendarCell struct {
	Day     model.Day
	Color   string
	Weekend bool
	Entries []calendar.Entry
}

// CalendarPage handles GET /calendar?month=YYYY-MM.
func (s *Server) CalendarPage(w http.ResponseWriter, r *http.Request) {
	month, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		now := time.Now()
		month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	first := month
	last := month.AddDate(0, 1, -1)
	from, to := first.Format(model.DateLayout), last.Format(model.DateLayout)

	cells, err := s.monthCells(r, from, to)
	if err != nil {
		slog.Error("failed to build calendar", "month", month.Format("2006-01"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "calendar.html", &struct {
		PageData
		Month    time.Time
		Prev     string
		Next     string
		Lead     []struct{}
		Cells    []calendarCell
		Statuses []model.DayStatus
	}{
		PageData: s.page(r, "Calendar"),
		Month:    month,
		Prev:     month.AddDate(0, -1, 0).Format("2006-01"),
		Next:     month.AddDate(0, 1, 0).Format("2006-01"),
		Lead:     make([]struct{}, (int(first.Weekday())+6)%7),
		Cells:    cells,
		Statuses: []model.DayStatus{
			model.DayWorkingHome, model.DayWorkingOffice, model.DayTravel, model.DayVacation,
			model.DayWeekendHoliday, model.DayPTO, model.DayChoiceDay,
		},
	})
}

func (s *Server) monthCells(r *http.Request, from, to string) ([]calendarCell, error) {
	ctx := r.Context()
	start, end, err := calendar.ParseRange(from, to)
	if err != nil {
		return nil, err
	}

	stored, err := store.ListDays(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	days, err := calendar.Days(from, to, stored)
	if err != nil {
		return nil, err
	}
	trips, err := store.ListTrips(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	events, err := store.ListEvents(ctx, s.DB, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	entries, err := calendar.Merge(trips, events)
	if err != nil {
		return nil, err
	}

	cells := make([]calendarCell, len(days))
	for i, d := range days {
		date, _ := time.Parse(model.DateLayout, d.Date)
		cells[i] = calendarCell{
			Day:     d,
			Color:   calendar.DayColor(d.Status),
			Weekend: date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
		}
		for _, e := range entries {
			if covers(e, date) {
				cells[i].Entries = append(cells[i].Entries, e)
			}
		}
	}
	return cells, nil
}

// covers reports whether e is shown on the calendar date day.
func covers(e calendar.Entry, day time.Time) bool {
	key := day.Format(model.DateLayout)
	startDay := e.Start.Format(model.DateLayout)
	if !e.AllDay {
		return startDay == key
	}
	endDay := e.End.Format(model.DateLayout)
	return startDay <= key && key < endDay
}

// DaySubmit handles POST /days/{date}.
func (s *Server) DaySubmit(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(model.DateLayout, r.PathValue("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	path := "/calendar?month=" + date.Format("2006-01")

	p := &formParser{r: r}
	d := &model.Day{
		Date:        date.Format(model.DateLayout),
		Status:      model.DayStatus(p.str("status")),
		PTOFraction: p.float("pto_fraction"),
		Location:    p.str("location"),
	}
	if v := p.str("trip_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			backErr(w, r, path, "Invalid trip.")
			return
		}
		trip, err := store.GetTrip(r.Context(), s.DB, id)
		if err != nil || trip == nil {
			backErr(w, r, path, "Trip not found.")
			return
		}
		d.TripID, d.TripName = &trip.ID, trip.Name
	}
	if p.err != nil {
		s.formError(w, r, path, "save day", p.err)
		return
	}
	if err := model.Validate(d); err != nil {
		s.formError(w, r, path, "save day", err)
		return
	}
	if err := store.PutDay(r.Context(), s.DB, d); err != nil {
		s.formError(w, r, path, "save day", err)
		return
	}
	backOK(w, r, path, d.Date+" saved.")
}

// DayClearSubmit handles POST /days/{date}/clear, reverting to the default.
func (s *Server) DayClearSubmit(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(model.DateLayout, r.PathValue("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	path := "/calendar?month=" + date.Format("2006-01")

	if err := store.DeleteDay(r.Context(), s.DB, date.Format(model.DateLayout)); err != nil {
		s.formError(w, r, path, "clear day", err)
		return
	}
	backOK(w, r, path, date.Format(model.DateLayout)+" reset to default.")
}
