// Package calendar turns trips and events into one ordered list of entries
// and fills in day statuses that were never stored. Nothing here touches
// storage.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// EntryKind tells trips and events apart.
type EntryKind string

// Entry kinds.
const (
	KindTrip  EntryKind = "trip"
	KindEvent EntryKind = "event"
)

// MaxRangeDays caps the number of days a single query may expand.
const MaxRangeDays = 400

// Entry is one renderable calendar item. All-day entries run from midnight
// of Start to midnight of End, End exclusive. Timed entries carry the
// event's own timezone in Start and End.
type Entry struct {
	Kind     EntryKind      `json:"kind"`
	SourceID int64          `json:"source_id"`
	Title    string         `json:"title"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	AllDay   bool           `json:"all_day"`
	Timezone string         `json:"timezone,omitempty"`
	TripType model.TripType `json:"trip_type,omitempty"`
	Location string         `json:"location,omitempty"`
	URL      string         `json:"url,omitempty"`
}

// day is the calendar date an entry starts on, in its own zone.
func (e Entry) day() string {
	return e.Start.Format(model.DateLayout)
}

// TripEntry renders a trip as an all-day range. A trip ending on D is shown
// through the end of D, so End is D+1.
func TripEntry(tr model.Trip) (Entry, error) {
	start, err := time.Parse(model.DateLayout, tr.StartDate)
	if err != nil {
		return Entry{}, fmt.Errorf("trip %d start date: %w", tr.ID, err)
	}
	end, err := time.Parse(model.DateLayout, tr.EndDate)
	if err != nil {
		return Entry{}, fmt.Errorf("trip %d end date: %w", tr.ID, err)
	}
	if end.Before(start) {
		return Entry{}, fmt.Errorf("trip %d ends before it starts", tr.ID)
	}

	location := tr.Destination.City
	if tr.Destination.Country != "" {
		if location != "" {
			location += ", "
		}
		location += tr.Destination.Country
	}

	return Entry{
		Kind:     KindTrip,
		SourceID: tr.ID,
		Title:    tr.Name,
		Start:    start,
		End:      end.AddDate(0, 0, 1),
		AllDay:   true,
		Timezone: tr.Destination.Timezone,
		TripType: tr.Type,
		Location: location,
	}, nil
}

// EventEntry renders an event in its stored IANA zone, independent of the
// viewer's zone. All-day events are widened to whole local days.
func EventEntry(ev model.Event) (Entry, error) {
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return Entry{}, fmt.Errorf("event %d timezone %q: %w", ev.ID, ev.Timezone, err)
	}

	start := ev.StartAt.In(loc)
	end := ev.EndAt.In(loc)
	if end.Before(start) {
		return Entry{}, fmt.Errorf("event %d ends before it starts", ev.ID)
	}

	if ev.IsAllDay {
		startDay := midnight(start)
		endDay := midnight(end)
		if !end.Equal(endDay) || !endDay.After(startDay) {
			endDay = endDay.AddDate(0, 0, 1)
		}
		start, end = startDay, endDay
	}

	return Entry{
		Kind:     KindEvent,
		SourceID: ev.ID,
		Title:    ev.Title,
		Start:    start,
		End:      end,
		AllDay:   ev.IsAllDay,
		Timezone: ev.Timezone,
		Location: ev.Location,
		URL:      ev.URL,
	}, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Merge renders trips and events into one list ordered by start day, then
// all-day entries before timed ones, then start instant, then title. The
// result depends only on the inputs.
func Merge(trips []model.Trip, events []model.Event) ([]Entry, error) {
	entries := make([]Entry, 0, len(trips)+len(events))
	for _, tr := range trips {
		e, err := TripEntry(tr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	for _, ev := range events {
		e, err := EventEntry(ev)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if da, db := a.day(), b.day(); da != db {
			return da < db
		}
		if a.AllDay != b.AllDay {
			return a.AllDay
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Title < b.Title
	})
	return entries, nil
}

// DefaultFor is the status of a date nobody recorded: weekends are
// WEEKEND_HOLIDAY, everything else WORKING_HOME.
func DefaultFor(date time.Time) model.DayStatus {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return model.DayWeekendHoliday
	default:
		return model.DayWorkingHome
	}
}

// ResolveDay returns the stored record for date, or an implicit default.
func ResolveDay(date time.Time, stored *model.Day) model.Day {
	if stored != nil {
		d := *stored
		d.Implicit = false
		return d
	}
	return model.Day{
		Date:     date.Format(model.DateLayout),
		Status:   DefaultFor(date),
		Implicit: true,
	}
}

// Days resolves every date in [from, to], inclusive.
func Days(from, to string, stored map[string]model.Day) ([]model.Day, error) {
	start, end, err := ParseRange(from, to)
	if err != nil {
		return nil, err
	}

	var out []model.Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		var rec *model.Day
		if s, ok := stored[d.Format(model.DateLayout)]; ok {
			rec = &s
		}
		out = append(out, ResolveDay(d, rec))
	}
	return out, nil
}

// ParseRange validates an inclusive date range.
func ParseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, model.Invalidf("from must be YYYY-MM-DD")
	}
	end, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, model.Invalidf("to must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, model.Invalidf("to is before from")
	}
	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, model.Invalidf("range exceeds %d days", MaxRangeDays)
	}
	return start, end, nil
}

var dayColors = map[model.DayStatus]string{
	model.DayWorkingHome:    "#e8f1fb",
	model.DayWorkingOffice:  "#d5e4f7",
	model.DayTravel:         "#fde9c9",
	model.DayVacation:       "#d9f2d9",
	model.DayWeekendHoliday: "#efefef",
	model.DayPTO:            "#f9d6d5",
	model.DayChoiceDay:      "#e9dcf5",
}

// DayColor is the cell background for a status.
func DayColor(status model.DayStatus) string {
	if c, ok := dayColors[status]; ok {
		return c
	}
	return "#ffffff"
}
