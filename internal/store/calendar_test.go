package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestTripCRUDAndRange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	trip, err := CreateTrip(ctx, database, &model.Trip{
		Name: "Dolomites", Type: model.TripLeisure, StartDate: "2026-03-01", EndDate: "2026-03-03",
		Destination: model.Destination{City: "Cortina", Country: "IT", Timezone: "Europe/Rome"},
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if trip.Destination.City != "Cortina" {
		t.Errorf("expected destination to round-trip, got %+v", trip.Destination)
	}

	inRange, _ := ListTrips(ctx, database, "2026-03-03", "2026-03-10")
	if len(inRange) != 1 {
		t.Errorf("expected trip overlapping range, got %d", len(inRange))
	}
	outOfRange, _ := ListTrips(ctx, database, "2026-03-04", "2026-03-10")
	if len(outOfRange) != 0 {
		t.Errorf("expected no trips after end date, got %d", len(outOfRange))
	}

	trip.EndDate = "2026-02-01"
	if err := UpdateTrip(ctx, database, trip); err == nil {
		t.Error("expected end before start to be rejected")
	}
}

func TestDaysUpsertAndRevert(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	trip, _ := CreateTrip(ctx, database, &model.Trip{
		Name: "Work visit", Type: model.TripWork, StartDate: "2026-04-06", EndDate: "2026-04-07",
	})

	if err := PutDay(ctx, database, &model.Day{Date: "2026-04-06", Status: model.DayTravel, TripID: &trip.ID}); err != nil {
		t.Fatalf("PutDay: %v", err)
	}
	if err := PutDay(ctx, database, &model.Day{Date: "2026-04-06", Status: model.DayPTO, PTOFraction: 0.5}); err != nil {
		t.Fatalf("PutDay overwrite: %v", err)
	}

	day, _ := GetDay(ctx, database, "2026-04-06")
	if day.Status != model.DayPTO || day.PTOFraction != 0.5 || day.TripID != nil {
		t.Errorf("expected overwritten PTO day, got %+v", day)
	}

	days, _ := ListDays(ctx, database, "2026-04-01", "2026-04-30")
	if len(days) != 1 {
		t.Errorf("expected 1 stored day, got %d", len(days))
	}

	if err := DeleteDay(ctx, database, "2026-04-06"); err != nil {
		t.Fatalf("DeleteDay: %v", err)
	}
	if err := DeleteDay(ctx, database, "2026-04-06"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTripUnlinksDays(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	trip, _ := CreateTrip(ctx, database, &model.Trip{
		Name: "Family", Type: model.TripFamily, StartDate: "2026-05-01", EndDate: "2026-05-02",
	})
	PutDay(ctx, database, &model.Day{Date: "2026-05-01", Status: model.DayVacation, TripID: &trip.ID})

	if err := DeleteTrip(ctx, database, trip.ID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	day, _ := GetDay(ctx, database, "2026-05-01")
	if day == nil || day.TripID != nil {
		t.Errorf("expected day kept without trip, got %+v", day)
	}
}

func TestEventsRoundTripInstants(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	start := time.Date(2026, 6, 10, 9, 0, 0, 0, tokyo)

	created, err := CreateEvent(ctx, database, &model.Event{
		Title: "Standup", StartAt: start, EndAt: start.Add(30 * time.Minute), Timezone: "Asia/Tokyo",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if !created.StartAt.Equal(start) {
		t.Errorf("expected %v, got %v", start, created.StartAt)
	}

	// The 09:00 Tokyo event is 00:00 UTC, so a UTC day window finds it.
	events, _ := ListEvents(ctx, database,
		time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC))
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
	events, _ = ListEvents(ctx, database,
		time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC))
	if len(events) != 0 {
		t.Errorf("expected no events the day before, got %d", len(events))
	}

	created.Title = "Retro"
	if err := UpdateEvent(ctx, database, created); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if err := DeleteEvent(ctx, database, created.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
}
