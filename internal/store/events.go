package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

const eventColumns = `id, title, start_at, end_at, timezone, is_all_day, trip_id, location, url`

// CreateEvent stores an event. Instants are kept in RFC 3339 UTC alongside
// the event's own timezone name.
func CreateEvent(ctx context.Context, db *sql.DB, e *model.Event) (*model.Event, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO events (title, start_at, end_at, timezone, is_all_day, trip_id, location, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, formatInstant(e.StartAt), formatInstant(e.EndAt), e.Timezone, e.IsAllDay,
		nullInt64(e.TripID), e.Location, e.URL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting event id: %w", err)
	}
	return GetEvent(ctx, db, id)
}

// GetEvent returns an event by ID, or nil.
func GetEvent(ctx context.Context, db *sql.DB, id int64) (*model.Event, error) {
	e, err := scanEvent(db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// ListEvents returns events overlapping [from, to). Zero bounds are open.
func ListEvents(ctx context.Context, db *sql.DB, from, to time.Time) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND end_at > ?`
		args = append(args, formatInstant(from))
	}
	if !to.IsZero() {
		query += ` AND start_at < ?`
		args = append(args, formatInstant(to))
	}
	query += ` ORDER BY start_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEvent replaces an event.
func UpdateEvent(ctx context.Context, db *sql.DB, e *model.Event) error {
	return execOne(ctx, db, "updating event",
		`UPDATE events SET title = ?, start_at = ?, end_at = ?, timezone = ?, is_all_day = ?,
		        trip_id = ?, location = ?, url = ?
		 WHERE id = ?`,
		e.Title, formatInstant(e.StartAt), formatInstant(e.EndAt), e.Timezone, e.IsAllDay,
		nullInt64(e.TripID), e.Location, e.URL, e.ID,
	)
}

// DeleteEvent removes an event.
func DeleteEvent(ctx context.Context, db *sql.DB, id int64) error {
	return execOne(ctx, db, "deleting event", `DELETE FROM events WHERE id = ?`, id)
}

// Fixed-width UTC keeps lexical order equal to chronological order.
const instantLayout = "2006-01-02T15:04:05Z"

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func scanEvent(row rowScanner) (*model.Event, error) {
	e := &model.Event{}
	var startAt, endAt string
	var tripID sql.NullInt64
	var location, url sql.NullString
	err := row.Scan(&e.ID, &e.Title, &startAt, &endAt, &e.Timezone, &e.IsAllDay, &tripID, &location, &url)
	if err != nil {
		return nil, err
	}
	if e.StartAt, err = time.Parse(time.RFC3339, startAt); err != nil {
		return nil, fmt.Errorf("parsing start_at %q: %w", startAt, err)
	}
	if e.EndAt, err = time.Parse(time.RFC3339, endAt); err != nil {
		return nil, fmt.Errorf("parsing end_at %q: %w", endAt, err)
	}
	if tripID.Valid {
		e.TripID = &tripID.Int64
	}
	e.Location, e.URL = location.String, url.String
	return e, nil
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
