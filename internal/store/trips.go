package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

const tripColumns = `id, name, type, start_date, end_date, city, country, lat, lon, timezone, notes`

// CreateTrip stores a trip.
func CreateTrip(ctx context.Context, db *sql.DB, tr *model.Trip) (*model.Trip, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO trips (name, type, start_date, end_date, city, country, lat, lon, timezone, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.Name, tr.Type, tr.StartDate, tr.EndDate, tr.Destination.City, tr.Destination.Country,
		tr.Destination.Lat, tr.Destination.Lon, tr.Destination.Timezone, tr.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating trip: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting trip id: %w", err)
	}
	return GetTrip(ctx, db, id)
}

// GetTrip returns a trip by ID, or nil.
func GetTrip(ctx context.Context, db *sql.DB, id int64) (*model.Trip, error) {
	tr, err := scanTrip(db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}
	return tr, nil
}

// ListTrips returns trips overlapping [from, to]. Empty bounds are open.
func ListTrips(ctx context.Context, db *sql.DB, from, to string) ([]model.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE 1 = 1`
	var args []any
	if from != "" {
		query += ` AND end_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND start_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY start_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		tr, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, *tr)
	}
	return trips, rows.Err()
}

// UpdateTrip replaces a trip.
func UpdateTrip(ctx context.Context, db *sql.DB, tr *model.Trip) error {
	return execOne(ctx, db, "updating trip",
		`UPDATE trips SET name = ?, type = ?, start_date = ?, end_date = ?, city = ?, country = ?,
		        lat = ?, lon = ?, timezone = ?, notes = ?
		 WHERE id = ?`,
		tr.Name, tr.Type, tr.StartDate, tr.EndDate, tr.Destination.City, tr.Destination.Country,
		tr.Destination.Lat, tr.Destination.Lon, tr.Destination.Timezone, tr.Notes, tr.ID,
	)
}

// DeleteTrip removes a trip. Days and events referencing it are unlinked.
func DeleteTrip(ctx context.Context, db *sql.DB, id int64) error {
	return execOne(ctx, db, "deleting trip", `DELETE FROM trips WHERE id = ?`, id)
}

func scanTrip(row rowScanner) (*model.Trip, error) {
	tr := &model.Trip{}
	var city, country, tz, notes sql.NullString
	err := row.Scan(&tr.ID, &tr.Name, &tr.Type, &tr.StartDate, &tr.EndDate, &city, &country,
		&tr.Destination.Lat, &tr.Destination.Lon, &tz, &notes)
	if err != nil {
		return nil, err
	}
	tr.Destination.City, tr.Destination.Country = city.String, country.String
	tr.Destination.Timezone, tr.Notes = tz.String, notes.String
	return tr, nil
}
