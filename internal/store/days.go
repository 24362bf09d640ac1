package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// PutDay stores the status of a date, replacing any previous record.
func PutDay(ctx context.Context, db *sql.DB, d *model.Day) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO days (date, status, trip_id, trip_name, pto_fraction, location)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET status = excluded.status, trip_id = excluded.trip_id,
		     trip_name = excluded.trip_name, pto_fraction = excluded.pto_fraction,
		     location = excluded.location`,
		d.Date, d.Status, nullInt64(d.TripID), d.TripName, d.PTOFraction, d.Location,
	)
	if err != nil {
		return fmt.Errorf("storing day %s: %w", d.Date, err)
	}
	return nil
}

// GetDay returns the stored record for a date, or nil.
func GetDay(ctx context.Context, db *sql.DB, date string) (*model.Day, error) {
	d, err := scanDay(db.QueryRowContext(ctx,
		`SELECT date, status, trip_id, trip_name, pto_fraction, location FROM days WHERE date = ?`, date,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting day: %w", err)
	}
	return d, nil
}

// ListDays returns stored days in [from, to], keyed by date.
func ListDays(ctx context.Context, db *sql.DB, from, to string) (map[string]model.Day, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT date, status, trip_id, trip_name, pto_fraction, location
		 FROM days WHERE date >= ? AND date <= ? ORDER BY date`, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	defer rows.Close()

	days := make(map[string]model.Day)
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days[d.Date] = *d
	}
	return days, rows.Err()
}

// DeleteDay removes the stored record so the date reverts to its default.
func DeleteDay(ctx context.Context, db *sql.DB, date string) error {
	return execOne(ctx, db, "deleting day", `DELETE FROM days WHERE date = ?`, date)
}

func scanDay(row rowScanner) (*model.Day, error) {
	d := &model.Day{}
	var tripID sql.NullInt64
	var tripName, location sql.NullString
	err := row.Scan(&d.Date, &d.Status, &tripID, &tripName, &d.PTOFraction, &location)
	if err != nil {
		return nil, err
	}
	if tripID.Valid {
		d.TripID = &tripID.Int64
	}
	d.TripName, d.Location = tripName.String, location.String
	return d, nil
}
