package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// ThresholdFilter narrows ListThresholds. Zero values match everything.
type ThresholdFilter struct {
	Caliber string
	Enabled *bool
}

// CreateThreshold adds an alert rule. The referenced person must exist.
func CreateThreshold(ctx context.Context, db *sql.DB, th *model.AmmoThreshold) (*model.AmmoThreshold, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO ammo_thresholds (caliber, min_rounds, person_id, enabled) VALUES (?, ?, ?, ?)`,
		th.Caliber, th.MinRounds, th.PersonID, th.Enabled,
	)
	if err != nil {
		return nil, fmt.Errorf("creating threshold: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting threshold id: %w", err)
	}
	return GetThreshold(ctx, db, id)
}

// GetThreshold returns an alert rule with its person's name, or nil.
func GetThreshold(ctx context.Context, db *sql.DB, id int64) (*model.AmmoThreshold, error) {
	th, err := scanThreshold(db.QueryRowContext(ctx,
		thresholdSelect+` WHERE t.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting threshold: %w", err)
	}
	return th, nil
}

// ListThresholds returns alert rules matching filter.
func ListThresholds(ctx context.Context, db *sql.DB, filter ThresholdFilter) ([]model.AmmoThreshold, error) {
	var where []string
	var args []any
	if filter.Caliber != "" {
		where = append(where, "t.caliber = ?")
		args = append(args, filter.Caliber)
	}
	if filter.Enabled != nil {
		where = append(where, "t.enabled = ?")
		args = append(args, *filter.Enabled)
	}

	query := thresholdSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.caliber, t.min_rounds, t.id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing thresholds: %w", err)
	}
	defer rows.Close()

	var out []model.AmmoThreshold
	for rows.Next() {
		th, err := scanThreshold(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning threshold: %w", err)
		}
		out = append(out, *th)
	}
	return out, rows.Err()
}

// EnabledThresholdsForCaliber returns the enabled rules of one caliber.
func EnabledThresholdsForCaliber(ctx context.Context, db *sql.DB, caliber string) ([]model.AmmoThreshold, error) {
	enabled := true
	return ListThresholds(ctx, db, ThresholdFilter{Caliber: caliber, Enabled: &enabled})
}

// UpdateThreshold replaces an alert rule.
func UpdateThreshold(ctx context.Context, db *sql.DB, th *model.AmmoThreshold) error {
	return execOne(ctx, db, "updating threshold",
		`UPDATE ammo_thresholds SET caliber = ?, min_rounds = ?, person_id = ?, enabled = ? WHERE id = ?`,
		th.Caliber, th.MinRounds, th.PersonID, th.Enabled, th.ID,
	)
}

// DeleteThreshold removes an alert rule.
func DeleteThreshold(ctx context.Context, db *sql.DB, id int64) error {
	return execOne(ctx, db, "deleting threshold", `DELETE FROM ammo_thresholds WHERE id = ?`, id)
}

const thresholdSelect = `SELECT t.id, t.caliber, t.min_rounds, t.person_id, t.enabled, t.created_at, p.name
	FROM ammo_thresholds t
	JOIN notification_people p ON p.id = t.person_id`

func scanThreshold(row rowScanner) (*model.AmmoThreshold, error) {
	th := &model.AmmoThreshold{}
	err := row.Scan(&th.ID, &th.Caliber, &th.MinRounds, &th.PersonID, &th.Enabled, &th.CreatedAt, &th.PersonName)
	if err != nil {
		return nil, err
	}
	return th, nil
}
