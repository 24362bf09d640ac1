package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

const personColumns = `id, name, phone, email, preferred_channel, active, created_at`

// CreatePerson adds a notification recipient.
func CreatePerson(ctx context.Context, db *sql.DB, p *model.NotificationPerson) (*model.NotificationPerson, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO notification_people (name, phone, email, preferred_channel, active)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Phone, p.Email, p.PreferredChannel, p.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting person id: %w", err)
	}
	return GetPerson(ctx, db, id)
}

// GetPerson returns a notification recipient, or nil if it does not exist.
func GetPerson(ctx context.Context, db *sql.DB, id int64) (*model.NotificationPerson, error) {
	p, err := scanPerson(db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM notification_people WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting person: %w", err)
	}
	return p, nil
}

// ListPeople returns all recipients ordered by name.
func ListPeople(ctx context.Context, db *sql.DB) ([]model.NotificationPerson, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM notification_people ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	defer rows.Close()

	var people []model.NotificationPerson
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// UpdatePerson replaces a recipient's contact details.
func UpdatePerson(ctx context.Context, db *sql.DB, p *model.NotificationPerson) error {
	return execOne(ctx, db, "updating person",
		`UPDATE notification_people SET name = ?, phone = ?, email = ?, preferred_channel = ?, active = ?
		 WHERE id = ?`,
		p.Name, p.Phone, p.Email, p.PreferredChannel, p.Active, p.ID,
	)
}

// DeletePerson removes a recipient together with the thresholds pointing at them.
func DeletePerson(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ammo_thresholds WHERE person_id = ?`, id); err != nil {
		return fmt.Errorf("deleting person thresholds: %w", err)
	}
	if err := execOne(ctx, tx, "deleting person", `DELETE FROM notification_people WHERE id = ?`, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing person deletion: %w", err)
	}
	return nil
}

func scanPerson(row rowScanner) (*model.NotificationPerson, error) {
	p := &model.NotificationPerson{}
	var phone, email sql.NullString
	err := row.Scan(&p.ID, &p.Name, &phone, &email, &p.PreferredChannel, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Phone, p.Email = phone.String, email.String
	return p, nil
}
