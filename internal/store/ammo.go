package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaloga/internal/model"
)

// ErrInvalidRounds is returned when a consumption asks for zero or fewer rounds.
var ErrInvalidRounds = errors.New("rounds must be positive")

const ammoColumns = `id, item_id, caliber, quantity, unit, rounds_per_unit, rounds_available,
	bullet_weight, bullet_type, notes`

func insertAmmo(ctx context.Context, ex execer, a *model.AmmoDetail) error {
	// A new lot starts with its full purchased stock on hand.
	total := a.TotalRounds()
	a.RoundsAvailable = &total

	result, err := ex.ExecContext(ctx,
		`INSERT INTO ammo_details (item_id, caliber, quantity, unit, rounds_per_unit, rounds_available,
		                           bullet_weight, bullet_type, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ItemID, a.Caliber, a.Quantity, a.Unit, a.RoundsPerUnit, total,
		a.BulletWeight, a.BulletType, a.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating ammo detail: %w", err)
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting ammo detail id: %w", err)
	}
	return nil
}

func updateAmmo(ctx context.Context, ex execer, itemID int64, a *model.AmmoDetail) error {
	prev, err := scanAmmo(ex.QueryRowContext(ctx,
		`SELECT `+ammoColumns+` FROM ammo_details WHERE item_id = ?`, itemID,
	))
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting ammo detail: %w", err)
	}

	available := prev.RoundsAvailable
	if a.Quantity != prev.Quantity || a.RoundsPerUnit != prev.RoundsPerUnit {
		n := model.RecomputeAvailable(prev.TotalRounds(), prev.Available(), a.TotalRounds())
		available = &n
	}
	a.ID = prev.ID
	a.ItemID = itemID
	a.RoundsAvailable = available

	_, err = ex.ExecContext(ctx,
		`UPDATE ammo_details SET caliber = ?, quantity = ?, unit = ?, rounds_per_unit = ?,
		        rounds_available = ?, bullet_weight = ?, bullet_type = ?, notes = ?
		 WHERE item_id = ?`,
		a.Caliber, a.Quantity, a.Unit, a.RoundsPerUnit, nullInt(available),
		a.BulletWeight, a.BulletType, a.Notes, itemID,
	)
	if err != nil {
		return fmt.Errorf("updating ammo detail: %w", err)
	}
	return nil
}

// GetAmmoByItem returns the ammo detail of an item, or nil if it has none.
func GetAmmoByItem(ctx context.Context, db *sql.DB, itemID int64) (*model.AmmoDetail, error) {
	a, err := scanAmmo(db.QueryRowContext(ctx,
		`SELECT `+ammoColumns+` FROM ammo_details WHERE item_id = ?`, itemID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ammo detail: %w", err)
	}
	return a, nil
}

// ListAmmo returns all ammo lots joined with their catalog items.
func ListAmmo(ctx context.Context, db *sql.DB) ([]model.ItemWithDetail, error) {
	return listAmmo(ctx, db, "")
}

// ListAmmoByCaliber returns the ammo lots of one caliber.
func ListAmmoByCaliber(ctx context.Context, db *sql.DB, caliber string) ([]model.ItemWithDetail, error) {
	return listAmmo(ctx, db, caliber)
}

func listAmmo(ctx context.Context, db *sql.DB, caliber string) ([]model.ItemWithDetail, error) {
	query := `SELECT i.id, i.name, i.brand, i.category, i.date_purchased, i.vendor, i.price_paid,
	                 i.currency, i.created_at, i.updated_at,
	                 a.id, a.item_id, a.caliber, a.quantity, a.unit, a.rounds_per_unit,
	                 a.rounds_available, a.bullet_weight, a.bullet_type, a.notes
	          FROM ammo_details a
	          JOIN items i ON i.id = a.item_id`
	var args []any
	if caliber != "" {
		query += ` WHERE a.caliber = ?`
		args = append(args, caliber)
	}
	query += ` ORDER BY a.caliber, i.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ammo: %w", err)
	}

	var out []model.ItemWithDetail
	for rows.Next() {
		item, ammo, err := scanItemAmmo(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning ammo: %w", err)
		}
		out = append(out, model.ItemWithDetail{Item: *item, Ammo: ammo})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		out[i].Item.ImageKeys, err = listImageKeys(ctx, db, out[i].Item.ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListCalibers returns the distinct calibers on record.
func ListCalibers(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT caliber FROM ammo_details ORDER BY caliber`)
	if err != nil {
		return nil, fmt.Errorf("listing calibers: %w", err)
	}
	defer rows.Close()

	var calibers []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning caliber: %w", err)
		}
		calibers = append(calibers, c)
	}
	return calibers, rows.Err()
}

// SumAvailableByCaliber totals the on-hand rounds of a caliber across all
// lots. Lots without a ledger value count with their full purchased total.
func SumAvailableByCaliber(ctx context.Context, db *sql.DB, caliber string) (int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(COALESCE(rounds_available, quantity * rounds_per_unit)), 0)
		 FROM ammo_details WHERE caliber = ?`, caliber,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing rounds for %s: %w", caliber, err)
	}
	return total, nil
}

// Consumption is a committed deduction along with the lot before and after it.
type Consumption struct {
	Result model.ConsumeResult
	Before model.AmmoDetail
	After  model.AmmoDetail
}

// ConsumeRounds deducts rounds from one ammo lot. Asking for more than is
// on hand empties the lot and reports a shortfall. Returns (nil, nil) if the
// item has no ammo detail.
func ConsumeRounds(ctx context.Context, db *sql.DB, itemID int64, rounds int) (*Consumption, error) {
	if rounds <= 0 {
		return nil, ErrInvalidRounds
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prev, err := scanAmmo(tx.QueryRowContext(ctx,
		`SELECT `+ammoColumns+` FROM ammo_details WHERE item_id = ?`, itemID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ammo detail: %w", err)
	}

	remaining, consumed, shortfall := model.Consume(prev.Available(), rounds)
	_, err = tx.ExecContext(ctx,
		`UPDATE ammo_details SET rounds_available = ? WHERE item_id = ?`, remaining, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("consuming rounds: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, itemID,
	); err != nil {
		return nil, fmt.Errorf("touching item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing consumption: %w", err)
	}

	next := *prev
	next.RoundsAvailable = &remaining

	return &Consumption{
		Result: model.ConsumeResult{
			ItemID:    itemID,
			Caliber:   prev.Caliber,
			Requested: rounds,
			Consumed:  consumed,
			Shortfall: shortfall,
			Remaining: remaining,
		},
		Before: *prev,
		After:  next,
	}, nil
}

func scanAmmo(row rowScanner) (*model.AmmoDetail, error) {
	a := &model.AmmoDetail{}
	var available sql.NullInt64
	var bulletType, notes sql.NullString
	err := row.Scan(&a.ID, &a.ItemID, &a.Caliber, &a.Quantity, &a.Unit, &a.RoundsPerUnit,
		&available, &a.BulletWeight, &bulletType, &notes)
	if err != nil {
		return nil, err
	}
	if available.Valid {
		n := int(available.Int64)
		a.RoundsAvailable = &n
	}
	a.BulletType = bulletType.String
	a.Notes = notes.String
	return a, nil
}

func scanItemAmmo(row rowScanner) (*model.Item, *model.AmmoDetail, error) {
	item := &model.Item{}
	a := &model.AmmoDetail{}
	var brand, datePurchased, vendor, currency, bulletType, notes sql.NullString
	var price string
	var available sql.NullInt64
	err := row.Scan(&item.ID, &item.Name, &brand, &item.Category, &datePurchased, &vendor,
		&price, &currency, &item.CreatedAt, &item.UpdatedAt,
		&a.ID, &a.ItemID, &a.Caliber, &a.Quantity, &a.Unit, &a.RoundsPerUnit,
		&available, &a.BulletWeight, &bulletType, &notes)
	if err != nil {
		return nil, nil, err
	}
	item.Brand = brand.String
	item.DatePurchased = datePurchased.String
	item.Vendor = vendor.String
	item.Currency = currency.String
	item.PricePaid, err = decimal.NewFromString(price)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing price %q: %w", price, err)
	}
	if available.Valid {
		n := int(available.Int64)
		a.RoundsAvailable = &n
	}
	a.BulletType = bulletType.String
	a.Notes = notes.String
	return item, a, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
