package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaloga/internal/model"
)

// ErrNotFound is returned by mutations addressing a row that does not exist.
var ErrNotFound = errors.New("not found")

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = `id, name, brand, category, date_purchased, vendor, price_paid, currency, created_at, updated_at`

// CreateItemWithDetail inserts a catalog item and its category detail in one
// transaction. Either both rows exist afterwards or neither does.
func CreateItemWithDetail(ctx context.Context, db *sql.DB, in *model.ItemWithDetail) (*model.ItemWithDetail, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	itemID, err := insertItem(ctx, tx, &in.Item)
	if err != nil {
		return nil, err
	}

	switch in.Item.Category {
	case model.CategoryAmmo:
		if in.Ammo == nil {
			return nil, fmt.Errorf("ammo detail required")
		}
		in.Ammo.ItemID = itemID
		err = insertAmmo(ctx, tx, in.Ammo)
	case model.CategoryFirearm:
		if in.Firearm == nil {
			in.Firearm = &model.FirearmDetail{}
		}
		in.Firearm.ItemID = itemID
		err = insertFirearm(ctx, tx, in.Firearm)
	case model.CategoryFilament:
		if in.Filament == nil {
			return nil, fmt.Errorf("filament detail required")
		}
		in.Filament.ItemID = itemID
		err = insertFilament(ctx, tx, in.Filament)
	case model.CategoryInstrument:
		if in.Instrument == nil {
			in.Instrument = &model.InstrumentDetail{}
		}
		in.Instrument.ItemID = itemID
		err = insertInstrument(ctx, tx, in.Instrument)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItemWithDetail(ctx, db, itemID)
}

// UpdateItemWithDetail updates a catalog item and its detail in one
// transaction. The category cannot change. For ammo, roundsAvailable is
// recomputed so the already-used count survives a quantity correction.
func UpdateItemWithDetail(ctx context.Context, db *sql.DB, in *model.ItemWithDetail) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var category model.Category
	err = tx.QueryRowContext(ctx, `SELECT category FROM items WHERE id = ?`, in.Item.ID).Scan(&category)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if category != in.Item.Category {
		return model.Invalidf("category cannot change from %s to %s", category, in.Item.Category)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET name = ?, brand = ?, date_purchased = ?, vendor = ?, price_paid = ?, currency = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.Item.Name, in.Item.Brand, in.Item.DatePurchased, in.Item.Vendor,
		in.Item.PricePaid.String(), in.Item.Currency, in.Item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	switch category {
	case model.CategoryAmmo:
		if in.Ammo != nil {
			err = updateAmmo(ctx, tx, in.Item.ID, in.Ammo)
		}
	case model.CategoryFirearm:
		if in.Firearm != nil {
			err = updateFirearm(ctx, tx, in.Item.ID, in.Firearm)
		}
	case model.CategoryFilament:
		if in.Filament != nil {
			err = updateFilament(ctx, tx, in.Item.ID, in.Filament)
		}
	case model.CategoryInstrument:
		if in.Instrument != nil {
			err = updateInstrument(ctx, tx, in.Item.ID, in.Instrument)
		}
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item update: %w", err)
	}
	return nil
}

// DeleteItemWithDetail removes an item together with its detail and image
// keys. It returns the image keys so the caller can delete the objects.
func DeleteItemWithDetail(ctx context.Context, db *sql.DB, id int64) ([]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keys, err := listImageKeys(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, table := range []string{"ammo_details", "firearm_details", "filament_details", "instrument_details", "item_images"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE item_id = ?`, id); err != nil {
			return nil, fmt.Errorf("deleting from %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item deletion: %w", err)
	}
	return keys, nil
}

// GetItem returns a catalog item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	item.ImageKeys, err = listImageKeys(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItemWithDetail returns an item joined with its category detail.
func GetItemWithDetail(ctx context.Context, db *sql.DB, id int64) (*model.ItemWithDetail, error) {
	item, err := GetItem(ctx, db, id)
	if err != nil || item == nil {
		return nil, err
	}

	out := &model.ItemWithDetail{Item: *item}
	switch item.Category {
	case model.CategoryAmmo:
		out.Ammo, err = GetAmmoByItem(ctx, db, id)
	case model.CategoryFirearm:
		out.Firearm, err = getFirearm(ctx, db, id)
	case model.CategoryFilament:
		out.Filament, err = getFilament(ctx, db, id)
	case model.CategoryInstrument:
		out.Instrument, err = getInstrument(ctx, db, id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListItems returns catalog items, optionally filtered by category.
func ListItems(ctx context.Context, db *sql.DB, category model.Category) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE category = ? ORDER BY name`, category,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items ORDER BY category, name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range items {
		items[i].ImageKeys, err = listImageKeys(ctx, db, items[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// AddItemImage appends a storage key to an item's photos.
func AddItemImage(ctx context.Context, db *sql.DB, itemID int64, key string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (item_id, position, key)
		 VALUES (?, (SELECT COALESCE(MAX(position) + 1, 0) FROM item_images WHERE item_id = ?), ?)`,
		itemID, itemID, key,
	)
	if err != nil {
		return fmt.Errorf("adding item image: %w", err)
	}
	return nil
}

// RemoveItemImage removes a storage key and closes the gap in positions so
// the first remaining photo becomes the cover.
func RemoveItemImage(ctx context.Context, db *sql.DB, itemID int64, key string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keys, err := listImageKeys(ctx, tx, itemID)
	if err != nil {
		return err
	}

	found := false
	remaining := keys[:0]
	for _, k := range keys {
		if k == key {
			found = true
			continue
		}
		remaining = append(remaining, k)
	}
	if !found {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_images WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing item images: %w", err)
	}
	for i, k := range remaining {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_images (item_id, position, key) VALUES (?, ?, ?)`, itemID, i, k,
		); err != nil {
			return fmt.Errorf("reordering item images: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing image removal: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, ex execer, item *model.Item) (int64, error) {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO items (name, brand, category, date_purchased, vendor, price_paid, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Brand, item.Category, item.DatePurchased, item.Vendor,
		item.PricePaid.String(), item.Currency,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

func listImageKeys(ctx context.Context, ex execer, itemID int64) ([]string, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT key FROM item_images WHERE item_id = ? ORDER BY position`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning item image: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var brand, datePurchased, vendor, currency sql.NullString
	var price string
	err := row.Scan(&item.ID, &item.Name, &brand, &item.Category, &datePurchased, &vendor,
		&price, &currency, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Brand = brand.String
	item.DatePurchased = datePurchased.String
	item.Vendor = vendor.String
	item.Currency = currency.String
	item.PricePaid, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", price, err)
	}
	return item, nil
}
