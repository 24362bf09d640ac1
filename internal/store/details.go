package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

func insertFirearm(ctx context.Context, ex execer, f *model.FirearmDetail) error {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO firearm_details (item_id, type, action, caliber, serial_number, barrel_length, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ItemID, f.Type, f.Action, f.Caliber, f.SerialNumber, f.BarrelLength, f.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating firearm detail: %w", err)
	}
	f.ID, err = result.LastInsertId()
	return err
}

func updateFirearm(ctx context.Context, ex execer, itemID int64, f *model.FirearmDetail) error {
	return execOne(ctx, ex, "updating firearm detail",
		`UPDATE firearm_details SET type = ?, action = ?, caliber = ?, serial_number = ?,
		        barrel_length = ?, notes = ?
		 WHERE item_id = ?`,
		f.Type, f.Action, f.Caliber, f.SerialNumber, f.BarrelLength, f.Notes, itemID,
	)
}

func getFirearm(ctx context.Context, db *sql.DB, itemID int64) (*model.FirearmDetail, error) {
	f := &model.FirearmDetail{}
	var typ, action, caliber, serial, barrel, notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, type, action, caliber, serial_number, barrel_length, notes
		 FROM firearm_details WHERE item_id = ?`, itemID,
	).Scan(&f.ID, &f.ItemID, &typ, &action, &caliber, &serial, &barrel, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting firearm detail: %w", err)
	}
	f.Type, f.Action, f.Caliber = typ.String, action.String, caliber.String
	f.SerialNumber, f.BarrelLength, f.Notes = serial.String, barrel.String, notes.String
	return f, nil
}

func insertFilament(ctx context.Context, ex execer, f *model.FilamentDetail) error {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO filament_details (item_id, material, color, diameter_mm, weight_grams, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ItemID, f.Material, f.Color, f.DiameterMM, f.WeightGrams, f.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating filament detail: %w", err)
	}
	f.ID, err = result.LastInsertId()
	return err
}

func updateFilament(ctx context.Context, ex execer, itemID int64, f *model.FilamentDetail) error {
	return execOne(ctx, ex, "updating filament detail",
		`UPDATE filament_details SET material = ?, color = ?, diameter_mm = ?, weight_grams = ?, notes = ?
		 WHERE item_id = ?`,
		f.Material, f.Color, f.DiameterMM, f.WeightGrams, f.Notes, itemID,
	)
}

func getFilament(ctx context.Context, db *sql.DB, itemID int64) (*model.FilamentDetail, error) {
	f := &model.FilamentDetail{}
	var color, notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, material, color, diameter_mm, weight_grams, notes
		 FROM filament_details WHERE item_id = ?`, itemID,
	).Scan(&f.ID, &f.ItemID, &f.Material, &color, &f.DiameterMM, &f.WeightGrams, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting filament detail: %w", err)
	}
	f.Color, f.Notes = color.String, notes.String
	return f, nil
}

func insertInstrument(ctx context.Context, ex execer, in *model.InstrumentDetail) error {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO instrument_details (item_id, type, serial_number, condition, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		in.ItemID, in.Type, in.SerialNumber, in.Condition, in.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating instrument detail: %w", err)
	}
	in.ID, err = result.LastInsertId()
	return err
}

func updateInstrument(ctx context.Context, ex execer, itemID int64, in *model.InstrumentDetail) error {
	return execOne(ctx, ex, "updating instrument detail",
		`UPDATE instrument_details SET type = ?, serial_number = ?, condition = ?, notes = ?
		 WHERE item_id = ?`,
		in.Type, in.SerialNumber, in.Condition, in.Notes, itemID,
	)
}

func getInstrument(ctx context.Context, db *sql.DB, itemID int64) (*model.InstrumentDetail, error) {
	in := &model.InstrumentDetail{}
	var typ, serial, condition, notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, type, serial_number, condition, notes
		 FROM instrument_details WHERE item_id = ?`, itemID,
	).Scan(&in.ID, &in.ItemID, &typ, &serial, &condition, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting instrument detail: %w", err)
	}
	in.Type, in.SerialNumber, in.Condition, in.Notes = typ.String, serial.String, condition.String, notes.String
	return in, nil
}
