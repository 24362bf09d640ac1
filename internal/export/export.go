// Package export writes the inventory as an Excel workbook with one sheet
// per category.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var catalogHeader = []any{"ID", "Name", "Brand", "Purchased", "Vendor", "Price", "Currency", "Photos"}

var detailHeaders = map[model.Category][]any{
	model.CategoryAmmo:       {"Caliber", "Quantity", "Unit", "Rounds/unit", "Total rounds", "Available", "Bullet weight", "Bullet type", "Notes"},
	model.CategoryFirearm:    {"Type", "Action", "Caliber", "Serial", "Barrel", "Notes"},
	model.CategoryFilament:   {"Material", "Color", "Diameter (mm)", "Weight (g)", "Notes"},
	model.CategoryInstrument: {"Type", "Serial", "Condition", "Notes"},
}

// Inventory builds the workbook. The caller must close the returned file.
func Inventory(ctx context.Context, db *sql.DB) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, cat := range model.Categories {
		sheet := string(cat)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("renaming first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", sheet, err)
		}

		if err := writeSheet(ctx, db, f, cat, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteInventory streams the workbook to w.
func WriteInventory(ctx context.Context, db *sql.DB, w io.Writer) error {
	f, err := Inventory(ctx, db)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(ctx context.Context, db *sql.DB, f *excelize.File, cat model.Category, headerStyle int) error {
	sheet := string(cat)
	header := append(append([]any{}, catalogHeader...), detailHeaders[cat]...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing %s header: %w", sheet, err)
	}

	items, err := store.ListItems(ctx, db, cat)
	if err != nil {
		return err
	}

	for i, it := range items {
		full, err := store.GetItemWithDetail(ctx, db, it.ID)
		if err != nil {
			return err
		}
		if full == nil {
			continue
		}

		row := append(catalogRow(&full.Item), detailRow(full)...)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func catalogRow(it *model.Item) []any {
	return []any{
		it.ID,
		it.Name,
		it.Brand,
		it.DatePurchased,
		it.Vendor,
		it.PricePaid.InexactFloat64(),
		it.Currency,
		len(it.ImageKeys),
	}
}

func detailRow(w *model.ItemWithDetail) []any {
	switch {
	case w.Ammo != nil:
		a := w.Ammo
		return []any{a.Caliber, a.Quantity, string(a.Unit), a.RoundsPerUnit, a.TotalRounds(), a.Available(),
			a.BulletWeight, a.BulletType, a.Notes}
	case w.Firearm != nil:
		d := w.Firearm
		return []any{d.Type, d.Action, d.Caliber, d.SerialNumber, d.BarrelLength, d.Notes}
	case w.Filament != nil:
		d := w.Filament
		return []any{d.Material, d.Color, d.DiameterMM, d.WeightGrams, d.Notes}
	case w.Instrument != nil:
		d := w.Instrument
		return []any{d.Type, d.SerialNumber, d.Condition, d.Notes}
	}
	return nil
}
