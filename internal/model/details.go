package model

import "strings"

// FirearmDetail holds firearm-specific fields.
type FirearmDetail struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"item_id"`
	Type         string `json:"type,omitempty"`
	Action       string `json:"action,omitempty"`
	Caliber      string `json:"caliber,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	BarrelLength string `json:"barrel_length,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// FilamentDetail holds 3D-printer filament fields.
type FilamentDetail struct {
	ID          int64   `json:"id"`
	ItemID      int64   `json:"item_id"`
	Material    string  `json:"material" validate:"required"`
	Color       string  `json:"color,omitempty"`
	DiameterMM  float64 `json:"diameter_mm" validate:"gte=0"`
	WeightGrams int     `json:"weight_grams" validate:"gte=0"`
	Notes       string  `json:"notes,omitempty"`
}

// InstrumentDetail holds musical instrument fields.
type InstrumentDetail struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"item_id"`
	Type         string `json:"type,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Condition    string `json:"condition,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ItemWithDetail is a catalog item joined with its category detail.
// At most one of the detail pointers is set, matching Item.Category.
type ItemWithDetail struct {
	Item       Item              `json:"item"`
	Ammo       *AmmoDetail       `json:"ammo,omitempty"`
	Firearm    *FirearmDetail    `json:"firearm,omitempty"`
	Filament   *FilamentDetail   `json:"filament,omitempty"`
	Instrument *InstrumentDetail `json:"instrument,omitempty"`
}

// Validate trims names and calibers, then checks the item and the detail
// its category requires. Firearm and instrument details are optional; ammo
// and filament are not.
func (w *ItemWithDetail) Validate() error {
	w.trim()
	if err := Validate(&w.Item); err != nil {
		return err
	}

	var detail any
	switch w.Item.Category {
	case CategoryAmmo:
		if w.Ammo == nil {
			return Invalidf("ammo detail is required")
		}
		detail = w.Ammo
	case CategoryFilament:
		if w.Filament == nil {
			return Invalidf("filament detail is required")
		}
		detail = w.Filament
	case CategoryFirearm:
		if w.Firearm != nil {
			detail = w.Firearm
		}
	case CategoryInstrument:
		if w.Instrument != nil {
			detail = w.Instrument
		}
	}
	if detail == nil {
		return nil
	}
	return Validate(detail)
}

func (w *ItemWithDetail) trim() {
	w.Item.Name = strings.TrimSpace(w.Item.Name)
	if w.Ammo != nil {
		w.Ammo.Caliber = strings.TrimSpace(w.Ammo.Caliber)
	}
	if w.Firearm != nil {
		w.Firearm.Caliber = strings.TrimSpace(w.Firearm.Caliber)
	}
}
