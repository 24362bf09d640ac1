package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups catalog items; every category except OTHER has a 1:1 detail record.
type Category string

// Item categories.
const (
	CategoryFirearm    Category = "FIREARM"
	CategoryAmmo       Category = "AMMO"
	CategoryFilament   Category = "FILAMENT"
	CategoryInstrument Category = "INSTRUMENT"
	CategoryOther      Category = "OTHER"
)

// Categories lists all categories in display order.
var Categories = []Category{CategoryFirearm, CategoryAmmo, CategoryFilament, CategoryInstrument, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Item is the catalog record shared by every inventory category.
type Item struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name" validate:"required"`
	Brand         string          `json:"brand,omitempty"`
	Category      Category        `json:"category" validate:"required,oneof=FIREARM AMMO FILAMENT INSTRUMENT OTHER"`
	DatePurchased string          `json:"date_purchased,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Vendor        string          `json:"vendor,omitempty"`
	PricePaid     decimal.Decimal `json:"price_paid"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	ImageKeys     []string        `json:"image_keys"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CoverKey returns the storage key of the cover photo, if any.
func (i *Item) CoverKey() string {
	if len(i.ImageKeys) == 0 {
		return ""
	}
	return i.ImageKeys[0]
}
