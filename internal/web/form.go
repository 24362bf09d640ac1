package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaloga/internal/model"
)

// formParser collects the first conversion error of a form.
type formParser struct {
	r   *http.Request
	err error
}

func (p *formParser) str(name string) string {
	return strings.TrimSpace(p.r.FormValue(name))
}

func (p *formParser) int(name string) int {
	v := p.str(name)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = model.Invalidf("%s must be a whole number", name)
	}
	return n
}

func (p *formParser) float(name string) float64 {
	v := p.str(name)
	if v == "" || p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = model.Invalidf("%s must be a number", name)
	}
	return f
}

func (p *formParser) decimal(name string) decimal.Decimal {
	v := p.str(name)
	if v == "" || p.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.err = model.Invalidf("%s must be a decimal amount", name)
	}
	return d
}

// itemFromForm reads the catalog fields and the detail of category.
func itemFromForm(r *http.Request, category model.Category) (*model.ItemWithDetail, error) {
	p := &formParser{r: r}
	out := &model.ItemWithDetail{
		Item: model.Item{
			Name:          p.str("name"),
			Brand:         p.str("brand"),
			Category:      category,
			DatePurchased: p.str("date_purchased"),
			Vendor:        p.str("vendor"),
			PricePaid:     p.decimal("price_paid"),
			Currency:      strings.ToUpper(p.str("currency")),
		},
	}

	switch category {
	case model.CategoryAmmo:
		out.Ammo = &model.AmmoDetail{
			Caliber:       p.str("caliber"),
			Quantity:      p.int("quantity"),
			Unit:          model.AmmoUnit(p.str("unit")),
			RoundsPerUnit: p.int("rounds_per_unit"),
			BulletWeight:  p.int("bullet_weight"),
			BulletType:    p.str("bullet_type"),
			Notes:         p.str("notes"),
		}
	case model.CategoryFirearm:
		out.Firearm = &model.FirearmDetail{
			Type:         p.str("type"),
			Action:       p.str("action"),
			Caliber:      p.str("caliber"),
			SerialNumber: p.str("serial_number"),
			BarrelLength: p.str("barrel_length"),
			Notes:        p.str("notes"),
		}
	case model.CategoryFilament:
		out.Filament = &model.FilamentDetail{
			Material:    p.str("material"),
			Color:       p.str("color"),
			DiameterMM:  p.float("diameter_mm"),
			WeightGrams: p.int("weight_grams"),
			Notes:       p.str("notes"),
		}
	case model.CategoryInstrument:
		out.Instrument = &model.InstrumentDetail{
			Type:         p.str("type"),
			SerialNumber: p.str("serial_number"),
			Condition:    p.str("condition"),
			Notes:        p.str("notes"),
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	return out, nil
}
