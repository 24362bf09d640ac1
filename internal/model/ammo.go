package model

// AmmoUnit is the packaging unit ammunition was purchased in.
type AmmoUnit string

// Ammo units.
const (
	UnitRounds AmmoUnit = "ROUNDS"
	UnitBox    AmmoUnit = "BOX"
	UnitCase   AmmoUnit = "CASE"
)

// AmmoDetail holds the ammunition-specific fields and the stock ledger of one lot.
type AmmoDetail struct {
	ID            int64    `json:"id"`
	ItemID        int64    `json:"item_id"`
	Caliber       string   `json:"caliber" validate:"required"`
	Quantity      int      `json:"quantity" validate:"gte=0"`
	Unit          AmmoUnit `json:"unit" validate:"required,oneof=ROUNDS BOX CASE"`
	RoundsPerUnit int      `json:"rounds_per_unit" validate:"gte=1"`
	// RoundsAvailable is nil when the ledger was never initialised; Available
	// then falls back to the full total.
	RoundsAvailable *int   `json:"rounds_available"`
	BulletWeight    int    `json:"bullet_weight,omitempty" validate:"gte=0"`
	BulletType      string `json:"bullet_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// TotalRounds is the number of rounds purchased in this lot.
func (a *AmmoDetail) TotalRounds() int {
	return a.Quantity * a.RoundsPerUnit
}

// Available returns the on-hand rounds, treating an unset ledger as full stock.
func (a *AmmoDetail) Available() int {
	if a.RoundsAvailable == nil {
		return a.TotalRounds()
	}
	return *a.RoundsAvailable
}

// ConsumeResult reports the outcome of deducting rounds from one ammo record.
type ConsumeResult struct {
	ItemID    int64  `json:"item_id"`
	Caliber   string `json:"caliber,omitempty"`
	Requested int    `json:"requested"`
	Consumed  int    `json:"consumed"`
	Shortfall int    `json:"shortfall"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

// Consume deducts up to rounds from available. Asking for more than is on
// hand takes everything and reports the difference as shortfall.
func Consume(available, rounds int) (remaining, consumed, shortfall int) {
	if available < 0 {
		available = 0
	}
	consumed = min(available, rounds)
	return available - consumed, consumed, rounds - consumed
}

// RecomputeAvailable keeps the already-used count across a change of the
// purchased quantity. The result is clamped at zero, so rounds used beyond
// the new total are forgotten.
func RecomputeAvailable(prevTotal, prevAvailable, newTotal int) int {
	used := prevTotal - prevAvailable
	return max(0, newTotal-used)
}
