package model

import (
	"errors"
	"testing"
)

func TestConsume(t *testing.T) {
	tests := []struct {
		available, rounds              int
		remaining, consumed, shortfall int
	}{
		{100, 10, 90, 10, 0},
		{100, 100, 0, 100, 0},
		{30, 50, 0, 30, 20},
		{0, 5, 0, 0, 5},
		// Negative stock is treated as empty.
		{-4, 5, 0, 0, 5},
	}

	for _, tt := range tests {
		remaining, consumed, shortfall := Consume(tt.available, tt.rounds)
		if remaining != tt.remaining || consumed != tt.consumed || shortfall != tt.shortfall {
			t.Errorf("Consume(%d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				tt.available, tt.rounds, remaining, consumed, shortfall,
				tt.remaining, tt.consumed, tt.shortfall)
		}
		if remaining < 0 {
			t.Errorf("Consume(%d, %d) left negative stock", tt.available, tt.rounds)
		}
	}
}

func TestRecomputeAvailable(t *testing.T) {
	tests := []struct {
		prevTotal, prevAvailable, newTotal int
		want                               int
	}{
		// 20 used, total raised: still 20 used.
		{100, 80, 200, 180},
		// Nothing used.
		{100, 100, 50, 50},
		// 60 used, new total smaller than used: clamped, the 60 is lost.
		{100, 40, 50, 0},
		{100, 0, 100, 0},
	}

	for _, tt := range tests {
		got := RecomputeAvailable(tt.prevTotal, tt.prevAvailable, tt.newTotal)
		if got != tt.want {
			t.Errorf("RecomputeAvailable(%d, %d, %d) = %d, want %d",
				tt.prevTotal, tt.prevAvailable, tt.newTotal, got, tt.want)
		}
	}
}

func TestAmmoAvailableFallsBackToTotal(t *testing.T) {
	a := AmmoDetail{Quantity: 2, RoundsPerUnit: 50}
	if a.Available() != 100 {
		t.Errorf("expected unset ledger to read as 100, got %d", a.Available())
	}

	n := 40
	a.RoundsAvailable = &n
	if a.Available() != 40 {
		t.Errorf("expected 40, got %d", a.Available())
	}
}

func TestThresholdCrossed(t *testing.T) {
	th := AmmoThreshold{Caliber: "9mm Luger", MinRounds: 300, Enabled: true}
	if !th.Crossed(240) {
		t.Error("expected 240 < 300 to cross")
	}
	if th.Crossed(300) {
		t.Error("expected 300 not to cross")
	}
	th.Enabled = false
	if th.Crossed(10) {
		t.Error("disabled threshold must never cross")
	}
}

func TestValidateAmmoDetail(t *testing.T) {
	ok := AmmoDetail{Caliber: "9mm Luger", Quantity: 2, Unit: UnitBox, RoundsPerUnit: 50}
	if err := Validate(ok); err != nil {
		t.Errorf("expected valid detail, got %v", err)
	}

	missing := AmmoDetail{Quantity: 2, Unit: UnitBox, RoundsPerUnit: 50}
	if err := Validate(missing); err == nil {
		t.Error("expected error for missing caliber")
	}

	badUnit := AmmoDetail{Caliber: ".22 LR", Quantity: 1, Unit: "CRATE", RoundsPerUnit: 500}
	if err := Validate(badUnit); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestItemWithDetailValidate(t *testing.T) {
	noDetail := &ItemWithDetail{Item: Item{Name: "9mm", Category: CategoryAmmo}}
	if err := noDetail.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing ammo detail, got %v", err)
	}

	noName := &ItemWithDetail{Item: Item{Category: CategoryOther}}
	if err := noName.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing name, got %v", err)
	}

	noCaliber := &ItemWithDetail{
		Item: Item{Name: "Lot", Category: CategoryAmmo},
		Ammo: &AmmoDetail{Quantity: 1, Unit: UnitBox, RoundsPerUnit: 50},
	}
	if err := noCaliber.Validate(); err == nil {
		t.Error("expected missing caliber to fail")
	}

	plain := &ItemWithDetail{Item: Item{Name: "Tent", Category: CategoryOther}}
	if err := plain.Validate(); err != nil {
		t.Errorf("expected plain item to validate, got %v", err)
	}
}
