package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func createAmmo(t *testing.T, database *sql.DB, name, caliber string, quantity, perUnit int) *model.ItemWithDetail {
	t.Helper()
	created, err := CreateItemWithDetail(context.Background(), database, &model.ItemWithDetail{
		Item: model.Item{Name: name, Category: model.CategoryAmmo},
		Ammo: &model.AmmoDetail{Caliber: caliber, Quantity: quantity, Unit: model.UnitBox, RoundsPerUnit: perUnit},
	})
	if err != nil {
		t.Fatalf("creating ammo %s: %v", name, err)
	}
	return created
}

func TestCreateAmmoStartsFull(t *testing.T) {
	database := db.NewTestDB(t)

	created := createAmmo(t, database, "Federal 115gr", "9mm Luger", 20, 50)
	if created.Ammo.RoundsAvailable == nil || *created.Ammo.RoundsAvailable != 1000 {
		t.Errorf("expected 1000 rounds available, got %v", created.Ammo.RoundsAvailable)
	}
}

func TestConsumeRounds(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := createAmmo(t, database, "CCI Blazer", "9mm Luger", 1, 50)

	c, err := ConsumeRounds(ctx, database, created.Item.ID, 30)
	if err != nil {
		t.Fatalf("ConsumeRounds: %v", err)
	}
	if c.Result.Consumed != 30 || c.Result.Shortfall != 0 || c.Result.Remaining != 20 {
		t.Errorf("unexpected result %+v", c.Result)
	}
	if c.Before.Available() != 50 || c.After.Available() != 20 {
		t.Errorf("expected images 50 -> 20, got %d -> %d", c.Before.Available(), c.After.Available())
	}

	// Over-consumption empties the lot and reports the shortfall.
	c, err = ConsumeRounds(ctx, database, created.Item.ID, 25)
	if err != nil {
		t.Fatalf("ConsumeRounds: %v", err)
	}
	if c.Result.Consumed != 20 || c.Result.Shortfall != 5 || c.Result.Remaining != 0 {
		t.Errorf("unexpected result %+v", c.Result)
	}

	got, _ := GetAmmoByItem(ctx, database, created.Item.ID)
	if got.Available() != 0 {
		t.Errorf("expected 0 available, got %d", got.Available())
	}
}

func TestConsumeRoundsRejectsNonPositive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := createAmmo(t, database, "Lot", ".308 Win", 1, 20)
	for _, rounds := range []int{0, -5} {
		if _, err := ConsumeRounds(ctx, database, created.Item.ID, rounds); !errors.Is(err, ErrInvalidRounds) {
			t.Errorf("rounds=%d: expected ErrInvalidRounds, got %v", rounds, err)
		}
	}
}

func TestConsumeRoundsUnknownItem(t *testing.T) {
	database := db.NewTestDB(t)

	c, err := ConsumeRounds(context.Background(), database, 42, 10)
	if err != nil {
		t.Fatalf("ConsumeRounds: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for unknown item, got %+v", c)
	}
}

func TestUpdateAmmoRecomputesAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := createAmmo(t, database, "Lot", "5.56 NATO", 2, 50)
	ConsumeRounds(ctx, database, created.Item.ID, 30)

	// Quantity corrected upwards: the 30 used rounds stay used.
	created.Ammo.Quantity = 3
	if err := UpdateItemWithDetail(ctx, database, created); err != nil {
		t.Fatalf("UpdateItemWithDetail: %v", err)
	}
	got, _ := GetAmmoByItem(ctx, database, created.Item.ID)
	if got.Available() != 120 {
		t.Errorf("expected 120 available, got %d", got.Available())
	}

	// Shrinking below what was used clamps at zero.
	created.Ammo.Quantity = 0
	UpdateItemWithDetail(ctx, database, created)
	got, _ = GetAmmoByItem(ctx, database, created.Item.ID)
	if got.Available() != 0 {
		t.Errorf("expected 0 available, got %d", got.Available())
	}
}

func TestUpdateAmmoKeepsAvailableWhenCountsUnchanged(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := createAmmo(t, database, "Lot", "9mm Luger", 1, 50)
	ConsumeRounds(ctx, database, created.Item.ID, 10)

	created.Ammo.Notes = "range bag"
	created.Ammo.RoundsAvailable = nil
	if err := UpdateItemWithDetail(ctx, database, created); err != nil {
		t.Fatalf("UpdateItemWithDetail: %v", err)
	}
	got, _ := GetAmmoByItem(ctx, database, created.Item.ID)
	if got.Available() != 40 || got.Notes != "range bag" {
		t.Errorf("expected 40 available with notes, got %d %q", got.Available(), got.Notes)
	}
}

func TestSumAvailableByCaliber(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createAmmo(t, database, "A", "9mm Luger", 3, 50)
	b := createAmmo(t, database, "B", "9mm Luger", 2, 50)
	createAmmo(t, database, "C", ".22 LR", 1, 500)

	// A lot with no ledger value counts at its full total.
	if _, err := database.Exec(`UPDATE ammo_details SET rounds_available = NULL WHERE item_id = ?`, b.Item.ID); err != nil {
		t.Fatal(err)
	}

	total, err := SumAvailableByCaliber(ctx, database, "9mm Luger")
	if err != nil {
		t.Fatalf("SumAvailableByCaliber: %v", err)
	}
	if total != 250 {
		t.Errorf("expected 250, got %d", total)
	}

	none, _ := SumAvailableByCaliber(ctx, database, "12 gauge")
	if none != 0 {
		t.Errorf("expected 0 for unknown caliber, got %d", none)
	}
}

func TestListAmmoByCaliber(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createAmmo(t, database, "A", "9mm Luger", 1, 50)
	createAmmo(t, database, "B", ".22 LR", 1, 500)

	lots, err := ListAmmoByCaliber(ctx, database, ".22 LR")
	if err != nil {
		t.Fatalf("ListAmmoByCaliber: %v", err)
	}
	if len(lots) != 1 || lots[0].Item.Name != "B" || lots[0].Ammo.Caliber != ".22 LR" {
		t.Errorf("unexpected lots %+v", lots)
	}

	all, _ := ListAmmo(ctx, database)
	if len(all) != 2 {
		t.Errorf("expected 2 lots, got %d", len(all))
	}

	calibers, _ := ListCalibers(ctx, database)
	if len(calibers) != 2 || calibers[0] != ".22 LR" {
		t.Errorf("unexpected calibers %v", calibers)
	}
}
