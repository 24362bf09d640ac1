package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/trigger"
)

type capture struct {
	mu     sync.Mutex
	events []trigger.Event
}

func (c *capture) Publish(ev trigger.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capture) kinds() []trigger.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []trigger.Kind
	for _, ev := range c.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newService(t *testing.T) (*Service, *capture) {
	t.Helper()
	events := &capture{}
	return &Service{DB: db.NewTestDB(t), Events: events}, events
}

func ammoItem(name, caliber string, quantity, perUnit int) *model.ItemWithDetail {
	return &model.ItemWithDetail{
		Item: model.Item{Name: name, Category: model.CategoryAmmo},
		Ammo: &model.AmmoDetail{Caliber: caliber, Quantity: quantity, Unit: model.UnitBox, RoundsPerUnit: perUnit},
	}
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, ammoItem("", "9mm Luger", 1, 50))
	if !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	_, err = svc.CreateItem(ctx, ammoItem("Lot", "", 1, 50))
	if !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing caliber, got %v", err)
	}

	items, _ := store.ListItems(ctx, svc.DB, "")
	if len(items) != 0 {
		t.Errorf("expected no writes, got %d items", len(items))
	}
	if len(events.kinds()) != 0 {
		t.Errorf("expected no events, got %v", events.kinds())
	}
}

func TestLedgerPublishesKinds(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ammoItem("Lot", "9mm Luger", 2, 50))
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if _, err := svc.Consume(ctx, created.Item.ID, 10); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	created.Ammo.Quantity = 3
	if _, err := svc.UpdateItem(ctx, created); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if _, err := svc.DeleteItem(ctx, created.Item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	want := []trigger.Kind{trigger.KindInsert, trigger.KindModify, trigger.KindModify, trigger.KindRemove}
	got := events.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	var after model.AmmoDetail
	if err := events.events[1].DecodeNew(&after); err != nil {
		t.Fatalf("DecodeNew: %v", err)
	}
	if after.Available() != 90 || after.Caliber != "9mm Luger" {
		t.Errorf("expected new image with 90 rounds, got %+v", after)
	}

	if err := events.events[2].DecodeNew(&after); err != nil {
		t.Fatalf("DecodeNew: %v", err)
	}
	if after.Available() != 140 {
		t.Errorf("expected recomputed 140 rounds after edit, got %d", after.Available())
	}
}

func TestPlainItemsPublishNothing(t *testing.T) {
	svc, events := newService(t)

	_, err := svc.CreateItem(context.Background(), &model.ItemWithDetail{
		Item: model.Item{Name: "Tuner", Category: model.CategoryOther},
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if len(events.kinds()) != 0 {
		t.Errorf("expected no events, got %v", events.kinds())
	}
}

func TestConsumeShortfallIsNotAnError(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, _ := svc.CreateItem(ctx, ammoItem("Lot", ".22 LR", 1, 50))

	res, err := svc.Consume(ctx, created.Item.ID, 80)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if res.Consumed != 50 || res.Shortfall != 30 || res.Remaining != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := svc.Consume(ctx, created.Item.ID, 0); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("expected ErrInvalid for zero rounds, got %v", err)
	}
	if _, err := svc.Consume(ctx, 999, 5); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestLogUseContinuesPastFailures(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()

	a, _ := svc.CreateItem(ctx, ammoItem("A", "9mm Luger", 1, 50))
	b, _ := svc.CreateItem(ctx, ammoItem("B", "9mm Luger", 1, 50))
	before := len(events.kinds())

	results := svc.LogUse(ctx, []UseEntry{
		{ItemID: a.Item.ID, Rounds: 20},
		{ItemID: 999, Rounds: 10},
		{ItemID: b.Item.ID, Rounds: 60},
		{ItemID: a.Item.ID, Rounds: 20},
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Consumed != 20 || results[0].Error != "" {
		t.Errorf("entry 0: %+v", results[0])
	}
	if results[1].Error == "" {
		t.Error("entry 1: expected an error for the unknown item")
	}
	if results[2].Consumed != 50 || results[2].Shortfall != 10 {
		t.Errorf("entry 2: %+v", results[2])
	}
	// Entries apply sequentially, so the second use of A sees the first.
	if results[3].Remaining != 10 {
		t.Errorf("entry 3: expected 10 remaining, got %+v", results[3])
	}

	if got := len(events.kinds()) - before; got != 3 {
		t.Errorf("expected 3 MODIFY events, got %d", got)
	}
}

func TestRepeatedConsumeIsNotIdempotent(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ammoItem("Lot", "9mm Luger", 1, 50))
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// The same request sent twice moves stock twice.
	for range 2 {
		if _, err := svc.Consume(ctx, created.Item.ID, 20); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}

	a, err := store.GetAmmoByItem(ctx, svc.DB, created.Item.ID)
	if err != nil || a == nil {
		t.Fatalf("GetAmmoByItem: %v", err)
	}
	if a.Available() != 10 {
		t.Errorf("expected 10 rounds left after two identical consumes, got %d", a.Available())
	}
	if got := events.kinds(); len(got) != 3 {
		t.Errorf("expected INSERT plus two MODIFY events, got %v", got)
	}
}
