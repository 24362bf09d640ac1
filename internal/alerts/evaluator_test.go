package alerts

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/notify"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/trigger"
)

type sent struct {
	PersonID int64
	Message  string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (f *fakeSender) Send(_ context.Context, personID int64, message string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{personID, message})
	if f.fail {
		return notify.Result{Error: "rate limited"}
	}
	return notify.Result{OK: true}
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// setup wires a ledger to a live stream with the evaluator subscribed.
func setup(t *testing.T) (*ledger.Service, *trigger.Stream, *fakeSender, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	sender := &fakeSender{}
	eval := &Evaluator{DB: database, Sender: sender}

	stream := trigger.New(nil, nil)
	if err := stream.Subscribe(eval.Subscription(10, 2, 0)); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(stream.Close)

	return &ledger.Service{DB: database, Events: stream}, stream, sender, database
}

func createLot(t *testing.T, svc *ledger.Service, name, caliber string, rounds int) *model.ItemWithDetail {
	t.Helper()
	out, err := svc.CreateItem(context.Background(), &model.ItemWithDetail{
		Item: model.Item{Name: name, Category: model.CategoryAmmo},
		Ammo: &model.AmmoDetail{Caliber: caliber, Quantity: rounds, Unit: model.UnitRounds, RoundsPerUnit: 1},
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return out
}

func addThreshold(t *testing.T, database *sql.DB, caliber string, minRounds int, enabled bool) int64 {
	t.Helper()
	ctx := context.Background()
	p, err := store.CreatePerson(ctx, database, &model.NotificationPerson{
		Name: "Ana", Phone: "+12015550123", PreferredChannel: model.ChannelSMS, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateThreshold(ctx, database, &model.AmmoThreshold{
		Caliber: caliber, MinRounds: minRounds, PersonID: p.ID, Enabled: enabled,
	}); err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func TestRepeatedConsumptionFiresEachTime(t *testing.T) {
	svc, stream, sender, database := setup(t)
	ctx := context.Background()

	lotA := createLot(t, svc, "Lot A", "9mm Luger", 150)
	createLot(t, svc, "Lot B", "9mm Luger", 100)
	personID := addThreshold(t, database, "9mm Luger", 300, true)

	if _, err := svc.Consume(ctx, lotA.Item.ID, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Consume(ctx, lotA.Item.ID, 10); err != nil {
		t.Fatal(err)
	}
	stream.Close()

	if sender.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", sender.count())
	}
	if sender.sent[0].PersonID != personID {
		t.Errorf("expected person %d, got %d", personID, sender.sent[0].PersonID)
	}
	// Evaluation is asynchronous, so the first alert may already see the
	// second deduction. The second always sees both.
	if first := sender.sent[0].Message; first != Message("9mm Luger", 240, 300) && first != Message("9mm Luger", 230, 300) {
		t.Errorf("unexpected first message %q", first)
	}
	if sender.sent[1].Message != Message("9mm Luger", 230, 300) {
		t.Errorf("unexpected second message %q", sender.sent[1].Message)
	}
}

func TestInsertDoesNotFire(t *testing.T) {
	svc, stream, sender, database := setup(t)

	addThreshold(t, database, ".22 LR", 1000, true)
	createLot(t, svc, "Bulk", ".22 LR", 500)
	stream.Close()

	if sender.count() != 0 {
		t.Errorf("expected no notification for an insert, got %d", sender.count())
	}
}

func TestAboveMinimumOrDisabledDoesNotFire(t *testing.T) {
	svc, stream, sender, database := setup(t)
	ctx := context.Background()

	lot := createLot(t, svc, "Lot", ".308 Win", 200)
	addThreshold(t, database, ".308 Win", 100, true)
	addThreshold(t, database, ".308 Win", 500, false)
	addThreshold(t, database, "9mm Luger", 500, true)

	svc.Consume(ctx, lot.Item.ID, 50)
	stream.Close()

	if sender.count() != 0 {
		t.Errorf("expected no notification, got %d: %+v", sender.count(), sender.sent)
	}
}

func TestEditBelowMinimumFires(t *testing.T) {
	svc, stream, sender, database := setup(t)
	ctx := context.Background()

	lot := createLot(t, svc, "Lot", "5.56 NATO", 400)
	addThreshold(t, database, "5.56 NATO", 300, true)

	lot.Ammo.Quantity = 250
	if _, err := svc.UpdateItem(ctx, lot); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	stream.Close()

	if sender.count() != 1 {
		t.Errorf("expected 1 notification after edit, got %d", sender.count())
	}
}

func TestNotifierFailureDoesNotRedeliver(t *testing.T) {
	database := db.NewTestDB(t)
	sender := &fakeSender{fail: true}
	eval := &Evaluator{DB: database, Sender: sender}
	svc := &ledger.Service{DB: database}

	lot := createLot(t, svc, "Lot", "9mm Luger", 10)
	addThreshold(t, database, "9mm Luger", 100, true)

	ev, _ := trigger.NewEvent(trigger.KindModify, ledger.AmmoTable, lot.Item.ID, nil, lot.Ammo)
	if err := eval.HandleBatch(context.Background(), []trigger.Event{ev}); err != nil {
		t.Fatalf("expected notifier failure to be swallowed, got %v", err)
	}
	if sender.count() != 1 {
		t.Errorf("expected exactly one attempt, got %d", sender.count())
	}
}

func TestMalformedImageIsSkipped(t *testing.T) {
	eval := &Evaluator{DB: db.NewTestDB(t), Sender: &fakeSender{}}
	err := eval.HandleBatch(context.Background(), []trigger.Event{
		{Kind: trigger.KindModify, Table: ledger.AmmoTable, Key: 1, NewImage: []byte("{not json")},
	})
	if err != nil {
		t.Errorf("expected malformed event to be skipped, got %v", err)
	}
}
