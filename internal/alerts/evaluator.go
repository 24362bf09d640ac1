// Package alerts re-checks low-stock thresholds whenever an ammo lot changes.
package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/notify"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/trigger"
)

// Sender delivers a message to a notification person.
type Sender interface {
	Send(ctx context.Context, personID int64, message string) notify.Result
}

// Evaluator sums the stock of a changed caliber and notifies every enabled
// threshold it has fallen below. It keeps no memory of earlier alerts, so a
// caliber that stays low fires again on every further change.
type Evaluator struct {
	DB      *sql.DB
	Sender  Sender
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Subscription binds the evaluator to ammo modifications on the stream.
func (e *Evaluator) Subscription(batchSize, retries int, budget time.Duration) trigger.Subscription {
	return trigger.Subscription{
		Name:      "threshold-evaluator",
		Table:     ledger.AmmoTable,
		Kinds:     []trigger.Kind{trigger.KindModify},
		BatchSize: batchSize,
		Retries:   retries,
		Budget:    budget,
		Handler:   e.HandleBatch,
	}
}

// HandleBatch evaluates each event in order. A storage error fails the
// batch so the stream redelivers it; notifier failures do not.
func (e *Evaluator) HandleBatch(ctx context.Context, batch []trigger.Event) error {
	for _, ev := range batch {
		if err := e.handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) handle(ctx context.Context, ev trigger.Event) error {
	var detail model.AmmoDetail
	if err := ev.DecodeNew(&detail); err != nil {
		// A malformed image will not improve on redelivery.
		e.logger().Error("skipping change event", "key", ev.Key, "error", err)
		return nil
	}
	if detail.Caliber == "" {
		return nil
	}

	total, err := store.SumAvailableByCaliber(ctx, e.DB, detail.Caliber)
	if err != nil {
		return err
	}

	thresholds, err := store.EnabledThresholdsForCaliber(ctx, e.DB, detail.Caliber)
	if err != nil {
		return err
	}

	for _, th := range thresholds {
		if !th.Crossed(total) {
			continue
		}

		e.Metrics.ThresholdFired(th.Caliber)
		e.logger().Info("threshold fired", "caliber", th.Caliber, "total", total,
			"min_rounds", th.MinRounds, "person_id", th.PersonID)

		res := e.Sender.Send(ctx, th.PersonID, Message(th.Caliber, total, th.MinRounds))
		if !res.OK {
			e.logger().Warn("threshold notification failed", "caliber", th.Caliber,
				"person_id", th.PersonID, "error", res.Error)
		}
	}
	return nil
}

// Message is the alert text for a caliber below its minimum.
func Message(caliber string, total, minRounds int) string {
	return fmt.Sprintf("Low ammo: %s is down to %d rounds (minimum %d).", caliber, total, minRounds)
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
