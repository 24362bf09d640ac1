// Package ledger applies inventory writes and publishes the resulting row
// changes to the change stream.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/trigger"
)

// AmmoTable is the change stream table name of ammo details.
const AmmoTable = "ammo_details"

// Publisher receives change events.
type Publisher interface {
	Publish(ev trigger.Event)
}

// Service is the entry point for catalog and ammo stock mutations.
type Service struct {
	DB      *sql.DB
	Events  Publisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// CreateItem validates and stores an item with its detail. A new ammo lot
// starts with its whole purchased total available.
func (s *Service) CreateItem(ctx context.Context, in *model.ItemWithDetail) (*model.ItemWithDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	out, err := store.CreateItemWithDetail(ctx, s.DB, in)
	if err != nil {
		return nil, err
	}

	if out.Ammo != nil {
		s.publish(trigger.KindInsert, out.Ammo.ItemID, nil, out.Ammo)
		s.logger().Info("ammo lot created", "item_id", out.Item.ID, "caliber", out.Ammo.Caliber,
			"rounds", out.Ammo.Available())
	}
	return out, nil
}

// UpdateItem validates and stores an edit. Ammo quantity corrections keep
// the already-used rounds used.
func (s *Service) UpdateItem(ctx context.Context, in *model.ItemWithDetail) (*model.ItemWithDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var before *model.AmmoDetail
	if in.Item.Category == model.CategoryAmmo {
		var err error
		if before, err = store.GetAmmoByItem(ctx, s.DB, in.Item.ID); err != nil {
			return nil, err
		}
	}

	if err := store.UpdateItemWithDetail(ctx, s.DB, in); err != nil {
		return nil, err
	}

	out, err := store.GetItemWithDetail(ctx, s.DB, in.Item.ID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, store.ErrNotFound
	}

	if out.Ammo != nil {
		s.publish(trigger.KindModify, out.Ammo.ItemID, before, out.Ammo)
	}
	return out, nil
}

// DeleteItem removes an item and returns its photo keys.
func (s *Service) DeleteItem(ctx context.Context, id int64) ([]string, error) {
	before, err := store.GetAmmoByItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	keys, err := store.DeleteItemWithDetail(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	if before != nil {
		s.publish(trigger.KindRemove, id, before, nil)
	}
	return keys, nil
}

// Consume deducts rounds from one lot. A shortfall is reported in the
// result, not as an error.
func (s *Service) Consume(ctx context.Context, itemID int64, rounds int) (*model.ConsumeResult, error) {
	if rounds <= 0 {
		return nil, model.Invalidf("rounds must be positive, got %d", rounds)
	}

	c, err := store.ConsumeRounds(ctx, s.DB, itemID, rounds)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, store.ErrNotFound
	}

	s.publish(trigger.KindModify, itemID, &c.Before, &c.After)
	s.Metrics.Consumed(c.Result.Caliber, c.Result.Consumed, c.Result.Shortfall)
	s.logger().Info("rounds consumed", "item_id", itemID, "caliber", c.Result.Caliber,
		"requested", rounds, "consumed", c.Result.Consumed, "shortfall", c.Result.Shortfall,
		"remaining", c.Result.Remaining)

	return &c.Result, nil
}

// UseEntry is one line of a range session.
type UseEntry struct {
	ItemID int64 `json:"item_id"`
	Rounds int   `json:"rounds"`
}

// LogUse applies entries in order and returns one result per entry. A
// failing entry records its error and does not stop the rest.
func (s *Service) LogUse(ctx context.Context, entries []UseEntry) []model.ConsumeResult {
	results := make([]model.ConsumeResult, 0, len(entries))
	for _, e := range entries {
		res, err := s.Consume(ctx, e.ItemID, e.Rounds)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, store.ErrNotFound) {
				msg = fmt.Sprintf("ammo item %d not found", e.ItemID)
			}
			s.logger().Warn("log use entry failed", "item_id", e.ItemID, "rounds", e.Rounds, "error", err)
			results = append(results, model.ConsumeResult{ItemID: e.ItemID, Requested: e.Rounds, Error: msg})
			continue
		}
		results = append(results, *res)
	}
	return results
}

func (s *Service) publish(kind trigger.Kind, key int64, before, after *model.AmmoDetail) {
	if s.Events == nil {
		return
	}

	// Typed nil pointers must not reach NewEvent as non-nil interfaces.
	var b, a any
	if before != nil {
		b = before
	}
	if after != nil {
		a = after
	}

	ev, err := trigger.NewEvent(kind, AmmoTable, key, b, a)
	if err != nil {
		s.logger().Error("building change event", "kind", kind, "key", key, "error", err)
		return
	}
	s.Events.Publish(ev)
}
