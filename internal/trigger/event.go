// Package trigger is an in-process change stream. Writers publish row
// changes; subscriptions receive them asynchronously in batches, filtered by
// table and change kind, with at-least-once delivery.
package trigger

import (
	"encoding/json"
	"fmt"
)

// Kind is the type of row change.
type Kind string

// Change kinds.
const (
	KindInsert Kind = "INSERT"
	KindModify Kind = "MODIFY"
	KindRemove Kind = "REMOVE"
)

// Event is one row change. Images are JSON snapshots of the row before and
// after the change; OldImage is empty for inserts and NewImage for removals.
type Event struct {
	Kind     Kind            `json:"kind"`
	Table    string          `json:"table"`
	Key      int64           `json:"key"`
	OldImage json.RawMessage `json:"old_image,omitempty"`
	NewImage json.RawMessage `json:"new_image,omitempty"`
}

// NewEvent snapshots before and after into an event. Nil images are left empty.
func NewEvent(kind Kind, table string, key int64, before, after any) (Event, error) {
	ev := Event{Kind: kind, Table: table, Key: key}

	var err error
	if before != nil {
		if ev.OldImage, err = json.Marshal(before); err != nil {
			return Event{}, fmt.Errorf("encoding old image: %w", err)
		}
	}
	if after != nil {
		if ev.NewImage, err = json.Marshal(after); err != nil {
			return Event{}, fmt.Errorf("encoding new image: %w", err)
		}
	}
	return ev, nil
}

// DecodeNew unmarshals the new image into v.
func (e Event) DecodeNew(v any) error {
	if len(e.NewImage) == 0 {
		return fmt.Errorf("%s event on %s/%d has no new image", e.Kind, e.Table, e.Key)
	}
	return json.Unmarshal(e.NewImage, v)
}
