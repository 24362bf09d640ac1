package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// Panel is the state of the side panel on the ammo page. It is one of
// PanelClosed, PanelNewAmmo, PanelEditAmmo or PanelLogUse.
type Panel interface {
	Kind() string
	panel()
}

// PanelClosed shows no panel.
type PanelClosed struct{}

// PanelNewAmmo shows the form for a new ammo lot.
type PanelNewAmmo struct{}

// PanelEditAmmo shows the edit form for one lot.
type PanelEditAmmo struct {
	Item   model.Item
	Detail model.AmmoDetail
}

// PanelLogUse shows the range session form.
type PanelLogUse struct{}

func (PanelClosed) Kind() string   { return "closed" }
func (PanelNewAmmo) Kind() string  { return "new" }
func (PanelEditAmmo) Kind() string { return "edit" }
func (PanelLogUse) Kind() string   { return "log-use" }

func (PanelClosed) panel()   {}
func (PanelNewAmmo) panel()  {}
func (PanelEditAmmo) panel() {}
func (PanelLogUse) panel()   {}

// ParsePanel reads ?panel=new|edit|log-use (and &id= for edit). Unknown or
// empty values close the panel; an edit of a missing lot is an error.
func ParsePanel(ctx context.Context, db *sql.DB, q url.Values) (Panel, error) {
	switch q.Get("panel") {
	case "new":
		return PanelNewAmmo{}, nil
	case "log-use":
		return PanelLogUse{}, nil
	case "edit":
		id, err := strconv.ParseInt(q.Get("id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ammo id %q", q.Get("id"))
		}
		full, err := store.GetItemWithDetail(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if full == nil || full.Ammo == nil {
			return nil, fmt.Errorf("ammo lot %d not found", id)
		}
		return PanelEditAmmo{Item: full.Item, Detail: *full.Ammo}, nil
	default:
		return PanelClosed{}, nil
	}
}
