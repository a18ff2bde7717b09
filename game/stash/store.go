package stash

import (
	"context"
	"errors"

	"github.com/kasuganosora/stashcount/model"
)

// ErrNoSnapshot is returned by Store.Load when nothing has been persisted yet.
var ErrNoSnapshot = errors.New("stash: no persisted snapshot")

// Entry is one persisted typeID=count pair.
type Entry struct {
	TypeID int `json:"type_id"`
	Count  int `json:"count"`
}

// Store persists the snapshot entries. Save replaces whatever was stored before.
type Store interface {
	Name() string
	Save(ctx context.Context, entries []Entry) error
	Load(ctx context.Context) ([]Entry, error)
}

func entriesOf(c *model.Counts) []Entry {
	out := make([]Entry, 0, c.Len())
	c.Range(func(typeID, qty int) bool {
		out = append(out, Entry{TypeID: typeID, Count: qty})
		return true
	})
	return out
}
