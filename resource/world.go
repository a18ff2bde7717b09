package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// ---- World fixture ----

// InventoryData is one container's top-level items.
type InventoryData struct {
	Items []*model.ContainerNode `json:"items"`
}

// StorageData is the base storage container.
type StorageData struct {
	Source string                 `json:"source"` // identity of the container, e.g. the save slot
	Items  []*model.ContainerNode `json:"items"`
}

// WorldData is the on-disk shape of a world fixture. A nil companion means
// the player has none; storage is only reachable while InZone is set.
type WorldData struct {
	Player    *InventoryData `json:"player"`
	Companion *InventoryData `json:"companion,omitempty"`
	Storage   *StorageData   `json:"storage,omitempty"`
	InZone    bool           `json:"in_zone"`
}

// World stands in for the game host: it loads container trees from a JSON
// file and hands them to the ownership resolvers.
type World struct {
	path   string
	mu     sync.RWMutex
	data   WorldData
	logger *zap.Logger
}

// NewWorld creates a World backed by the file at path. Call Load before use.
func NewWorld(path string, logger *zap.Logger) *World {
	return &World{path: path, logger: logger}
}

// Path returns the fixture file path.
func (w *World) Path() string { return w.path }

// Load reads the fixture file, replacing the current state.
func (w *World) Load() error {
	var data WorldData
	if err := loadJSONObject(w.path, &data); err != nil {
		return err
	}
	w.Set(data)
	w.logger.Info("world loaded",
		zap.String("path", w.path),
		zap.Bool("in_zone", data.InZone),
		zap.Bool("has_storage", data.Storage != nil),
		zap.Bool("has_companion", data.Companion != nil))
	return nil
}

// Set replaces the current state.
func (w *World) Set(data WorldData) {
	w.mu.Lock()
	w.data = data
	w.mu.Unlock()
}

// SetInZone moves the player into or out of the storage zone.
func (w *World) SetInZone(in bool) {
	w.mu.Lock()
	w.data.InZone = in
	w.mu.Unlock()
}

// InZone reports whether storage is currently reachable.
func (w *World) InZone() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data.InZone
}

// Resolvers returns the three providers over this world.
func (w *World) Resolvers() ownership.Resolvers {
	return ownership.Resolvers{
		Player:    ownership.ResolverFunc(w.resolvePlayer),
		Storage:   ownership.ResolverFunc(w.resolveStorage),
		Companion: ownership.ResolverFunc(w.resolveCompanion),
	}
}

func (w *World) resolvePlayer() ownership.Resolution {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return inventory(w.data.Player, "player")
}

func (w *World) resolveCompanion() ownership.Resolution {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return inventory(w.data.Companion, "companion")
}

func (w *World) resolveStorage() ownership.Resolution {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.data.Storage
	if s == nil || !w.data.InZone {
		return ownership.Unavailable()
	}
	return ownership.Available(s.Source, s.Items...)
}

func inventory(inv *InventoryData, source string) ownership.Resolution {
	if inv == nil {
		return ownership.Unavailable()
	}
	return ownership.Available(source, inv.Items...)
}

func loadJSONObject[T any](path string, out *T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
