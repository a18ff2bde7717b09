package ownership

import (
	"sync"

	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// Presenter receives hover results. Formatting and drawing belong to the host.
type Presenter interface {
	Show(typeID int, counts model.Breakdown)
	Clear()
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) Show(int, model.Breakdown) {}
func (NopPresenter) Clear()                    {}

// Presenters fans out to several presenters in order.
type Presenters []Presenter

func (ps Presenters) Show(typeID int, counts model.Breakdown) {
	for _, p := range ps {
		p.Show(typeID, counts)
	}
}

func (ps Presenters) Clear() {
	for _, p := range ps {
		p.Clear()
	}
}

// LogPresenter writes hover results to the log at debug level.
type LogPresenter struct {
	Logger *zap.Logger
}

func (p LogPresenter) Show(typeID int, counts model.Breakdown) {
	p.Logger.Debug("hover",
		zap.Int("type_id", typeID),
		zap.Int("player", counts.Player),
		zap.Int("storage", counts.Storage),
		zap.Int("companion", counts.Companion),
		zap.Int("total", counts.Total()))
}

func (p LogPresenter) Clear() {
	p.Logger.Debug("hover cleared")
}

// HoverView is the last hover result.
type HoverView struct {
	Active bool            `json:"active"`
	TypeID int             `json:"type_id,omitempty"`
	Counts model.Breakdown `json:"counts"`
	Total  int             `json:"total"`
}

// HoverState remembers the most recent hover result.
type HoverState struct {
	mu   sync.RWMutex
	view HoverView
}

func (h *HoverState) Show(typeID int, counts model.Breakdown) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = HoverView{Active: true, TypeID: typeID, Counts: counts, Total: counts.Total()}
}

func (h *HoverState) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = HoverView{}
}

// Current returns the last result.
func (h *HoverState) Current() HoverView {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view
}
