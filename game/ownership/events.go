package ownership

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/game/stash"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// ChannelEvents carries outbound notifications: hover results and snapshot
// transitions, JSON-encoded as Event.
const ChannelEvents = "ownership:events"

const (
	EventHover = "hover"
	EventStash = "stash"
)

// Event is one outbound notification.
type Event struct {
	Kind  string       `json:"kind"`
	Hover *HoverView   `json:"hover,omitempty"`
	Stash *StashChange `json:"stash,omitempty"`
}

// StashChange is the wire form of a snapshot transition.
type StashChange struct {
	Kind    string `json:"kind"`
	Store   string `json:"store"`
	Source  string `json:"source"`
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// EventPublisher is both a Presenter and a snapshot observer; everything it
// sees is published on ChannelEvents. Publish failures are logged and
// otherwise ignored.
type EventPublisher struct {
	ps      cache.PubSub
	timeout time.Duration
	logger  *zap.Logger
}

// NewEventPublisher creates an EventPublisher.
func NewEventPublisher(ps cache.PubSub, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{ps: ps, timeout: time.Second, logger: logger}
}

func (p *EventPublisher) Show(typeID int, counts model.Breakdown) {
	p.publish(Event{Kind: EventHover, Hover: &HoverView{
		Active: true, TypeID: typeID, Counts: counts, Total: counts.Total(),
	}})
}

func (p *EventPublisher) Clear() {
	p.publish(Event{Kind: EventHover, Hover: &HoverView{}})
}

// Observe publishes a snapshot transition.
func (p *EventPublisher) Observe(t stash.Transition) {
	c := &StashChange{
		Kind:    t.Kind,
		Store:   t.Store,
		Source:  t.Source,
		Valid:   t.Valid,
		Entries: t.Entries,
	}
	if t.Err != nil {
		c.Error = t.Err.Error()
	}
	p.publish(Event{Kind: EventStash, Stash: c})
}

func (p *EventPublisher) publish(ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("encode ownership event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.ps.Publish(ctx, ChannelEvents, string(raw)); err != nil {
		p.logger.Warn("publish ownership event failed",
			zap.String("kind", ev.Kind), zap.Error(err))
	}
}
