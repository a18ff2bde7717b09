package ownership

import (
	"context"
	"fmt"

	"github.com/kasuganosora/stashcount/model"
	"github.com/kasuganosora/stashcount/plugin/hook"
	"go.uber.org/zap"
)

const (
	// HookName is the name the module registers its hooks under.
	HookName = "ownership"
	// FlushTask is the scheduler task that periodically persists the snapshot.
	FlushTask = "stash_flush"
)

// Module owns the aggregator's lifecycle inside the host: Start warms the
// snapshot from disk and subscribes to host events, Stop unsubscribes and
// flushes the snapshot.
type Module struct {
	agg     *Aggregator
	hooks   *hook.HookCenter
	logger  *zap.Logger
	started bool
}

// NewModule creates a Module.
func NewModule(agg *Aggregator, hooks *hook.HookCenter, logger *zap.Logger) *Module {
	return &Module{agg: agg, hooks: hooks, logger: logger}
}

// Aggregator returns the module's aggregator.
func (m *Module) Aggregator() *Aggregator { return m.agg }

// Start loads the persisted snapshot and registers the event hooks.
func (m *Module) Start(ctx context.Context) error {
	if m.started {
		return nil
	}
	m.agg.Snapshot().Load(ctx)

	m.hooks.Register(hook.OnHoverChanged, 0, HookName, m.onHover)
	m.hooks.Register(hook.AfterItemOperation, 0, HookName, m.onItemOperation)
	m.started = true

	if _, err := m.hooks.Trigger(ctx, hook.OnModuleLoad, HookName); err != nil {
		m.logger.Warn("module load hooks failed", zap.Error(err))
	}
	m.logger.Info("ownership module started",
		zap.Bool("snapshot_valid", m.agg.Snapshot().Valid()))
	return nil
}

// Stop unregisters the hooks and flushes the snapshot.
func (m *Module) Stop(ctx context.Context) {
	if !m.started {
		return
	}
	m.hooks.UnregisterAll(HookName)
	m.started = false
	if _, err := m.hooks.Trigger(ctx, hook.OnModuleUnload, HookName); err != nil {
		m.logger.Warn("module unload hooks failed", zap.Error(err))
	}
	_ = m.agg.Snapshot().Save(ctx)
	m.logger.Info("ownership module stopped")
}

// Flush persists the snapshot now.
func (m *Module) Flush(ctx context.Context) error {
	return m.agg.Snapshot().Save(ctx)
}

func (m *Module) onHover(ctx context.Context, _ string, data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case nil:
		m.agg.OnHoverChanged(ctx, nil)
	case *model.ContainerNode:
		m.agg.OnHoverChanged(ctx, v)
	default:
		return data, fmt.Errorf("ownership: unexpected hover payload %T", data)
	}
	return data, nil
}

func (m *Module) onItemOperation(ctx context.Context, _ string, data interface{}) (interface{}, error) {
	m.agg.OnItemOperation(ctx)
	return data, nil
}
