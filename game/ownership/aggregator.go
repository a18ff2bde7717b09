package ownership

import (
	"context"
	"sync"

	"github.com/kasuganosora/stashcount/game/item"
	"github.com/kasuganosora/stashcount/game/stash"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// Aggregator answers "how many of this item type does the player own" across
// the player, storage and companion inventories. Player and companion are
// always counted live; storage falls back to the snapshot whenever the live
// container is unreachable or not yet populated.
//
// All entry points are serialized, so host events never overlap.
type Aggregator struct {
	mu        sync.Mutex
	resolvers Resolvers
	snapshot  *stash.Snapshot
	counter   *item.Counter
	presenter Presenter
	logger    *zap.Logger
}

// NewAggregator creates an Aggregator over the given providers and snapshot.
func NewAggregator(resolvers Resolvers, snapshot *stash.Snapshot, counter *item.Counter, presenter Presenter, logger *zap.Logger) *Aggregator {
	if counter == nil {
		counter = item.NewCounter(item.DefaultMaxDepth, logger)
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &Aggregator{
		resolvers: resolvers,
		snapshot:  snapshot,
		counter:   counter,
		presenter: presenter,
		logger:    logger,
	}
}

// Snapshot returns the storage snapshot the aggregator reads and refreshes.
func (a *Aggregator) Snapshot() *stash.Snapshot { return a.snapshot }

// GetCountByRole returns the per-role counts for typeID.
func (a *Aggregator) GetCountByRole(ctx context.Context, typeID int) model.Breakdown {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.breakdownLocked(ctx, typeID)
}

// GetTotal returns the sum over all three roles.
func (a *Aggregator) GetTotal(ctx context.Context, typeID int) int {
	return a.GetCountByRole(ctx, typeID).Total()
}

// CountFor returns the count of typeID held by a single role.
func (a *Aggregator) CountFor(ctx context.Context, role model.Role, typeID int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch role {
	case model.RolePlayer:
		return a.liveCount(a.resolvers.Player, typeID)
	case model.RoleStorage:
		return a.storageCount(ctx, typeID)
	case model.RoleCompanion:
		return a.liveCount(a.resolvers.Companion, typeID)
	}
	return 0
}

func (a *Aggregator) breakdownLocked(ctx context.Context, typeID int) model.Breakdown {
	return model.Breakdown{
		Player:    a.liveCount(a.resolvers.Player, typeID),
		Storage:   a.storageCount(ctx, typeID),
		Companion: a.liveCount(a.resolvers.Companion, typeID),
	}
}

func (a *Aggregator) liveCount(r Resolver, typeID int) int {
	res := resolve(r)
	if !res.Available {
		return 0
	}
	return a.counter.SumOverRoots(res.Roots, typeID)
}

// storageCount decides between live traversal and the snapshot:
//   - unreachable, or reachable but empty: load the persisted snapshot if the
//     in-memory one is invalid, then answer from it (0 if still invalid);
//   - reachable with contents: refresh the snapshot if it is stale or the
//     container was swapped, and answer with the live sum.
func (a *Aggregator) storageCount(ctx context.Context, typeID int) int {
	res := resolve(a.resolvers.Storage)
	if !res.Available || res.Empty() {
		if !a.snapshot.Valid() {
			a.snapshot.Load(ctx)
		}
		count, ok := a.snapshot.Lookup(typeID)
		if !ok {
			return 0
		}
		return count
	}

	a.snapshot.EnsureFresh(ctx, res.Roots, res.Source)
	live := a.counter.SumOverRoots(res.Roots, typeID)
	if cached, ok := a.snapshot.Lookup(typeID); ok && cached != live {
		// The container changed without an item operation signal.
		a.logger.Debug("storage snapshot drifted from live contents",
			zap.Int("type_id", typeID), zap.Int("cached", cached), zap.Int("live", live))
		a.snapshot.Rebuild(ctx, res.Roots, res.Source)
	}
	return live
}

// RefreshStorage rebuilds the snapshot from the live storage container,
// subject to the usual rule that an empty read never replaces a non-empty
// snapshot. It reports false when storage is unreachable.
func (a *Aggregator) RefreshStorage(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := resolve(a.resolvers.Storage)
	if !res.Available {
		return false
	}
	a.snapshot.Rebuild(ctx, res.Roots, res.Source)
	return true
}

// OnItemOperation handles the "player item operation completed" signal. The
// snapshot is invalidated only while storage is reachable (even if empty);
// otherwise there is no way to refresh it, so the last snapshot is kept.
func (a *Aggregator) OnItemOperation(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !resolve(a.resolvers.Storage).Available {
		a.logger.Debug("item operation while storage unreachable; snapshot kept")
		return
	}
	a.snapshot.Invalidate()
}

// ForceInvalidate marks the snapshot stale whether or not storage is
// reachable. Used by operators to exercise the fallback path; host events go
// through OnItemOperation instead.
func (a *Aggregator) ForceInvalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot.Invalidate()
}

// OnHoverChanged is the hover callback: nil clears the display, otherwise the
// breakdown for the hovered item's type is handed to the presenter.
func (a *Aggregator) OnHoverChanged(ctx context.Context, hovered *model.ContainerNode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hovered == nil {
		a.presenter.Clear()
		return
	}
	b := a.breakdownLocked(ctx, hovered.TypeID)
	a.presenter.Show(hovered.TypeID, b)
}
