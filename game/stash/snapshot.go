package stash

import (
	"context"
	"errors"
	"sync"

	"github.com/kasuganosora/stashcount/game/item"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// Transition describes one state change of a Snapshot.
type Transition struct {
	Kind    string // one of the model.StashEvent* kinds
	Store   string
	Source  string
	Valid   bool
	Entries int
	Err     error
}

// Observer receives transitions after the snapshot lock is released.
type Observer func(Transition)

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithCounter sets the counter used to tally storage trees.
func WithCounter(c *item.Counter) Option {
	return func(s *Snapshot) { s.counter = c }
}

// WithObserver registers fn for every transition.
func WithObserver(fn Observer) Option {
	return func(s *Snapshot) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Snapshot is the last known full contents of the storage container, keyed by
// item type. It starts empty and invalid.
//
// State machine:
//
//	Invalid -> Valid    Rebuild with a non-empty tally, or Load with >= 1 entry
//	Valid   -> Invalid  Invalidate
//	Valid   -> Valid    Rebuild with an empty tally (existing entries kept)
type Snapshot struct {
	mu      sync.Mutex
	entries *model.Counts
	valid   bool
	source  string
	// owned is set once the entries came from a rebuild or a successful
	// load. Until then Save must not overwrite what is persisted.
	owned bool

	store     Store
	counter   *item.Counter
	observers []Observer
	logger    *zap.Logger
}

// NewSnapshot creates an empty, invalid Snapshot persisted through store.
func NewSnapshot(store Store, logger *zap.Logger, opts ...Option) *Snapshot {
	s := &Snapshot{
		entries: model.NewCounts(),
		store:   store,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.counter == nil {
		s.counter = item.NewCounter(item.DefaultMaxDepth, logger)
	}
	return s
}

// Valid reports whether the entries reflect a real snapshot taken since the
// last invalidation.
func (s *Snapshot) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Source returns the identity of the last storage container snapshotted.
func (s *Snapshot) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Entries returns a copy of the cached counts.
func (s *Snapshot) Entries() *model.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Clone()
}

// Lookup returns the cached count for typeID. ok is false while the snapshot
// is invalid, in which case the count must not be trusted.
func (s *Snapshot) Lookup(typeID int) (count int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return 0, false
	}
	v, _ := s.entries.Get(typeID)
	return v, true
}

// Invalidate marks the snapshot stale. Entries are kept so a later Load or
// Rebuild decides what replaces them.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	was := s.valid
	s.valid = false
	t := s.transitionLocked(model.StashEventInvalidated, nil)
	s.mu.Unlock()
	if was {
		s.notify(t)
	}
}

// Rebuild tallies roots into a new snapshot for source. An empty tally never
// replaces a valid, non-empty snapshot: the storage may simply not be
// populated yet. Any replacement is persisted.
func (s *Snapshot) Rebuild(ctx context.Context, roots []*model.ContainerNode, source string) {
	s.mu.Lock()
	ts := s.rebuildLocked(ctx, roots, source)
	s.mu.Unlock()
	s.notify(ts...)
}

// EnsureFresh rebuilds only when the snapshot is invalid or source differs
// from the one last snapshotted.
func (s *Snapshot) EnsureFresh(ctx context.Context, roots []*model.ContainerNode, source string) {
	s.mu.Lock()
	if s.valid && s.source == source {
		s.mu.Unlock()
		return
	}
	ts := s.rebuildLocked(ctx, roots, source)
	s.mu.Unlock()
	s.notify(ts...)
}

func (s *Snapshot) rebuildLocked(ctx context.Context, roots []*model.ContainerNode, source string) []Transition {
	temp := s.counter.Tally(roots)
	if temp.Len() == 0 && s.valid && s.entries.Len() > 0 {
		s.logger.Debug("empty storage read ignored; keeping snapshot",
			zap.String("source", source), zap.Int("entries", s.entries.Len()))
		return []Transition{s.transitionLocked(model.StashEventPreserved, nil)}
	}
	s.entries = temp
	s.source = source
	s.valid = temp.Len() > 0
	s.owned = true
	s.logger.Debug("storage snapshot rebuilt",
		zap.String("source", source), zap.Int("entries", temp.Len()), zap.Bool("valid", s.valid))
	return []Transition{
		s.transitionLocked(model.StashEventRebuilt, nil),
		s.saveLocked(ctx),
	}
}

// Save persists the current entries. Failures are logged as warnings; the
// error is returned for callers that report it (the periodic flush task).
// Save is a no-op until the snapshot has been rebuilt or loaded, so a failed
// warm load never replaces the persisted snapshot with an empty one.
func (s *Snapshot) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.owned {
		s.mu.Unlock()
		s.logger.Debug("storage snapshot save skipped; nothing rebuilt or loaded yet",
			zap.String("store", s.store.Name()))
		return nil
	}
	t := s.saveLocked(ctx)
	s.mu.Unlock()
	s.notify(t)
	return t.Err
}

func (s *Snapshot) saveLocked(ctx context.Context) Transition {
	err := s.store.Save(ctx, entriesOf(s.entries))
	if err != nil {
		s.logger.Warn("storage snapshot save skipped",
			zap.String("store", s.store.Name()), zap.Error(err))
	}
	return s.transitionLocked(model.StashEventSaved, err)
}

// Load replaces the entries with the persisted snapshot. When nothing was
// persisted, or the store cannot be read, the in-memory state is left as is.
func (s *Snapshot) Load(ctx context.Context) {
	s.mu.Lock()
	t, ok := s.loadLocked(ctx)
	s.mu.Unlock()
	if ok {
		s.notify(t)
	}
}

func (s *Snapshot) loadLocked(ctx context.Context) (Transition, bool) {
	entries, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger.Info("no persisted storage snapshot", zap.String("store", s.store.Name()))
		return Transition{}, false
	}
	if err != nil {
		s.logger.Warn("storage snapshot load failed",
			zap.String("store", s.store.Name()), zap.Error(err))
		return Transition{}, false
	}

	s.entries = model.NewCounts()
	for _, e := range entries {
		if e.Count > 0 {
			s.entries.Set(e.TypeID, e.Count)
		}
	}
	s.valid = s.entries.Len() > 0
	s.owned = true
	s.logger.Info("storage snapshot loaded",
		zap.String("store", s.store.Name()), zap.Int("entries", s.entries.Len()), zap.Bool("valid", s.valid))
	return s.transitionLocked(model.StashEventLoaded, nil), true
}

// View is a point-in-time copy of the snapshot state.
type View struct {
	Valid   bool    `json:"valid"`
	Source  string  `json:"source"`
	Store   string  `json:"store"`
	Entries []Entry `json:"entries"`
}

// View returns the current state for inspection.
func (s *Snapshot) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Valid:   s.valid,
		Source:  s.source,
		Store:   s.store.Name(),
		Entries: entriesOf(s.entries),
	}
}

func (s *Snapshot) transitionLocked(kind string, err error) Transition {
	return Transition{
		Kind:    kind,
		Store:   s.store.Name(),
		Source:  s.source,
		Valid:   s.valid,
		Entries: s.entries.Len(),
		Err:     err,
	}
}

func (s *Snapshot) notify(ts ...Transition) {
	for _, t := range ts {
		for _, fn := range s.observers {
			fn(t)
		}
	}
}
