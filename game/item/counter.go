package item

import (
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds traversal of container trees. Host data is expected
// to be acyclic; a node that contains one of its own ancestors is skipped, and
// the bound caps whatever nesting remains.
const DefaultMaxDepth = 64

// Counter walks container trees and totals item quantities.
type Counter struct {
	maxDepth int
	logger   *zap.Logger
}

// NewCounter creates a Counter. maxDepth <= 0 selects DefaultMaxDepth.
func NewCounter(maxDepth int, logger *zap.Logger) *Counter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{maxDepth: maxDepth, logger: logger}
}

var defaultCounter = NewCounter(DefaultMaxDepth, nil)

// CountInTree returns the total quantity of typeID held by root and everything
// nested in its slots and sub-inventory. A nil root counts as zero.
func CountInTree(root *model.ContainerNode, typeID int) int {
	return defaultCounter.CountInTree(root, typeID)
}

// SumOverRoots returns the sum of CountInTree over every non-nil root.
func SumOverRoots(roots []*model.ContainerNode, typeID int) int {
	return defaultCounter.SumOverRoots(roots, typeID)
}

// Tally accumulates every type found under roots into a fresh Counts holding
// positive totals only.
func Tally(roots []*model.ContainerNode) *model.Counts {
	return defaultCounter.Tally(roots)
}

// CountInTree is the bounded form of the package-level CountInTree.
func (c *Counter) CountInTree(root *model.ContainerNode, typeID int) int {
	w := newWalk(c.maxDepth)
	total := 0
	w.visit(root, 0, func(n *model.ContainerNode) {
		if n.TypeID == typeID {
			total += n.Contribution()
		}
	})
	c.warnTruncated(w, zap.Int("type_id", typeID))
	return total
}

// SumOverRoots is the bounded form of the package-level SumOverRoots.
func (c *Counter) SumOverRoots(roots []*model.ContainerNode, typeID int) int {
	total := 0
	for _, root := range roots {
		total += c.CountInTree(root, typeID)
	}
	return total
}

// Tally is the bounded form of the package-level Tally.
func (c *Counter) Tally(roots []*model.ContainerNode) *model.Counts {
	out := model.NewCounts()
	w := newWalk(c.maxDepth)
	for _, root := range roots {
		w.visit(root, 0, func(n *model.ContainerNode) {
			out.Add(n.TypeID, n.Contribution())
		})
	}
	c.warnTruncated(w, zap.Int("roots", len(roots)))
	out.Compact()
	return out
}

func (c *Counter) warnTruncated(w *walk, field zap.Field) {
	if w.truncated == 0 && w.cycles == 0 {
		return
	}
	c.logger.Warn("container tree is cyclic or too deep; partial count returned",
		field,
		zap.Int("max_depth", c.maxDepth),
		zap.Int("skipped_subtrees", w.truncated),
		zap.Int("skipped_cycles", w.cycles))
}

// walk is a depth-first traversal state. path holds the ancestors of the
// node being visited; the same node may still appear under different parents.
type walk struct {
	maxDepth  int
	truncated int
	cycles    int
	path      map[*model.ContainerNode]struct{}
}

func newWalk(maxDepth int) *walk {
	return &walk{maxDepth: maxDepth, path: make(map[*model.ContainerNode]struct{})}
}

func (w *walk) visit(n *model.ContainerNode, depth int, fn func(*model.ContainerNode)) {
	if n == nil {
		return
	}
	if _, onPath := w.path[n]; onPath {
		w.cycles++
		return
	}
	if depth >= w.maxDepth {
		w.truncated++
		return
	}
	fn(n)
	w.path[n] = struct{}{}
	defer delete(w.path, n)
	for _, s := range n.Slots {
		if s != nil {
			w.visit(s.Content, depth+1, fn)
		}
	}
	for _, child := range n.SubInventory {
		w.visit(child, depth+1, fn)
	}
}
