package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/audit"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only endpoints.
// Routes should be protected by middleware.AdminAuth.
type AdminHandler struct {
	module  *ownership.Module
	sched   *scheduler.Scheduler
	journal *audit.Service // nil when the journal is disabled
	logger  *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(module *ownership.Module, sched *scheduler.Scheduler, journal *audit.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{module: module, sched: sched, journal: journal, logger: logger}
}

// Invalidate forces the storage snapshot stale, even while storage is out of
// reach (unlike a host item operation). The next count reloads from disk or
// rebuilds from live storage.
// POST /api/stash/invalidate
func (h *AdminHandler) Invalidate(c *gin.Context) {
	agg := h.module.Aggregator()
	agg.ForceInvalidate()
	h.logger.Info("admin invalidated storage snapshot")
	c.JSON(http.StatusOK, agg.Snapshot().View())
}

// Rebuild re-snapshots the live storage container.
// POST /api/stash/rebuild
func (h *AdminHandler) Rebuild(c *gin.Context) {
	agg := h.module.Aggregator()
	if !agg.RefreshStorage(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"error": "storage unreachable"})
		return
	}
	c.JSON(http.StatusOK, agg.Snapshot().View())
}

// Flush persists the snapshot now, through the scheduler when the flush task
// is registered so it never overlaps a periodic run.
// POST /api/stash/flush
func (h *AdminHandler) Flush(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.sched.RunNow(ctx, ownership.FlushTask)
	if errors.Is(err, scheduler.ErrUnknownTask) {
		err = h.module.Flush(ctx)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSchedulerTasks returns all registered scheduler tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// Journal returns recent snapshot transitions, newest first.
// GET /api/admin/journal?limit=N
func (h *AdminHandler) Journal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..500"})
		return
	}
	events, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("journal query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": h.journal.RunID(), "events": events})
}
