package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/model"
	"github.com/kasuganosora/stashcount/resource"
	"go.uber.org/zap"
)

// HostHandler drives the simulated host: it moves the player between zones,
// reloads the world fixture and publishes host events onto the bus the
// ownership bridge listens on.
type HostHandler struct {
	world  *resource.World
	ps     cache.PubSub
	logger *zap.Logger
}

// NewHostHandler creates a HostHandler.
func NewHostHandler(world *resource.World, ps cache.PubSub, logger *zap.Logger) *HostHandler {
	return &HostHandler{world: world, ps: ps, logger: logger}
}

// Zone handles POST /api/host/zone.
func (h *HostHandler) Zone(c *gin.Context) {
	var req struct {
		InZone *bool `json:"in_zone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "in_zone is required"})
		return
	}
	h.world.SetInZone(*req.InZone)
	h.logger.Info("host zone changed", zap.Bool("in_zone", *req.InZone))
	c.JSON(http.StatusOK, gin.H{"in_zone": *req.InZone})
}

// Reload handles POST /api/host/reload.
func (h *HostHandler) Reload(c *gin.Context) {
	if err := h.world.Load(); err != nil {
		h.logger.Warn("world reload failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "in_zone": h.world.InZone()})
}

// Hover handles POST /api/host/hover. The body is the hovered node, or
// null/empty when the pointer left the item.
func (h *HostHandler) Hover(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	var node *model.ContainerNode
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &node); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node"})
			return
		}
	}
	if err := ownership.PublishHover(c.Request.Context(), h.ps, node); err != nil {
		h.logger.Error("publish hover failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event bus unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// ItemOperation handles POST /api/host/item_op.
func (h *HostHandler) ItemOperation(c *gin.Context) {
	if err := ownership.PublishItemOperation(c.Request.Context(), h.ps); err != nil {
		h.logger.Error("publish item operation failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event bus unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
