package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/model"
)

// OwnershipHandler serves read-only ownership queries.
type OwnershipHandler struct {
	agg   *ownership.Aggregator
	hover *ownership.HoverState
}

// NewOwnershipHandler creates an OwnershipHandler.
func NewOwnershipHandler(agg *ownership.Aggregator, hover *ownership.HoverState) *OwnershipHandler {
	return &OwnershipHandler{agg: agg, hover: hover}
}

type countResponse struct {
	TypeID int `json:"type_id"`
	model.Breakdown
	Total int `json:"total"`
}

// Count handles GET /api/items/:type_id/count.
func (h *OwnershipHandler) Count(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("type_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type_id"})
		return
	}
	b := h.agg.GetCountByRole(c.Request.Context(), typeID)
	c.JSON(http.StatusOK, countResponse{TypeID: typeID, Breakdown: b, Total: b.Total()})
}

// Stash handles GET /api/stash.
func (h *OwnershipHandler) Stash(c *gin.Context) {
	c.JSON(http.StatusOK, h.agg.Snapshot().View())
}

// Hover handles GET /api/hover.
func (h *OwnershipHandler) Hover(c *gin.Context) {
	c.JSON(http.StatusOK, h.hover.Current())
}
