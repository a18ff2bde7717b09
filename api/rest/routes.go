package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/api/sse"
	"github.com/kasuganosora/stashcount/api/ws"
)

// Handlers bundles every HTTP handler for route registration. Events and
// HostWS are optional.
type Handlers struct {
	Ownership *OwnershipHandler
	Host      *HostHandler
	Admin     *AdminHandler
	Events    *sse.Handler
	HostWS    *ws.Handler
}

// Register mounts the API on r. admin guards every mutating and admin route.
func (h Handlers) Register(r gin.IRouter, admin ...gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Events != nil {
		r.GET("/sse", h.Events.ServeSSE)
	}
	if h.HostWS != nil {
		r.Group("", admin...).GET("/ws/host", h.HostWS.ServeWS)
	}

	api := r.Group("/api")
	{
		api.GET("/items/:type_id/count", h.Ownership.Count)
		api.GET("/stash", h.Ownership.Stash)
		api.GET("/hover", h.Ownership.Hover)

		adminG := api.Group("", admin...)
		adminG.POST("/stash/invalidate", h.Admin.Invalidate)
		adminG.POST("/stash/rebuild", h.Admin.Rebuild)
		adminG.POST("/stash/flush", h.Admin.Flush)

		adminG.POST("/host/zone", h.Host.Zone)
		adminG.POST("/host/reload", h.Host.Reload)
		adminG.POST("/host/hover", h.Host.Hover)
		adminG.POST("/host/item_op", h.Host.ItemOperation)

		adminG.GET("/admin/scheduler", h.Admin.ListSchedulerTasks)
		adminG.GET("/admin/journal", h.Admin.Journal)
	}
}
