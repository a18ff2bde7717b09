package sse

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/game/stash"
	"go.uber.org/zap"
)

// Handler streams ownership events to debug clients over server-sent events.
type Handler struct {
	pubsub    cache.PubSub
	snapshot  *stash.Snapshot
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, snapshot *stash.Snapshot, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, snapshot: snapshot, keepalive: 30 * time.Second, logger: logger}
}

// ServeSSE handles GET /sse.
// The first event is "connected" carrying the current snapshot view; after
// that each ownership event is sent with its kind as the event name.
func (h *Handler) ServeSSE(c *gin.Context) {
	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, ownership.ChannelEvents)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event bus unavailable"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", h.snapshot.View())
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventName(msg.Payload), msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
