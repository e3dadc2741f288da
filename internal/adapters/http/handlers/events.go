package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/events"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// DefaultHeartbeat is the interval of keep-alive comments on idle streams.
const DefaultHeartbeat = 15 * time.Second

// EventsHandler streams presentation events as server-sent events.
type EventsHandler struct {
	hub       *events.Hub
	view      func(*gin.Context) any
	heartbeat time.Duration
}

// NewEventsHandler creates a stream handler over hub. view, when set, renders
// the snapshot sent as the first "view" event of every stream.
func NewEventsHandler(hub *events.Hub, view func(*gin.Context) any, heartbeat time.Duration) *EventsHandler {
	if hub == nil {
		panic("handlers: EventsHandler requires a hub")
	}

	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	return &EventsHandler{hub: hub, view: view, heartbeat: heartbeat}
}

// Stream handles GET /api/v1/events
// Each event is named by its type and carries its payload as JSON. The stream
// ends when the client goes away or the hub closes.
func (h *EventsHandler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer sub.Close()

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if h.view != nil {
		c.SSEvent("view", h.view(c))
	}

	c.Writer.Flush()

	logger.DebugContext(ctx, "event stream opened", slog.Int("subscribers", h.hub.Subscribers()))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}

			c.SSEvent(ev.EventType(), ev.Payload())

			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		}
	})

	logger.DebugContext(ctx, "event stream closed")
}

// RegisterEventRoutes registers the stream on the given router group.
func (h *EventsHandler) RegisterEventRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.Stream)
}
