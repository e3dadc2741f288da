package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/events"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// sseReader reads named events off a text/event-stream body.
type sseReader struct {
	scanner *bufio.Scanner
}

// next returns the name and data of the next event, skipping comments.
func (r *sseReader) next(t *testing.T) (name, data string) {
	t.Helper()

	for r.scanner.Scan() {
		line := r.scanner.Text()

		switch {
		case line == "":
			if name != "" {
				return name, data
			}
		case strings.HasPrefix(line, ":"):
			name = "keep-alive"
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	t.Fatalf("stream ended: %v", r.scanner.Err())

	return "", ""
}

func openStream(t *testing.T, handler *EventsHandler) *sseReader {
	t.Helper()

	engine := gin.New()
	handler.RegisterEventRoutes(engine.Group("/api/v1"))

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return &sseReader{scanner: bufio.NewScanner(resp.Body)}
}

func TestNewEventsHandler(t *testing.T) {
	assert.Panics(t, func() { NewEventsHandler(nil, nil, 0) })

	h := NewEventsHandler(events.NewHub(events.HubConfig{}), nil, 0)
	assert.Equal(t, DefaultHeartbeat, h.heartbeat)
}

func TestEventsHandler_Stream(t *testing.T) {
	hub := events.NewHub(events.HubConfig{})
	t.Cleanup(hub.Close)

	view := func(*gin.Context) any { return map[string]string{"selected": "all"} }
	stream := openStream(t, NewEventsHandler(hub, view, time.Hour))

	name, data := stream.next(t)
	assert.Equal(t, "view", name)
	assert.JSONEq(t, `{"selected":"all"}`, data)

	require.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Publish(context.Background(), domain.QuoteSelected{
		Quote: domain.Quote{Text: "Hello", Category: "Greeting"},
	}))

	name, data = stream.next(t)
	assert.Equal(t, domain.EventQuoteSelected, name)
	assert.Contains(t, data, `"Hello"`)

	require.NoError(t, hub.Publish(context.Background(), domain.SyncedStatus(2)))

	name, data = stream.next(t)
	assert.Equal(t, domain.EventSyncStatus, name)
	assert.Contains(t, data, "Synced: 2 new quote(s) added.")
}

func TestEventsHandler_Heartbeat(t *testing.T) {
	hub := events.NewHub(events.HubConfig{})
	t.Cleanup(hub.Close)

	stream := openStream(t, NewEventsHandler(hub, nil, 20*time.Millisecond))

	name, _ := stream.next(t)
	assert.Equal(t, "keep-alive", name)
}

func TestEventsHandler_HubCloseEndsStream(t *testing.T) {
	hub := events.NewHub(events.HubConfig{})

	stream := openStream(t, NewEventsHandler(hub, func(*gin.Context) any { return "ready" }, time.Hour))

	name, _ := stream.next(t)
	require.Equal(t, "view", name)

	hub.Close()

	assert.False(t, stream.scanner.Scan(), "stream should end once the hub closes")
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
