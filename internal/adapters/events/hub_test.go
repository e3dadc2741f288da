package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHub(buffer int, m *metrics.Metrics) *Hub {
	return NewHub(HubConfig{
		Buffer:  buffer,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestNewHub_Defaults(t *testing.T) {
	h := NewHub(HubConfig{})

	assert.Equal(t, DefaultBuffer, h.buffer)
	assert.NotNil(t, h.logger)
	assert.Zero(t, h.Subscribers())
}

func TestHub_PublishFansOut(t *testing.T) {
	h := newTestHub(4, nil)
	defer h.Close()

	a := h.Subscribe()
	b := h.Subscribe()
	require.Equal(t, 2, h.Subscribers())

	event := domain.QuoteSelected{Quote: domain.Quote{Text: "Test", Category: "X"}}
	require.NoError(t, h.Publish(context.Background(), event))

	assert.Equal(t, event, <-a.Events())
	assert.Equal(t, event, <-b.Events())
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := newTestHub(1, nil)
	defer h.Close()

	assert.NoError(t, h.Publish(context.Background(), domain.SyncedStatus(0)))
}

func TestHub_FullSubscriberDropsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestHub(1, metrics.New(reg))
	defer h.Close()

	slow := h.Subscribe()

	first := domain.SyncedStatus(1)
	second := domain.SyncedStatus(2)

	require.NoError(t, h.Publish(context.Background(), first))
	require.NoError(t, h.Publish(context.Background(), second))

	assert.Equal(t, first, <-slow.Events())
	select {
	case ev := <-slow.Events():
		t.Fatalf("unexpected event %v", ev)
	default:
	}

	count, err := testutil.GatherAndCount(reg, "quotebook_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one delivered and one dropped series")
}

func TestHub_OrderIsPreservedPerSubscriber(t *testing.T) {
	h := newTestHub(8, nil)
	defer h.Close()

	sub := h.Subscribe()

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Publish(context.Background(), domain.SyncedStatus(i)))
	}

	for i := 1; i <= 5; i++ {
		assert.Equal(t, domain.SyncedStatus(i), <-sub.Events())
	}
}

func TestSubscription_Close(t *testing.T) {
	h := newTestHub(1, nil)
	defer h.Close()

	sub := h.Subscribe()
	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Zero(t, h.Subscribers())
	assert.NoError(t, h.Publish(context.Background(), domain.SyncedStatus(0)))
}

func TestHub_Close(t *testing.T) {
	h := newTestHub(1, nil)
	sub := h.Subscribe()

	h.Close()
	h.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.ErrorIs(t, h.Publish(context.Background(), domain.SyncedStatus(0)), ErrHubClosed)

	late := h.Subscribe()
	_, open = <-late.Events()
	assert.False(t, open)
	assert.Zero(t, h.Subscribers())

	sub.Close()
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	h := newTestHub(4, nil)

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			for i := range 50 {
				_ = h.Publish(context.Background(), domain.SyncedStatus(i))
			}
		}()

		go func() {
			defer wg.Done()

			sub := h.Subscribe()
			for range 3 {
				select {
				case <-sub.Events():
				default:
				}
			}
			sub.Close()
		}()
	}

	wg.Wait()
	h.Close()

	assert.Zero(t, h.Subscribers())
}
