package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// firstIndex always picks the first candidate.
func firstIndex(int) int { return 0 }

// eventRecorder is an EventPublisher that keeps every event.
type eventRecorder struct {
	mu     sync.Mutex
	events []ports.Event
}

func (r *eventRecorder) Publish(_ context.Context, event ports.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return nil
}

func (r *eventRecorder) ofType(eventType string) []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ports.Event

	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}

	return out
}

func (r *eventRecorder) statuses() []domain.SyncStatus {
	var out []domain.SyncStatus

	for _, e := range r.ofType(domain.EventSyncStatus) {
		out = append(out, e.(domain.SyncStatus))
	}

	return out
}

func (r *eventRecorder) lastStatus() (domain.SyncStatus, bool) {
	statuses := r.statuses()
	if len(statuses) == 0 {
		return domain.SyncStatus{}, false
	}

	return statuses[len(statuses)-1], true
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}

// fixture wires the core components over memory stores.
type fixture struct {
	durable    *storage.Memory
	session    *storage.Memory
	store      *QuoteStore
	categories *CategoryIndex
	filter     *FilterState
	events     *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		durable:    storage.NewMemory(),
		session:    storage.NewMemory(),
		categories: NewCategoryIndex(),
		events:     &eventRecorder{},
	}

	f.store = NewQuoteStore(QuoteStoreConfig{
		Durable: f.durable,
		Session: f.session,
		Logger:  discardLogger(),
		Intn:    firstIndex,
	})
	f.filter = NewFilterState(f.durable, discardLogger())

	return f
}

// seed loads the given quotes into the store as if they had been persisted.
func (f *fixture) seed(t *testing.T, quotes ...domain.Quote) {
	t.Helper()

	raw, err := EncodeQuotes(quotes)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.durable.Set(context.Background(), ports.SlotQuotes, raw); err != nil {
		t.Fatal(err)
	}

	f.store.Load(context.Background())
	f.categories.Refresh(f.store.All())
}

func (f *fixture) service(reconciler *Reconciler) *QuoteService {
	return NewQuoteService(QuoteServiceConfig{
		Store:      f.store,
		Categories: f.categories,
		Filter:     f.filter,
		Publisher:  f.events,
		Reconciler: reconciler,
		Logger:     discardLogger(),
	})
}

func (f *fixture) reconciler(source ports.QuoteSource) *Reconciler {
	return NewReconciler(ReconcilerConfig{
		Store:      f.store,
		Categories: f.categories,
		Filter:     f.filter,
		Source:     source,
		Publisher:  f.events,
		Logger:     discardLogger(),
	})
}

func q(text, category string) domain.Quote {
	return domain.Quote{Text: text, Category: category}
}
