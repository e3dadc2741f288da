package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// display publishes presentation events shared by the service and the reconciler.
type display struct {
	store      *QuoteStore
	categories *CategoryIndex
	filter     *FilterState
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// showRandom picks a quote under the active filter, records it as viewed and
// announces it. Reports false when the filter matches nothing.
func (d *display) showRandom(ctx context.Context) (domain.Quote, bool) {
	q, ok := d.store.PickRandom(d.filter.Predicate())
	if !ok {
		return domain.Quote{}, false
	}

	d.store.RecordViewed(ctx, q)
	d.publish(ctx, domain.QuoteSelected{Quote: q})

	return q, true
}

// refreshCategories recomputes the index and announces a changed list.
func (d *display) refreshCategories(ctx context.Context) ([]string, bool) {
	categories, changed := d.categories.RefreshFrom(d.store.All)
	if changed {
		d.publish(ctx, domain.CategoryListChanged{Categories: categories})
	}

	return categories, changed
}

func (d *display) status(ctx context.Context, status domain.SyncStatus) {
	d.publish(ctx, status)
}

func (d *display) publish(ctx context.Context, event ports.Event) {
	if d.publisher == nil {
		return
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "publishing event failed",
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}
}
