package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// FilterState holds the selected category, mirrored to the durable store.
// Any string is accepted; a category with no quotes simply matches nothing.
type FilterState struct {
	mu      sync.RWMutex
	current string

	durable ports.KeyValueStore
	logger  *slog.Logger
}

// NewFilterState creates a filter set to AllCategories. Call Restore to
// pick up the persisted selection.
func NewFilterState(durable ports.KeyValueStore, logger *slog.Logger) *FilterState {
	if durable == nil {
		panic("app: FilterState requires a durable store")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FilterState{
		current: domain.AllCategories,
		durable: durable,
		logger:  logger,
	}
}

// Restore reads the persisted selection. Absent or unreadable means AllCategories.
func (f *FilterState) Restore(ctx context.Context) string {
	category := domain.AllCategories

	raw, err := f.durable.Get(ctx, ports.SlotLastSelectedCategory)

	switch {
	case err == nil:
		category = normalizeCategory(string(raw))
	case !domain.IsNotFound(err):
		f.logger.WarnContext(ctx, "reading selected category failed",
			slog.Any("error", domain.NewStorageError("read", ports.SlotLastSelectedCategory, err)),
		)
	}

	f.mu.Lock()
	f.current = category
	f.mu.Unlock()

	return category
}

// Get returns the active selection.
func (f *FilterState) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.current
}

// Set changes the selection and persists it. The new value is kept in memory
// even when persisting fails.
func (f *FilterState) Set(ctx context.Context, category string) (string, error) {
	category = normalizeCategory(category)

	f.mu.Lock()
	f.current = category
	f.mu.Unlock()

	if err := f.durable.Set(ctx, ports.SlotLastSelectedCategory, []byte(category)); err != nil {
		if !domain.IsStorage(err) {
			err = domain.NewStorageError("write", ports.SlotLastSelectedCategory, err)
		}

		return category, err
	}

	return category, nil
}

// Predicate returns the match function for the active selection,
// or nil when every quote matches.
func (f *FilterState) Predicate() func(domain.Quote) bool {
	category := f.Get()
	if category == domain.AllCategories {
		return nil
	}

	return func(q domain.Quote) bool {
		return q.InCategory(category)
	}
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.AllCategories
	}

	return category
}
