package app

import (
	"slices"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Categories returns the distinct categories of quotes in first-seen order.
func Categories(quotes []domain.Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// CategoryIndex remembers the last computed category list so callers can
// tell when the list presented to the user has to be redrawn.
type CategoryIndex struct {
	mu      sync.RWMutex
	current []string
}

// NewCategoryIndex creates an empty index.
func NewCategoryIndex() *CategoryIndex {
	return &CategoryIndex{current: []string{}}
}

// Refresh recomputes the list from quotes and reports whether it changed.
func (c *CategoryIndex) Refresh(quotes []domain.Quote) ([]string, bool) {
	return c.RefreshFrom(func() []domain.Quote { return quotes })
}

// RefreshFrom is Refresh over snapshot(), taken while the index is locked.
// Concurrent callers therefore apply their snapshots in the order they were
// taken, and the last one to finish never leaves an older list behind.
func (c *CategoryIndex) RefreshFrom(snapshot func() []domain.Quote) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Categories(snapshot())

	changed := !slices.Equal(c.current, next)
	c.current = next

	return slices.Clone(next), changed
}

// Current returns a copy of the last computed list.
func (c *CategoryIndex) Current() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.current)
}

// Contains reports whether category is in the last computed list.
func (c *CategoryIndex) Contains(category string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Contains(c.current, category)
}
