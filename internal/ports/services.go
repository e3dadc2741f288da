// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrSync, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Well-known storage slots.
const (
	// SlotQuotes holds the JSON array of all quotes (durable).
	SlotQuotes = "quotes"

	// SlotLastSelectedCategory holds the active filter as a plain string (durable).
	SlotLastSelectedCategory = "lastSelectedCategory"

	// SlotLastViewedQuote holds the last displayed quote as JSON (session).
	SlotLastViewedQuote = "lastViewedQuote"
)

// KeyValueStore is a string-keyed slot store.
// The durable store survives restarts; the session store lives as long as the process.
//
// Example usage in application layer:
//
//	raw, err := store.Get(ctx, ports.SlotQuotes)
//	if domain.IsNotFound(err) {
//	    return domain.SeedQuotes()
//	}
type KeyValueStore interface {
	// Get returns the raw value of a slot.
	// Returns domain.ErrNotFound if the slot has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value of a slot.
	// Returns a domain.StorageError when the write fails.
	Set(ctx context.Context, key string, value []byte) error
}

// QuoteSource is the remote quote feed.
// Adapters translate the remote record format into domain quotes.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map transport and decode failures to domain.SyncError
//   - Drop records that cannot become valid quotes
type QuoteSource interface {
	// FetchQuotes retrieves the remote collection, already projected to quotes.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PushQuotes sends local quotes to the remote. The response is not interpreted.
	PushQuotes(ctx context.Context, quotes []domain.Quote) error
}

// EventPublisher defines the contract for publishing presentation events.
// Implementations may fan out to SSE streams, terminals, or message buses.
type EventPublisher interface {
	// Publish sends an event to every current subscriber.
	// Publishing never blocks on a slow subscriber.
	Publish(ctx context.Context, event Event) error
}

// Event represents a domain event that can be published.
type Event interface {
	// EventType returns the type identifier for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}
