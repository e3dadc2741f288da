package domain

import "fmt"

// Event type identifiers used for routing by presentation adapters.
const (
	EventQuoteSelected       = "quote.selected"
	EventCategoryListChanged = "categories.changed"
	EventSyncStatus          = "sync.status"
)

// StatusLevel is the severity of a SyncStatus notice.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
)

// QuoteSelected announces the quote the presentation should display.
type QuoteSelected struct {
	Quote Quote `json:"quote"`
}

// EventType implements ports.Event.
func (QuoteSelected) EventType() string { return EventQuoteSelected }

// Payload implements ports.Event.
func (e QuoteSelected) Payload() any { return e }

// CategoryListChanged carries the full, ordered category list.
// The AllCategories sentinel is not included.
type CategoryListChanged struct {
	Categories []string `json:"categories"`
}

// EventType implements ports.Event.
func (CategoryListChanged) EventType() string { return EventCategoryListChanged }

// Payload implements ports.Event.
func (e CategoryListChanged) Payload() any { return e }

// SyncStatus is a transient, user-visible notice about sync, import or persistence.
type SyncStatus struct {
	Message string      `json:"message"`
	Level   StatusLevel `json:"level"`
}

// EventType implements ports.Event.
func (SyncStatus) EventType() string { return EventSyncStatus }

// Payload implements ports.Event.
func (e SyncStatus) Payload() any { return e }

// SyncedStatus reports the outcome of a successful reconciliation.
func SyncedStatus(added int) SyncStatus {
	if added == 0 {
		return SyncStatus{Message: "Quotes are up to date.", Level: StatusInfo}
	}

	return SyncStatus{
		Message: fmt.Sprintf("Synced: %d new quote(s) added.", added),
		Level:   StatusInfo,
	}
}

// SyncFailedStatus reports a failed reconciliation or push.
func SyncFailedStatus(reason string) SyncStatus {
	return SyncStatus{Message: "Sync failed: " + reason, Level: StatusError}
}
