package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncedStatus(t *testing.T) {
	tests := []struct {
		name  string
		added int
		want  string
	}{
		{"nothing new", 0, "Quotes are up to date."},
		{"one new", 1, "Synced: 1 new quote(s) added."},
		{"many new", 7, "Synced: 7 new quote(s) added."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := SyncedStatus(tt.added)

			assert.Equal(t, tt.want, status.Message)
			assert.Equal(t, StatusInfo, status.Level)
		})
	}
}

func TestSyncFailedStatus(t *testing.T) {
	status := SyncFailedStatus("HTTP 503")

	assert.Equal(t, "Sync failed: HTTP 503", status.Message)
	assert.Equal(t, StatusError, status.Level)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, EventQuoteSelected, QuoteSelected{}.EventType())
	assert.Equal(t, EventCategoryListChanged, CategoryListChanged{}.EventType())
	assert.Equal(t, EventSyncStatus, SyncStatus{}.EventType())

	selected := QuoteSelected{Quote: Quote{Text: "a", Category: "b"}}
	assert.Equal(t, selected, selected.Payload())
}
