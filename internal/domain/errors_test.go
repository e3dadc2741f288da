package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrStorage,
		ErrParse,
		ErrSync,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		expectedMsg string
	}{
		{
			name:        "with entity and ID",
			entity:      "quote",
			id:          "Motivation",
			expectedMsg: `quote "Motivation" not found`,
		},
		{
			name:        "with entity only",
			entity:      "quote",
			id:          "",
			expectedMsg: "quote not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.id)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)

			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.entity, notFound.Entity)
			assert.Equal(t, tt.id, notFound.ID)
		})
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("sync", "already running")

	assert.Equal(t, "sync conflict: already running", err.Error())
	require.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsConflict(err))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		message     string
		expectedMsg string
	}{
		{
			name:        "with field",
			field:       "text",
			message:     "must not be empty",
			expectedMsg: "validation failed for text: must not be empty",
		},
		{
			name:        "without field",
			field:       "",
			message:     "bad input",
			expectedMsg: "validation failed: bad input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrValidation)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write", "quotes", cause)

	assert.Equal(t, `storage write "quotes": disk full`, err.Error())
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsStorage(err))

	bare := NewStorageError("read", "quotes", nil)
	assert.Equal(t, `storage read "quotes" failed`, bare.Error())
	assert.ErrorIs(t, bare, ErrStorage)
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewParseError("import", "not a JSON array", cause)

	assert.Equal(t, "parse import: not a JSON array: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsSync(err))
}

func TestSyncError(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		err := NewSyncError("remote-quotes", "HTTP 503")

		assert.Equal(t, `sync with "remote-quotes" failed: HTTP 503`, err.Error())
		assert.True(t, IsSync(err))
		assert.False(t, IsParse(err))
	})

	t.Run("wrapping a parse error", func(t *testing.T) {
		err := NewSyncErrorWithCause("remote-quotes", "malformed payload",
			NewParseError("remote", "not a JSON array", nil))

		assert.True(t, IsSync(err))
		assert.True(t, IsParse(err))

		var syncErr *SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.Equal(t, "malformed payload", syncErr.Reason)
	})

	t.Run("without service", func(t *testing.T) {
		err := NewSyncError("", "offline")
		assert.Equal(t, "sync failed: offline", err.Error())
	})
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NewNotFoundError("quote", ""), IsNotFound, true},
		{"conflict", NewConflictError("sync", "busy"), IsConflict, true},
		{"validation", NewValidationError("text", "empty"), IsValidation, true},
		{"storage", NewStorageError("write", "quotes", nil), IsStorage, true},
		{"parse", NewParseError("import", "bad", nil), IsParse, true},
		{"sync", NewSyncError("remote", "down"), IsSync, true},
		{"validation is not storage", NewValidationError("text", "empty"), IsStorage, false},
		{"nil is nothing", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestErrorWrappingChain(t *testing.T) {
	base := NewValidationError("category", "must not be empty")
	wrapped := fmt.Errorf("adding quote: %w", base)

	assert.True(t, IsValidation(wrapped))

	var validationErr *ValidationError
	require.ErrorAs(t, wrapped, &validationErr)
	assert.Equal(t, "category", validationErr.Field)
}
