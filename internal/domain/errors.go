// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/CLI output by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates no quote matched the request.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state conflict such as a sync already in flight.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates user input failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates the durable or session store could not be read or written.
	ErrStorage = errors.New("storage failure")

	// ErrParse indicates a payload was not valid quote JSON.
	ErrParse = errors.New("parse failure")

	// ErrSync indicates the remote quote source could not be reconciled.
	ErrSync = errors.New("sync failed")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity string
	Reason string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError reports a failed read or write of a storage slot.
// The in-memory state is kept when a write fails.
type StorageError struct {
	Op    string // "read" or "write"
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
	}

	return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
}

// Unwrap returns the sentinel and the cause for errors.Is() support.
func (e *StorageError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStorage}
	}

	return []error{ErrStorage, e.Cause}
}

// NewStorageError creates a storage error for the given operation and key.
func NewStorageError(op, key string, cause error) error {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// ParseError reports a payload that could not be decoded into quotes.
type ParseError struct {
	Source string // e.g. "import", "remote", "storage"
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Source, e.Reason, e.Cause)
	}

	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

// Unwrap returns the sentinel and the cause for errors.Is() support.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParse}
	}

	return []error{ErrParse, e.Cause}
}

// NewParseError creates a parse error with context.
func NewParseError(source, reason string, cause error) error {
	return &ParseError{Source: source, Reason: reason, Cause: cause}
}

// SyncError reports a failed exchange with the remote quote source.
// It is transient: the next scheduled run retries.
type SyncError struct {
	Service string
	Reason  string
	Cause   error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("sync with %q failed: %s", e.Service, e.Reason)
	}

	return "sync failed: " + e.Reason
}

// Unwrap returns the sentinel and the cause, so a malformed remote payload
// satisfies both errors.Is(err, ErrSync) and errors.Is(err, ErrParse).
func (e *SyncError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSync}
	}

	return []error{ErrSync, e.Cause}
}

// NewSyncError creates a sync error with context.
func NewSyncError(service, reason string) error {
	return &SyncError{Service: service, Reason: reason}
}

// NewSyncErrorWithCause creates a sync error wrapping an underlying failure.
func NewSyncErrorWithCause(service, reason string, cause error) error {
	return &SyncError{Service: service, Reason: reason, Cause: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsSync checks if an error is a sync error.
func IsSync(err error) bool {
	return errors.Is(err, ErrSync)
}
