package planner

import (
	"errors"
	"fmt"

	"github.com/dori/planner/internal/db"
)

var (
	// ErrNotFound is returned when a referenced task or project does not exist
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks store failures; the store wraps it into every
	// connection and query error.
	ErrStoreUnavailable = db.ErrUnavailable

	// ErrCalendarUnavailable is reported when a configured calendar cannot be used
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrCalendarDisabled is returned by calendar-only operations when no calendar is configured
	ErrCalendarDisabled = errors.New("calendar sync is not configured")
)

// ValidationError reports caller data that breaks a field contract
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// SyncError is a failed calendar call. The local write it accompanied stands.
type SyncError struct {
	Op     string
	TaskID int64
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar: %s event for task %d: %v", e.Op, e.TaskID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// SyncResult describes the calendar side of a write
type SyncResult struct {
	// Attempted is set when a calendar call was made
	Attempted bool
	// EventID is the task's event reference after the write
	EventID string
	// Err is a *SyncError when the calendar side could not be brought up to date
	Err error
}

// Failed reports whether the calendar side is behind the store
func (r SyncResult) Failed() bool {
	return r.Err != nil
}

// CreateResult is the outcome of Create
type CreateResult struct {
	ID   int64
	Sync SyncResult
}

// PurgeResult is the outcome of PurgeCompleted
type PurgeResult struct {
	Deleted int64
	// SyncErr combines the calendar deletions that failed
	SyncErr error
}

// ResyncResult is the outcome of ResyncPending
type ResyncResult struct {
	Synced int
	Failed int
	Err    error
}
