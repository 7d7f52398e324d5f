// Package calendar propagates task changes to an external calendar.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/dori/planner/internal/model"
)

var (
	// ErrNotFound is returned when the referenced event no longer exists
	ErrNotFound = errors.New("calendar event not found")
	// ErrNoDeadline is returned for tasks that cannot be placed on a calendar
	ErrNoDeadline = errors.New("task has no deadline")
)

// Adapter is a one-way sync target for tasks. Implementations must treat
// deleting an event that is already gone as success.
type Adapter interface {
	// Available reports whether the adapter is usable right now
	Available() bool
	CreateEvent(ctx context.Context, task *model.Task) (string, error)
	UpdateEvent(ctx context.Context, eventID string, task *model.Task) error
	DeleteEvent(ctx context.Context, eventID string) error
	ListUpcoming(ctx context.Context, limit int) ([]Event, error)
}

// Event is a calendar entry as shown to the user
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	AllDay  bool
	Link    string
	// TaskID is the task the event was created for, or 0
	TaskID int64
}
