package model

import (
	"time"
)

// Status represents the stored state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// StatusOverdue is a display label. Older rows may still carry it as a
	// stored literal; it is accepted on read and never written.
	StatusOverdue Status = "overdue"
)

// Statuses lists the writable statuses in canonical order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s may be written to the store
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Rank returns the canonical sort position of s
// (pending < overdue < in_progress < completed).
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusOverdue:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 4
	}
}

// Label returns the human readable name of s
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In progress"
	case StatusCompleted:
		return "Completed"
	case StatusOverdue:
		return "Overdue"
	default:
		return string(s)
	}
}

// Task represents a tracked unit of work
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Deadline    *Date      `json:"deadline,omitempty"`
	Status      Status     `json:"status"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ExternalEventID correlates the task with a calendar event
	ExternalEventID *string `json:"external_event_id,omitempty"`
	// SyncPending is set when a calendar call for this task failed
	SyncPending bool `json:"sync_pending"`

	// Loaded with the task (not stored in tasks table)
	ProjectName *string `json:"project_name,omitempty"`
}

// IsCompleted returns true if the task is done
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsOverdue returns true if the deadline is before today and the task is not completed.
// A legacy stored overdue label also counts.
func (t *Task) IsOverdue(today Date) bool {
	if t.Status == StatusOverdue {
		return true
	}
	if t.Deadline == nil || t.IsCompleted() {
		return false
	}
	return t.Deadline.Before(today)
}

// IsDueOn returns true if the deadline falls on day
func (t *Task) IsDueOn(day Date) bool {
	return t.Deadline != nil && t.Deadline.Equal(day)
}

// DaysLeft returns the whole days from today to the deadline
func (t *Task) DaysLeft(today Date) (int, bool) {
	if t.Deadline == nil {
		return 0, false
	}
	return today.DaysUntil(*t.Deadline), true
}

// IsSynced returns true if the task has a calendar event
func (t *Task) IsSynced() bool {
	return t.ExternalEventID != nil
}
