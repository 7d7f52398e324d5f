package model

import (
	"fmt"
	"strconv"
)

// StatusFilter restricts a task listing by status
type StatusFilter string

const (
	StatusAll            StatusFilter = "all"
	StatusOnlyPending    StatusFilter = "pending"
	StatusOnlyInProgress StatusFilter = "in_progress"
	StatusOnlyCompleted  StatusFilter = "completed"

	// StatusOnlyOverdue is derived: deadline < today and not completed
	StatusOnlyOverdue StatusFilter = "overdue"
)

// ParseStatusFilter parses a status filter name; empty means all
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusOnlyPending, StatusOnlyInProgress, StatusOnlyCompleted, StatusOnlyOverdue:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// DeadlineBucket restricts a task listing to a relative date range
type DeadlineBucket string

const (
	BucketNone      DeadlineBucket = ""
	BucketToday     DeadlineBucket = "today"
	BucketTomorrow  DeadlineBucket = "tomorrow"
	BucketNext3Days DeadlineBucket = "next_3_days"
	BucketNextWeek  DeadlineBucket = "next_week"
	BucketOverdue   DeadlineBucket = "overdue"
)

// ParseDeadlineBucket parses a bucket name; empty and "none" mean no bucket
func ParseDeadlineBucket(s string) (DeadlineBucket, error) {
	switch b := DeadlineBucket(s); b {
	case BucketNone, "none":
		return BucketNone, nil
	case BucketToday, BucketTomorrow, BucketNext3Days, BucketNextWeek, BucketOverdue:
		return b, nil
	}
	return "", fmt.Errorf("unknown deadline bucket %q", s)
}

// Filter selects tasks for a listing. The zero value matches every task of the owner.
type Filter struct {
	ProjectID *int64
	Status    StatusFilter
	Deadline  DeadlineBucket
}

// Key returns a stable cache key for f
func (f Filter) Key() string {
	project := "all"
	if f.ProjectID != nil {
		project = strconv.FormatInt(*f.ProjectID, 10)
	}
	status := f.Status
	if status == "" {
		status = StatusAll
	}
	bucket := f.Deadline
	if bucket == BucketNone {
		bucket = "none"
	}
	return fmt.Sprintf("project=%s|status=%s|deadline=%s", project, status, bucket)
}
