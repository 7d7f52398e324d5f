// Package stats derives counts and urgency labels from a loaded task set.
// Every function here is pure: it reads the tasks it is given and the caller's today.
package stats

import (
	"github.com/dori/planner/internal/model"
)

// Statistics summarizes a task set
type Statistics struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	InProgress  int `json:"in_progress"`
	Completed   int `json:"completed"`
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueTomorrow int `json:"due_tomorrow"`
}

// Compute counts tasks by status and deadline relative to today.
//
// Pending, InProgress and Completed partition Total. A row still carrying the
// legacy overdue literal is counted as pending there and as overdue below.
// DueToday and DueTomorrow ignore status, so completed tasks count too.
func Compute(tasks []model.Task, today model.Date) Statistics {
	s := Statistics{Total: len(tasks)}
	tomorrow := today.AddDays(1)

	for i := range tasks {
		t := &tasks[i]

		switch t.Status {
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusCompleted:
			s.Completed++
		default:
			s.Pending++
		}

		if t.IsOverdue(today) {
			s.Overdue++
		}
		if t.IsDueOn(today) {
			s.DueToday++
		}
		if t.IsDueOn(tomorrow) {
			s.DueTomorrow++
		}
	}

	return s
}

// CompletionRate returns completed tasks as a percentage of the total
func (s Statistics) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) * 100 / float64(s.Total)
}
