package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/dori/planner/internal/model"
)

// taskIDProperty is the private extended property holding the task id
const taskIDProperty = "planner_task_id"

// eventFromTask builds an all-day event on the task's deadline
func eventFromTask(task *model.Task, today model.Date) (*gcal.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil task")
	}
	if task.Deadline == nil {
		return nil, fmt.Errorf("task %d: %w", task.ID, ErrNoDeadline)
	}

	deadline := *task.Deadline
	return &gcal.Event{
		Summary:     summaryFor(task, today),
		Description: descriptionFor(task),
		Start:       &gcal.EventDateTime{Date: deadline.String()},
		// the end date of an all-day event is exclusive
		End: &gcal.EventDateTime{Date: deadline.AddDays(1).String()},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{
				taskIDProperty: strconv.FormatInt(task.ID, 10),
			},
		},
	}, nil
}

func summaryFor(task *model.Task, today model.Date) string {
	prefix := ""
	switch {
	case task.IsCompleted():
		prefix = "✓"
	case task.IsOverdue(today):
		prefix = "!"
	case task.Status == model.StatusInProgress:
		prefix = "‣"
	}

	if prefix == "" {
		return task.Title
	}
	return prefix + " " + task.Title
}

func descriptionFor(task *model.Task) string {
	var b strings.Builder
	if task.Description != nil {
		b.WriteString(*task.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Status: %s\n", task.Status.Label())
	if task.ProjectName != nil {
		fmt.Fprintf(&b, "Project: %s\n", *task.ProjectName)
	}
	fmt.Fprintf(&b, "Task: #%d\n", task.ID)
	return b.String()
}

// eventFromAPI converts an API event for display
func eventFromAPI(e *gcal.Event) Event {
	ev := Event{
		ID:      e.Id,
		Summary: e.Summary,
		Link:    e.HtmlLink,
	}

	if e.Start != nil {
		if e.Start.Date != "" {
			if d, err := model.ParseDate(e.Start.Date); err == nil {
				ev.Start = d.Time()
				ev.AllDay = true
			}
		} else if t, err := time.Parse(time.RFC3339, e.Start.DateTime); err == nil {
			ev.Start = t
		}
	}

	if e.ExtendedProperties != nil {
		if raw, ok := e.ExtendedProperties.Private[taskIDProperty]; ok {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				ev.TaskID = id
			}
		}
	}

	return ev
}
