package stats

import (
	"testing"
	"time"

	"github.com/dori/planner/internal/model"
)

var today = model.NewDate(2026, time.October, 17)

func due(offset int) *model.Date {
	d := today.AddDays(offset)
	return &d
}

func task(id int64, deadline *model.Date, status model.Status) model.Task {
	return model.Task{ID: id, Title: "task", Deadline: deadline, Status: status}
}

func TestComputeScenario(t *testing.T) {
	tasks := []model.Task{
		task(1, due(-1), model.StatusPending),
		task(2, due(0), model.StatusInProgress),
		task(3, due(1), model.StatusCompleted),
		task(4, nil, model.StatusPending),
	}

	got := Compute(tasks, today)
	want := Statistics{
		Total:       4,
		Pending:     2,
		InProgress:  1,
		Completed:   1,
		Overdue:     1,
		DueToday:    1,
		DueTomorrow: 1,
	}
	if got != want {
		t.Errorf("Compute:\n got %+v\nwant %+v", got, want)
	}
}

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil, today); got != (Statistics{}) {
		t.Errorf("expected zero statistics, got %+v", got)
	}
	if rate := Compute(nil, today).CompletionRate(); rate != 0 {
		t.Errorf("CompletionRate on empty set: %v", rate)
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 2, 50},
		{1, 4, 25},
		{3, 3, 100},
	}
	for _, tt := range tests {
		s := Statistics{Total: tt.total, Completed: tt.completed}
		if got := s.CompletionRate(); got != tt.want {
			t.Errorf("CompletionRate(%d of %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestComputeBucketsSumToTotal(t *testing.T) {
	statuses := []model.Status{model.StatusPending, model.StatusInProgress, model.StatusCompleted, model.StatusOverdue}

	var tasks []model.Task
	for i := 0; i < 40; i++ {
		var deadline *model.Date
		if i%5 != 0 {
			deadline = due(i%9 - 4)
		}
		tasks = append(tasks, task(int64(i), deadline, statuses[i%len(statuses)]))
	}

	s := Compute(tasks, today)
	if s.Total != len(tasks) {
		t.Errorf("Total: got %d, want %d", s.Total, len(tasks))
	}
	if sum := s.Pending + s.InProgress + s.Completed; sum != s.Total {
		t.Errorf("status buckets sum to %d, want %d", sum, s.Total)
	}

	for i := range tasks {
		tk := &tasks[i]
		if tk.Deadline != nil && tk.Deadline.Before(today) && !tk.IsCompleted() {
			if u := ClassifyTask(tk, today); u.Class != ClassUrgent {
				t.Errorf("task %d past deadline classified %q", tk.ID, u.Class)
			}
		}
	}
}

func TestComputeDueCountsIgnoreStatus(t *testing.T) {
	tasks := []model.Task{
		task(1, due(0), model.StatusCompleted),
		task(2, due(1), model.StatusCompleted),
		task(3, due(-3), model.StatusCompleted),
	}

	s := Compute(tasks, today)
	if s.DueToday != 1 || s.DueTomorrow != 1 {
		t.Errorf("due counts: today=%d tomorrow=%d, want 1 and 1", s.DueToday, s.DueTomorrow)
	}
	if s.Overdue != 0 {
		t.Errorf("completed task counted overdue: %d", s.Overdue)
	}
}

func TestComputeLegacyOverdueLiteral(t *testing.T) {
	tasks := []model.Task{task(1, due(5), model.StatusOverdue)}

	s := Compute(tasks, today)
	if s.Overdue != 1 {
		t.Errorf("Overdue: got %d, want 1", s.Overdue)
	}
	if s.Pending != 1 {
		t.Errorf("legacy literal should count as pending, got %+v", s)
	}
}

func TestClassifyDeadline(t *testing.T) {
	tests := []struct {
		name     string
		deadline *model.Date
		class    Class
		icon     string
		label    string
	}{
		{"no deadline", nil, ClassNone, IconNone, "no deadline"},
		{"long overdue", due(-10), ClassUrgent, IconOverdue, "overdue"},
		{"yesterday", due(-1), ClassUrgent, IconOverdue, "overdue"},
		{"today", due(0), ClassUrgent, IconToday, "due today"},
		{"tomorrow", due(1), ClassWarning, IconWarning, "1 day left"},
		{"two days", due(2), ClassWarning, IconWarning, "2 days left"},
		{"three days", due(3), ClassNormal, IconNormal, "3 days left"},
		{"next month", due(30), ClassNormal, IconNormal, "30 days left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ClassifyDeadline(tt.deadline, today)
			if u.Class != tt.class {
				t.Errorf("Class: got %q, want %q", u.Class, tt.class)
			}
			if u.Icon != tt.icon {
				t.Errorf("Icon: got %q, want %q", u.Icon, tt.icon)
			}
			if u.Label != tt.label {
				t.Errorf("Label: got %q, want %q", u.Label, tt.label)
			}
		})
	}
}

func TestClassifyTaskSkipsCompleted(t *testing.T) {
	done := task(1, due(-2), model.StatusCompleted)
	if u := ClassifyTask(&done, today); u.Class != ClassNone {
		t.Errorf("completed task classified %q", u.Class)
	}

	// the board classifies by deadline alone
	if u := ClassifyDeadline(done.Deadline, today); u.Class != ClassUrgent {
		t.Errorf("ClassifyDeadline ignores status, got %q", u.Class)
	}

	legacy := task(2, nil, model.StatusOverdue)
	if u := ClassifyTask(&legacy, today); u.Class != ClassUrgent {
		t.Errorf("legacy overdue without deadline classified %q", u.Class)
	}
}
