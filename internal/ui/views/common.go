package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/planner"
	"github.com/dori/planner/internal/stats"
)

// Service is what the dashboard needs from the planner. *planner.Service implements it.
type Service interface {
	Today() model.Date
	ListTasks(ctx context.Context, f model.Filter) ([]model.Task, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	Statistics(ctx context.Context, f model.Filter) (stats.Statistics, error)
	Upcoming(ctx context.Context) ([]model.Task, error)
	Board(ctx context.Context, f model.Filter) ([]stats.Column, error)

	Create(ctx context.Context, in planner.NewTask) (planner.CreateResult, error)
	UpdateFields(ctx context.Context, id int64, patch model.TaskPatch) (planner.SyncResult, error)
	SetStatus(ctx context.Context, id int64, status model.Status) (planner.SyncResult, error)
	Delete(ctx context.Context, id int64) (planner.SyncResult, error)
}

// opTimeout bounds each store call made from the dashboard
const opTimeout = 10 * time.Second

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// TaskChangedMsg is sent after any write from a view; every view reloads on it
type TaskChangedMsg struct {
	Message string
	Sync    planner.SyncResult
	Err     error
}

// ErrorMsg asks the root model to show an error
type ErrorMsg struct {
	Err error
}

// StatusMsg asks the root model to show a status line
type StatusMsg struct {
	Message string
}

// changed builds the message for a finished write
func changed(message string, res planner.SyncResult, err error) tea.Msg {
	if err != nil {
		return TaskChangedMsg{Err: err}
	}
	if res.Failed() {
		message += " (calendar sync pending)"
	}
	return TaskChangedMsg{Message: message, Sync: res}
}

func setStatusCmd(svc Service, t model.Task, status model.Status) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		res, err := svc.SetStatus(ctx, t.ID, status)
		return changed(fmt.Sprintf("#%d %s", t.ID, strings.ToLower(status.Label())), res, err)
	}
}

// nextStatus cycles pending, in progress, completed
func nextStatus(s model.Status) model.Status {
	switch s {
	case model.StatusInProgress:
		return model.StatusCompleted
	case model.StatusCompleted:
		return model.StatusPending
	default:
		return model.StatusInProgress
	}
}

// quickAdd parses "title due:friday #3" into a new task.
// Tokens that do not parse stay part of the title.
func quickAdd(text string, today model.Date) planner.NewTask {
	var in planner.NewTask
	var titleParts []string

	for _, word := range strings.Fields(text) {
		switch {
		// Due date (due:tomorrow, due:friday, due:2026-01-15)
		case strings.HasPrefix(strings.ToLower(word), "due:"):
			if d, err := model.ParseDue(word[len("due:"):], today); err == nil {
				in.Deadline = &d
				continue
			}

		// Project (#3)
		case strings.HasPrefix(word, "#") && len(word) > 1:
			if id, err := strconv.ParseInt(word[1:], 10, 64); err == nil && id > 0 {
				in.ProjectID = &id
				continue
			}
		}
		titleParts = append(titleParts, word)
	}

	in.Title = strings.Join(titleParts, " ")
	return in
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
