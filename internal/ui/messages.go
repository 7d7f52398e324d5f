package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/planner/internal/planner"
)

// View represents the current active view
type View int

const (
	ViewTasks View = iota
	ViewBoard
	ViewStats
	viewCount
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewTasks:
		return "Tasks"
	case ViewBoard:
		return "Board"
	case ViewStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

// ParseView maps a --view flag value to a View
func ParseView(name string) (View, bool) {
	switch name {
	case "", "tasks", "list":
		return ViewTasks, true
	case "board", "kanban":
		return ViewBoard, true
	case "stats":
		return ViewStats, true
	}
	return ViewTasks, false
}

// tickMsg reloads the current view so relative deadlines follow the clock
type tickMsg time.Time

// refreshInterval is how often the dashboard reloads on its own
const refreshInterval = time.Minute

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// resyncDoneMsg reports a calendar resync started from the dashboard
type resyncDoneMsg struct {
	res planner.ResyncResult
	err error
}
