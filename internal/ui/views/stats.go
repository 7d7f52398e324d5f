package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/stats"
	"github.com/dori/planner/internal/ui/theme"
)

type statsLoadedMsg struct {
	stats    stats.Statistics
	upcoming []model.Task
	projects []model.Project
	err      error
}

// StatsView represents the statistics view
type StatsView struct {
	svc    Service
	width  int
	height int

	stats    stats.Statistics
	upcoming []model.Task
	projects []model.Project
	today    model.Date
}

// NewStatsView creates a new stats view
func NewStatsView(svc Service) StatsView {
	return StatsView{svc: svc, today: svc.Today()}
}

// Init initializes the stats view
func (v StatsView) Init() tea.Cmd {
	return v.loadStats()
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode returns whether the view is in input mode
func (v StatsView) IsInputMode() bool {
	return false
}

// Statistics returns the loaded counts
func (v StatsView) Statistics() stats.Statistics {
	return v.stats
}

func (v StatsView) loadStats() tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		s, err := svc.Statistics(ctx, model.Filter{})
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		upcoming, err := svc.Upcoming(ctx)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		projects, err := svc.ListProjects(ctx)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		return statsLoadedMsg{stats: s, upcoming: upcoming, projects: projects}
	}
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.err != nil {
			err := msg.err
			return v, func() tea.Msg { return ErrorMsg{Err: err} }
		}
		v.stats = msg.stats
		v.upcoming = msg.upcoming
		v.projects = msg.projects
		v.today = v.svc.Today()
		return v, nil

	case TaskChangedMsg:
		return v, v.loadStats()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return v, v.loadStats()
		}
	}

	return v, nil
}

// View renders the stats view
func (v StatsView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render(fmt.Sprintf("Statistics ─ %s", v.today)))
	sections = append(sections, "")

	// Summary cards (side by side)
	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(16)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	card := func(color lipgloss.Color, value int, label string) string {
		return cardStyle.Render(
			lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%d", value)) + "\n" +
				labelStyle.Render(label),
		)
	}

	s := v.stats
	statusRow := lipgloss.JoinHorizontal(lipgloss.Top,
		card(t.Foreground, s.Total, "Total"),
		card(t.StatusPending, s.Pending, "Pending"),
		card(t.StatusInProgress, s.InProgress, "In progress"),
		card(t.StatusCompleted, s.Completed, "Completed"),
	)
	deadlineRow := lipgloss.JoinHorizontal(lipgloss.Top,
		card(t.UrgencyOverdue, s.Overdue, stats.IconOverdue+" Overdue"),
		card(t.UrgencyToday, s.DueToday, stats.IconToday+" Due today"),
		card(t.UrgencySoon, s.DueTomorrow, stats.IconWarning+" Tomorrow"),
	)
	sections = append(sections, statusRow, deadlineRow, "")

	sections = append(sections, v.renderCompletion(), "")
	sections = append(sections, v.renderUpcoming(), "")

	if len(v.projects) > 0 {
		sections = append(sections, v.renderProjects())
	}

	return strings.Join(sections, "\n")
}

func (v StatsView) renderCompletion() string {
	t := theme.Current.Theme

	barWidth := 40
	rate := v.stats.CompletionRate()
	filled := min(max(int(rate*float64(barWidth)/100), 0), barWidth)
	bar := lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.Subtle).Render(strings.Repeat("░", barWidth-filled))

	return fmt.Sprintf("%s %s %.0f%%",
		lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Render("Done"),
		bar, rate)
}

// renderUpcoming lists open tasks due within the next week
func (v StatsView) renderUpcoming() string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	lines := []string{headerStyle.Render("Upcoming (7 days)")}

	if len(v.upcoming) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render("  nothing due"))
		return strings.Join(lines, "\n")
	}

	for i := range v.upcoming {
		task := &v.upcoming[i]
		u := stats.ClassifyTask(task, v.today)
		due := lipgloss.NewStyle().Foreground(t.UrgencyColor(u)).Width(14).
			Render(model.FormatDue(*task.Deadline, v.today))
		lines = append(lines, fmt.Sprintf("  %s %s %s", u.Icon, due, truncate(task.Title, v.width-24)))
	}
	return strings.Join(lines, "\n")
}

// renderProjects renders completion per project
func (v StatsView) renderProjects() string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	lines := []string{headerStyle.Render("Projects")}

	// Find max for bar scaling
	maxCount := 1
	for _, p := range v.projects {
		maxCount = max(maxCount, p.TaskCount)
	}

	barMaxWidth := 30
	for _, p := range v.projects {
		total := p.TaskCount * barMaxWidth / maxCount
		done := 0
		if p.TaskCount > 0 {
			done = p.CompletedCount * total / p.TaskCount
		}

		bar := lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", done)) +
			lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("█", total-done))

		lines = append(lines, fmt.Sprintf("%-15s %s %d/%d",
			truncate(p.Name, 15), bar, p.CompletedCount, p.TaskCount))
	}

	return strings.Join(lines, "\n")
}
