// Package ui is the terminal dashboard: a task list, a status board and a
// statistics page over the planner service.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/planner/internal/planner"
	"github.com/dori/planner/internal/ui/theme"
	"github.com/dori/planner/internal/ui/views"
)

// Service is what the dashboard needs from the planner
type Service interface {
	views.Service
	CalendarEnabled() bool
	ResyncPending(ctx context.Context) (planner.ResyncResult, error)
}

// RootModel is the main application model that manages views
type RootModel struct {
	svc    Service
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	tasksView   views.TasksView
	boardView   views.BoardView
	statsView   views.StatsView
	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(svc Service, start View) RootModel {
	h := help.New()
	h.ShowAll = false

	return RootModel{
		svc:         svc,
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: start,
		tasksView:   views.NewTasksView(svc),
		boardView:   views.NewBoardView(svc),
		statsView:   views.NewStatsView(svc),
	}
}

// CurrentView returns the active view
func (m RootModel) CurrentView() View {
	return m.currentView
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.initView(), tick())
}

func (m RootModel) initView() tea.Cmd {
	switch m.currentView {
	case ViewBoard:
		return m.boardView.Init()
	case ViewStats:
		return m.statsView.Init()
	default:
		return m.tasksView.Init()
	}
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewTasks:
		return m.tasksView.IsInputMode()
	case ViewBoard:
		return m.boardView.IsInputMode()
	case ViewStats:
		return m.statsView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (1 line) and footer (3 lines)
		contentHeight := m.height - 4
		m.tasksView = m.tasksView.SetSize(m.width, contentHeight)
		m.boardView = m.boardView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := m.isInputMode()

		// Global keybindings
		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		if isInputMode {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = !m.helpVisible
			m.help.ShowAll = m.helpVisible
			return m, nil

		case key.Matches(msg, m.keys.TasksView):
			return m.switchTo(ViewTasks)
		case key.Matches(msg, m.keys.BoardView):
			return m.switchTo(ViewBoard)
		case key.Matches(msg, m.keys.StatsView):
			return m.switchTo(ViewStats)
		case key.Matches(msg, m.keys.NextView):
			return m.switchTo((m.currentView + 1) % viewCount)

		case key.Matches(msg, m.keys.Refresh):
			return m, m.initView()

		case key.Matches(msg, m.keys.Sync):
			if !m.svc.CalendarEnabled() {
				m.errorMsg = planner.ErrCalendarDisabled.Error()
				return m, nil
			}
			m.statusMsg = "Resyncing calendar..."
			return m, m.resync()
		}

	case tickMsg:
		return m, tea.Batch(m.initView(), tick())

	case resyncDoneMsg:
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Calendar: %d synced, %d still pending", msg.res.Synced, msg.res.Failed)
		return m, m.initView()

	case views.ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case views.StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case views.TaskChangedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		} else {
			m.statusMsg = msg.Message
		}
		// every view reloads; only the visible one is on screen
		var cmds []tea.Cmd
		var cmd tea.Cmd
		var updated tea.Model

		updated, cmd = m.tasksView.Update(msg)
		m.tasksView = updated.(views.TasksView)
		cmds = append(cmds, cmd)
		updated, cmd = m.boardView.Update(msg)
		m.boardView = updated.(views.BoardView)
		cmds = append(cmds, cmd)
		updated, cmd = m.statsView.Update(msg)
		m.statsView = updated.(views.StatsView)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTasks:
		var updated tea.Model
		updated, cmd = m.tasksView.Update(msg)
		m.tasksView = updated.(views.TasksView)
	case ViewBoard:
		var updated tea.Model
		updated, cmd = m.boardView.Update(msg)
		m.boardView = updated.(views.BoardView)
	case ViewStats:
		var updated tea.Model
		updated, cmd = m.statsView.Update(msg)
		m.statsView = updated.(views.StatsView)
	}

	return m, cmd
}

func (m RootModel) switchTo(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.helpVisible = false
	return m, m.initView()
}

func (m RootModel) resync() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res, err := svc.ResyncPending(context.Background())
		return resyncDoneMsg{res: res, err: err}
	}
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewTasks:
			content = m.tasksView.View()
		case ViewBoard:
			content = m.boardView.View()
		case ViewStats:
			content = m.statsView.View()
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("planner")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)

	var tabs []string
	for v := ViewTasks; v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", int(v)+1, v)
		if v == m.currentView {
			tabs = append(tabs, lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Padding(0, 1).Render(label))
		} else {
			tabs = append(tabs, viewStyle.Render(label))
		}
	}

	right := fmt.Sprintf("theme: %s", t.Name)
	if m.svc.CalendarEnabled() {
		right = "calendar · " + right
	}
	rightSide := viewStyle.Render(right)

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, append([]string{title}, tabs...)...)
	gap := max(m.width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 0)

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var statusLine string
	if m.errorMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	}

	var line1, line2 string
	switch m.currentView {
	case ViewTasks:
		if m.tasksView.IsInputMode() {
			line1 = key("enter", "confirm") + sep + key("esc", "cancel")
		} else {
			line1 = key("a", "add") + sep +
				key("r", "rename") + sep +
				key("e", "deadline") + sep +
				key("tab", "done") + sep +
				key("s", "status") + sep +
				key("d", "del")
			line2 = key("f", "status filter") + sep +
				key("b", "due filter") + sep +
				key("p", "project") + sep +
				key("c", "clear") + sep +
				key("1-3", "views") + sep +
				key("?", "help")
		}

	case ViewBoard:
		line1 = key("h/l", "columns") + sep +
			key("j/k", "navigate") + sep +
			key("H/L", "move task") + sep +
			key("enter", "toggle done")
		line2 = key("1-3", "views") + sep +
			key("ctrl+t", "theme") + sep +
			key("?", "help")

	case ViewStats:
		line1 = key("r", "refresh")
		line2 = key("1-3", "views") + sep +
			key("ctrl+t", "theme") + sep +
			key("?", "help")
	}

	var lines []string
	if statusLine != "" {
		lines = append(lines, statusLine)
	}
	if line1 != "" {
		lines = append(lines, line1)
	}
	if line2 != "" {
		lines = append(lines, line2)
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Planner Help"))
	b.WriteString("\n\n")

	sections := []struct {
		name string
		keys [][]string
	}{
		{"Tasks", [][]string{
			{"a", "Add task (title due:friday #project-id)"},
			{"r", "Rename task"},
			{"e", "Set or clear deadline"},
			{"tab", "Toggle done/pending"},
			{"s", "Cycle status"},
			{"d", "Delete task and its calendar event"},
			{"f / b / p", "Cycle status, deadline and project filters"},
			{"c", "Clear filters"},
		}},
		{"Board", [][]string{
			{"h/l j/k", "Move between cards"},
			{"H / L", "Move task to previous/next status"},
		}},
		{"System", [][]string{
			{"1-3", "Switch views"},
			{"ctrl+r", "Reload"},
			{"ctrl+s", "Retry pending calendar sync"},
			{"ctrl+t", "Cycle theme"},
			{"q / ctrl+c", "Quit"},
		}},
	}

	for _, s := range sections {
		b.WriteString(sectionStyle.Render(s.name))
		b.WriteString("\n")
		for _, kv := range s.keys {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press ? to close"))

	return b.String()
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	themes := theme.Available()
	current := theme.Current.Theme.Name

	for i, t := range themes {
		if t.Name == current {
			next := themes[(i+1)%len(themes)]
			theme.SetTheme(next)
			m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
			return
		}
	}
}
