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

type boardLoadedMsg struct {
	columns []stats.Column
	err     error
}

// BoardView shows tasks as status lanes
type BoardView struct {
	svc    Service
	width  int
	height int

	columns []stats.Column
	today   model.Date

	currentColumn int
	cursorRow     int
}

// NewBoardView creates a new board view
func NewBoardView(svc Service) BoardView {
	return BoardView{svc: svc, today: svc.Today()}
}

// Init loads the board
func (v BoardView) Init() tea.Cmd {
	return v.loadBoard()
}

// IsInputMode returns whether the view is in input mode
func (v BoardView) IsInputMode() bool {
	return false
}

// SetSize sets the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	return v
}

func (v BoardView) loadBoard() tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		columns, err := svc.Board(ctx, model.Filter{})
		return boardLoadedMsg{columns: columns, err: err}
	}
}

func (v BoardView) current() (model.Task, bool) {
	if v.currentColumn >= len(v.columns) {
		return model.Task{}, false
	}
	col := v.columns[v.currentColumn]
	if v.cursorRow >= len(col.Tasks) {
		return model.Task{}, false
	}
	return col.Tasks[v.cursorRow], true
}

func (v *BoardView) clampCursor() {
	if len(v.columns) == 0 {
		v.currentColumn, v.cursorRow = 0, 0
		return
	}
	v.currentColumn = min(max(v.currentColumn, 0), len(v.columns)-1)
	n := len(v.columns[v.currentColumn].Tasks)
	v.cursorRow = min(max(v.cursorRow, 0), max(n-1, 0))
}

// Update handles messages
func (v BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.err != nil {
			err := msg.err
			return v, func() tea.Msg { return ErrorMsg{Err: err} }
		}
		v.columns = msg.columns
		v.today = v.svc.Today()
		v.clampCursor()
		return v, nil

	case TaskChangedMsg:
		return v, v.loadBoard()

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			v.currentColumn--
		case "right", "l":
			v.currentColumn++
		case "up", "k":
			v.cursorRow--
		case "down", "j":
			v.cursorRow++
		case "H":
			return v, v.moveTask(-1)
		case "L":
			return v, v.moveTask(1)
		case "enter", "tab":
			if t, ok := v.current(); ok {
				status := model.StatusCompleted
				if t.IsCompleted() {
					status = model.StatusPending
				}
				return v, setStatusCmd(v.svc, t, status)
			}
		}
		v.clampCursor()
	}

	return v, nil
}

// moveTask moves the selected task one stored status left or right.
// The overdue lane is derived, so its tasks move from their stored status.
func (v BoardView) moveTask(dir int) tea.Cmd {
	t, ok := v.current()
	if !ok {
		return nil
	}

	idx := 0
	for i, s := range model.Statuses {
		if s == t.Status {
			idx = i
		}
	}
	idx += dir
	if idx < 0 || idx >= len(model.Statuses) {
		return nil
	}
	return setStatusCmd(v.svc, t, model.Statuses[idx])
}

// View renders the board
func (v BoardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	if len(v.columns) == 0 {
		return theme.Current.Styles.Placeholder.Render("No tasks.")
	}

	t := theme.Current.Theme
	colWidth := max(v.width/len(v.columns)-2, 16)
	cardWidth := colWidth - 4

	rendered := make([]string, 0, len(v.columns))
	for ci, col := range v.columns {
		color := t.StatusColor(col.Status)
		header := lipgloss.NewStyle().Bold(true).Foreground(color).
			Render(fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Tasks)+col.Overflow))

		cards := []string{header}
		for ri := range col.Tasks {
			task := &col.Tasks[ri]
			cards = append(cards, v.renderCard(task, cardWidth, ci == v.currentColumn && ri == v.cursorRow))
		}
		if col.Overflow > 0 {
			cards = append(cards, lipgloss.NewStyle().Foreground(t.Subtle).Render(fmt.Sprintf("+%d more", col.Overflow)))
		}

		border := t.Border
		if ci == v.currentColumn {
			border = color
		}
		rendered = append(rendered, lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(colWidth).
			Height(max(v.height-2, 3)).
			Padding(0, 1).
			Render(strings.Join(cards, "\n")))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (v BoardView) renderCard(task *model.Task, width int, focused bool) string {
	t := theme.Current.Theme

	// completed cards keep their deadline color
	u := stats.ClassifyDeadline(task.Deadline, v.today)

	title := truncate(task.Title, width-2)
	style := lipgloss.NewStyle().Foreground(t.Foreground)
	if focused {
		style = style.Bold(true).Foreground(t.Primary)
	}
	if task.IsCompleted() {
		style = style.Strikethrough(true)
	}

	line := u.Icon + " " + style.Render(title)
	if task.Deadline != nil {
		line += "\n  " + lipgloss.NewStyle().Foreground(t.UrgencyColor(u)).Render(model.FormatDue(*task.Deadline, v.today))
	}
	return line
}
