package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/stats"
	"github.com/dori/planner/internal/ui/theme"
)

// TasksMode represents the current input mode of the task list
type TasksMode int

const (
	TasksModeNormal TasksMode = iota
	TasksModeAdd
	TasksModeRename
	TasksModeDue
	TasksModeConfirmDelete
)

var statusFilters = []model.StatusFilter{
	model.StatusAll,
	model.StatusOnlyPending,
	model.StatusOnlyInProgress,
	model.StatusOnlyCompleted,
	model.StatusOnlyOverdue,
}

var deadlineBuckets = []model.DeadlineBucket{
	model.BucketNone,
	model.BucketOverdue,
	model.BucketToday,
	model.BucketTomorrow,
	model.BucketNext3Days,
	model.BucketNextWeek,
}

type tasksLoadedMsg struct {
	tasks    []model.Task
	projects []model.Project
	err      error
}

// TasksView lists tasks by deadline with filters and quick actions
type TasksView struct {
	svc    Service
	width  int
	height int

	tasks    []model.Task
	projects []model.Project
	today    model.Date

	cursor       int
	scrollOffset int

	filter     model.Filter
	projectIdx int // 0 is all projects, i > 0 is projects[i-1]

	mode     TasksMode
	input    textinput.Model
	targetID int64

	statusMsg string
}

// NewTasksView creates a new task list view
func NewTasksView(svc Service) TasksView {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256

	return TasksView{
		svc:    svc,
		input:  ti,
		filter: model.Filter{Status: model.StatusAll},
		today:  svc.Today(),
	}
}

// Init loads the tasks
func (v TasksView) Init() tea.Cmd {
	return v.loadTasks()
}

// IsInputMode returns true when the view is capturing keys
func (v TasksView) IsInputMode() bool {
	return v.mode != TasksModeNormal
}

// SetSize updates the view dimensions
func (v TasksView) SetSize(width, height int) TasksView {
	v.width = width
	v.height = height
	v.input.Width = width - 4
	return v
}

// Filter returns the active filter
func (v TasksView) Filter() model.Filter {
	return v.filter
}

// Tasks returns the loaded tasks
func (v TasksView) Tasks() []model.Task {
	return v.tasks
}

func (v TasksView) loadTasks() tea.Cmd {
	svc, f := v.svc, v.filter
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		tasks, err := svc.ListTasks(ctx, f)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		projects, err := svc.ListProjects(ctx)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		return tasksLoadedMsg{tasks: tasks, projects: projects}
	}
}

// visibleTaskCount returns how many tasks fit in the viewport
func (v TasksView) visibleTaskCount() int {
	// summary, filter line, input/status line and a spare
	available := v.height - 4
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts scrollOffset to keep cursor in view
func (v *TasksView) ensureCursorVisible() {
	visible := v.visibleTaskCount()

	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}

	maxOffset := max(len(v.tasks)-visible, 0)
	v.scrollOffset = min(max(v.scrollOffset, 0), maxOffset)
}

func (v TasksView) current() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return model.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages for the task list
func (v TasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.err != nil {
			err := msg.err
			return v, func() tea.Msg { return ErrorMsg{Err: err} }
		}
		v.tasks = msg.tasks
		v.projects = msg.projects
		v.today = v.svc.Today()
		if v.projectIdx > len(v.projects) {
			v.projectIdx = 0
			v.filter.ProjectID = nil
		}
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureCursorVisible()
		return v, nil

	case TaskChangedMsg:
		return v, v.loadTasks()

	case tea.KeyMsg:
		switch v.mode {
		case TasksModeAdd, TasksModeRename, TasksModeDue:
			return v.handleInputMode(msg)
		case TasksModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	return v, nil
}

// handleNormalMode handles keypresses in normal mode
func (v TasksView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""

	switch msg.String() {
	// Navigation
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
		}
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = max(0, len(v.tasks)-1)
	case "pgup", "ctrl+u":
		v.cursor = max(0, v.cursor-v.visibleTaskCount())
	case "pgdown", "ctrl+d":
		v.cursor = min(max(0, len(v.tasks)-1), v.cursor+v.visibleTaskCount())

	// Actions
	case "a":
		return v.startInput(TasksModeAdd, "", "title due:friday #project")
	case "r":
		if t, ok := v.current(); ok {
			v.targetID = t.ID
			return v.startInput(TasksModeRename, t.Title, "")
		}
	case "e":
		if t, ok := v.current(); ok {
			v.targetID = t.ID
			due := ""
			if t.Deadline != nil {
				due = t.Deadline.String()
			}
			return v.startInput(TasksModeDue, due, "friday, +3d, 2026-12-01 or none")
		}
	case "tab", "enter", "x":
		if t, ok := v.current(); ok {
			status := model.StatusCompleted
			if t.IsCompleted() {
				status = model.StatusPending
			}
			return v, setStatusCmd(v.svc, t, status)
		}
	case "s":
		if t, ok := v.current(); ok {
			return v, setStatusCmd(v.svc, t, nextStatus(t.Status))
		}
	case "d":
		if t, ok := v.current(); ok {
			v.targetID = t.ID
			v.mode = TasksModeConfirmDelete
		}

	// Filters
	case "f":
		v.filter.Status = cycle(statusFilters, v.filter.Status)
		v.cursor = 0
		return v, v.loadTasks()
	case "b":
		v.filter.Deadline = cycle(deadlineBuckets, v.filter.Deadline)
		v.cursor = 0
		return v, v.loadTasks()
	case "p":
		v.projectIdx = (v.projectIdx + 1) % (len(v.projects) + 1)
		v.filter.ProjectID = nil
		if v.projectIdx > 0 {
			id := v.projects[v.projectIdx-1].ID
			v.filter.ProjectID = &id
		}
		v.cursor = 0
		return v, v.loadTasks()
	case "c":
		v.filter = model.Filter{Status: model.StatusAll}
		v.projectIdx = 0
		v.cursor = 0
		return v, v.loadTasks()
	}

	v.ensureCursorVisible()
	return v, nil
}

func cycle[T comparable](values []T, current T) T {
	for i, val := range values {
		if val == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (v TasksView) startInput(mode TasksMode, value, placeholder string) (tea.Model, tea.Cmd) {
	v.mode = mode
	v.input.SetValue(value)
	v.input.Placeholder = placeholder
	v.input.CursorEnd()
	return v, v.input.Focus()
}

// handleInputMode handles keypresses while a text prompt is open
func (v TasksView) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(v.input.Value())
		mode := v.mode
		v.mode = TasksModeNormal
		v.input.Blur()
		return v, v.submit(mode, value)
	case "esc":
		v.mode = TasksModeNormal
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v TasksView) submit(mode TasksMode, value string) tea.Cmd {
	svc, id, today := v.svc, v.targetID, v.today

	switch mode {
	case TasksModeAdd:
		if value == "" {
			return nil
		}
		in := quickAdd(value, today)
		return func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			res, err := svc.Create(ctx, in)
			if err != nil {
				return TaskChangedMsg{Err: err}
			}
			return changed(fmt.Sprintf("Created #%d", res.ID), res.Sync, nil)
		}

	case TasksModeRename:
		if value == "" {
			return nil
		}
		return func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			res, err := svc.UpdateFields(ctx, id, model.TaskPatch{Title: model.Set(value)})
			return changed(fmt.Sprintf("Renamed #%d", id), res, err)
		}

	case TasksModeDue:
		var patch model.TaskPatch
		if value == "" || strings.EqualFold(value, "none") {
			patch.Deadline = model.Clear[model.Date]()
		} else {
			d, err := model.ParseDue(value, today)
			if err != nil {
				return func() tea.Msg { return ErrorMsg{Err: err} }
			}
			patch.Deadline = model.Set(d)
		}
		return func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			res, err := svc.UpdateFields(ctx, id, patch)
			return changed(fmt.Sprintf("Deadline of #%d updated", id), res, err)
		}
	}
	return nil
}

func (v TasksView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = TasksModeNormal
		svc, id := v.svc, v.targetID
		return v, func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			res, err := svc.Delete(ctx, id)
			return changed(fmt.Sprintf("Deleted #%d", id), res, err)
		}
	case "n", "N", "esc":
		v.mode = TasksModeNormal
	}
	return v, nil
}

// View renders the task list
func (v TasksView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	styles := theme.Current.Styles
	t := theme.Current.Theme

	var lines []string
	lines = append(lines, v.renderSummary())
	lines = append(lines, styles.Label.Render(v.describeFilter()))

	if len(v.tasks) == 0 {
		lines = append(lines, styles.Placeholder.Render("  No tasks. Press a to add one."))
	} else {
		end := min(v.scrollOffset+v.visibleTaskCount(), len(v.tasks))
		for i := v.scrollOffset; i < end; i++ {
			lines = append(lines, v.renderTask(&v.tasks[i], i == v.cursor))
		}
	}

	switch v.mode {
	case TasksModeAdd:
		lines = append(lines, styles.InputFocused.Render("New task "+v.input.View()))
	case TasksModeRename:
		lines = append(lines, styles.InputFocused.Render("Title "+v.input.View()))
	case TasksModeDue:
		lines = append(lines, styles.InputFocused.Render("Deadline "+v.input.View()))
	case TasksModeConfirmDelete:
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(
			fmt.Sprintf("Delete #%d and its calendar event? (y/n)", v.targetID)))
	default:
		if v.statusMsg != "" {
			lines = append(lines, styles.Label.Render(v.statusMsg))
		}
	}

	return strings.Join(lines, "\n")
}

func (v TasksView) renderSummary() string {
	t := theme.Current.Theme
	s := stats.Compute(v.tasks, v.today)

	item := func(color lipgloss.Color, label string, n int) string {
		return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %d", label, n))
	}
	sep := lipgloss.NewStyle().Foreground(t.Border).Render(" │ ")

	return strings.Join([]string{
		item(t.Foreground, "Total", s.Total),
		item(t.StatusPending, "Pending", s.Pending),
		item(t.StatusInProgress, "In progress", s.InProgress),
		item(t.StatusCompleted, "Completed", s.Completed),
		item(t.UrgencyOverdue, stats.IconOverdue+" Overdue", s.Overdue),
		item(t.UrgencyToday, stats.IconToday+" Today", s.DueToday),
		item(t.UrgencySoon, "Tomorrow", s.DueTomorrow),
	}, sep)
}

func (v TasksView) describeFilter() string {
	parts := []string{"status: " + string(v.filter.Status)}
	if v.filter.Deadline != model.BucketNone {
		parts = append(parts, "due: "+string(v.filter.Deadline))
	}
	if v.projectIdx > 0 && v.projectIdx <= len(v.projects) {
		parts = append(parts, "project: "+v.projects[v.projectIdx-1].Name)
	}
	return "  " + strings.Join(parts, " · ")
}

func (v TasksView) renderTask(task *model.Task, focused bool) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	u := stats.ClassifyTask(task, v.today)

	cursor := "  "
	if focused {
		cursor = lipgloss.NewStyle().Foreground(t.Primary).Render("▸ ")
	}

	icon := u.Icon
	if icon == "" {
		icon = "✓ "
	}

	due := ""
	if task.Deadline != nil {
		due = model.FormatDue(*task.Deadline, v.today)
		if u.Class != stats.ClassNone {
			due += " · " + u.Label
		}
	}

	var meta []string
	if due != "" {
		meta = append(meta, lipgloss.NewStyle().Foreground(t.UrgencyColor(u)).Render(due))
	}
	status := stats.DisplayStatus(task, v.today)
	meta = append(meta, lipgloss.NewStyle().Foreground(t.StatusColor(status)).Render(status.Label()))
	if task.ProjectName != nil {
		meta = append(meta, styles.Badge.Render(*task.ProjectName))
	}
	if task.SyncPending {
		meta = append(meta, lipgloss.NewStyle().Foreground(t.Warning).Render("⟳"))
	}
	metaStr := strings.Join(meta, " ")

	titleWidth := v.width - lipgloss.Width(metaStr) - 12
	title := fmt.Sprintf("#%-4d %s", task.ID, truncate(task.Title, titleWidth))

	titleStyle := styles.TaskNormal
	switch {
	case task.IsCompleted():
		titleStyle = styles.TaskDone
	case focused:
		titleStyle = styles.TaskFocused
	case u.Class == stats.ClassUrgent:
		titleStyle = styles.TaskOverdue
	}

	left := cursor + icon + titleStyle.Render(title)
	gap := max(v.width-lipgloss.Width(left)-lipgloss.Width(metaStr)-1, 1)
	return left + strings.Repeat(" ", gap) + metaStr
}
