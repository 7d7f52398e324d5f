package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/stats"
)

// Theme defines the color scheme and styles for the UI
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Deadline urgency colors
	UrgencyOverdue lipgloss.Color
	UrgencyToday   lipgloss.Color
	UrgencySoon    lipgloss.Color
	UrgencyLater   lipgloss.Color

	// Status colors
	StatusPending    lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusCompleted  lipgloss.Color
	StatusOverdue    lipgloss.Color
}

// StatusColor returns the lane color of a display status
func (t Theme) StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusInProgress:
		return t.StatusInProgress
	case model.StatusCompleted:
		return t.StatusCompleted
	case model.StatusOverdue:
		return t.StatusOverdue
	default:
		return t.StatusPending
	}
}

// UrgencyColor returns the color of a deadline class; due today is
// told apart from overdue within the urgent class
func (t Theme) UrgencyColor(u stats.Urgency) lipgloss.Color {
	switch u.Class {
	case stats.ClassUrgent:
		if u.Icon == stats.IconToday {
			return t.UrgencyToday
		}
		return t.UrgencyOverdue
	case stats.ClassWarning:
		return t.UrgencySoon
	case stats.ClassNormal:
		return t.UrgencyLater
	default:
		return t.Subtle
	}
}

// Styles are the shared lipgloss styles derived from a theme
type Styles struct {
	Header      lipgloss.Style
	Label       lipgloss.Style
	Placeholder lipgloss.Style
	Badge       lipgloss.Style

	// Task rows
	TaskNormal  lipgloss.Style
	TaskFocused lipgloss.Style
	TaskDone    lipgloss.Style
	TaskOverdue lipgloss.Style

	InputFocused lipgloss.Style

	// Footer hints
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
}

// NewStyles derives the shared styles from t
func NewStyles(t Theme) Styles {
	return Styles{
		Header:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Padding(0, 1),
		Label:       lipgloss.NewStyle().Foreground(t.Subtle),
		Placeholder: lipgloss.NewStyle().Foreground(t.Subtle).Italic(true),
		Badge: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Secondary).
			Padding(0, 1),

		TaskNormal:  lipgloss.NewStyle().Foreground(t.Foreground),
		TaskFocused: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		TaskDone:    lipgloss.NewStyle().Foreground(t.Subtle).Strikethrough(true),
		TaskOverdue: lipgloss.NewStyle().Foreground(t.UrgencyOverdue),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(t.Primary).
			BorderTop(false).BorderLeft(false).BorderRight(false),

		HelpKey:       lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		HelpDesc:      lipgloss.NewStyle().Foreground(t.Subtle),
		HelpSeparator: lipgloss.NewStyle().Foreground(t.Border),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Dracula,
		Gruvbox,
		Catppuccin,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}
