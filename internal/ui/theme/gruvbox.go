package theme

import "github.com/charmbracelet/lipgloss"

// Gruvbox theme - Retro groove color scheme
// https://github.com/morhetz/gruvbox
var Gruvbox = Theme{
	Name: "gruvbox",

	// Background colors (dark mode)
	Background: lipgloss.Color("#282828"),
	Foreground: lipgloss.Color("#EBDBB2"),
	Subtle:     lipgloss.Color("#928374"),
	Highlight:  lipgloss.Color("#3C3836"),
	Border:     lipgloss.Color("#504945"),

	// Primary colors
	Primary:   lipgloss.Color("#83A598"), // Aqua
	Secondary: lipgloss.Color("#8EC07C"), // Green
	Info:      lipgloss.Color("#83A598"), // Aqua

	// Semantic colors
	Success: lipgloss.Color("#B8BB26"), // Green
	Warning: lipgloss.Color("#FABD2F"), // Yellow
	Error:   lipgloss.Color("#FB4934"), // Red

	// Deadline urgency
	UrgencyOverdue: lipgloss.Color("#FB4934"),
	UrgencyToday:   lipgloss.Color("#FE8019"),
	UrgencySoon:    lipgloss.Color("#FABD2F"),
	UrgencyLater:   lipgloss.Color("#B8BB26"),

	// Status lanes
	StatusPending:    lipgloss.Color("#FABD2F"),
	StatusInProgress: lipgloss.Color("#83A598"),
	StatusCompleted:  lipgloss.Color("#B8BB26"),
	StatusOverdue:    lipgloss.Color("#FB4934"),
}
