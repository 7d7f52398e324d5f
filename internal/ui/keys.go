package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings of the dashboard
type KeyMap struct {
	// Views
	TasksView key.Binding
	BoardView key.Binding
	StatsView key.Binding
	NextView  key.Binding

	// Power User
	Help       key.Binding
	Refresh    key.Binding
	Sync       key.Binding
	ThemeCycle key.Binding

	// General
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TasksView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "tasks"),
		),
		BoardView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "board"),
		),
		StatsView: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "stats"),
		),
		NextView: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "next view"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),
		Sync: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "resync calendar"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TasksView, k.BoardView, k.StatsView, k.NextView},
		{k.Refresh, k.Sync, k.ThemeCycle},
		{k.Help, k.Quit},
	}
}
