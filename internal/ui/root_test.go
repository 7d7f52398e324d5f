package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/planner/internal/cache"
	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/planner"
	"github.com/dori/planner/internal/ui/theme"
)

func newTestRoot(t *testing.T) RootModel {
	t.Helper()

	store, err := db.Open(context.Background(), db.Options{DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := planner.New(store, planner.Config{Owner: 1, Cache: cache.New(cache.Config{})})
	m, _ := NewRootModel(svc, ViewTasks).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(RootModel)
}

func press(t *testing.T, m RootModel, k tea.KeyMsg) (RootModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(RootModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		name string
		want View
		ok   bool
	}{
		{"", ViewTasks, true},
		{"tasks", ViewTasks, true},
		{"kanban", ViewBoard, true},
		{"stats", ViewStats, true},
		{"calendar", ViewTasks, false},
	}
	for _, tt := range tests {
		got, ok := ParseView(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseView(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSwitchViews(t *testing.T) {
	m := newTestRoot(t)

	m, cmd := press(t, m, runes("2"))
	if m.CurrentView() != ViewBoard || cmd == nil {
		t.Fatalf("after '2' view = %v, want board with a load command", m.CurrentView())
	}
	m, _ = press(t, m, runes("3"))
	if m.CurrentView() != ViewStats {
		t.Fatalf("after '3' view = %v, want stats", m.CurrentView())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.CurrentView() != ViewTasks {
		t.Errorf("ctrl+n from stats = %v, want tasks", m.CurrentView())
	}
}

func TestQuitOutsideInputOnly(t *testing.T) {
	m := newTestRoot(t)

	// open the add prompt, where 'q' is text
	m, _ = press(t, m, runes("a"))
	m, cmd := press(t, m, runes("q"))
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("'q' quit while typing")
		}
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("'q' should quit in normal mode")
	}
	if _, quit := cmd().(tea.QuitMsg); !quit {
		t.Error("expected QuitMsg")
	}
}

func TestSyncWithoutCalendar(t *testing.T) {
	m := newTestRoot(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("resync should not start without a calendar")
	}
	if m.errorMsg != planner.ErrCalendarDisabled.Error() {
		t.Errorf("errorMsg = %q", m.errorMsg)
	}
}

func TestThemeCycle(t *testing.T) {
	before := theme.Current.Theme.Name
	t.Cleanup(func() {
		if th, ok := theme.ByName(before); ok {
			theme.SetTheme(th)
		}
	})

	m := newTestRoot(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if theme.Current.Theme.Name == before {
		t.Errorf("theme still %q after ctrl+t", before)
	}
	if !strings.Contains(m.View(), "theme: "+theme.Current.Theme.Name) {
		t.Error("header should show the new theme")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestRoot(t)

	m, _ = press(t, m, runes("?"))
	if !strings.Contains(m.View(), "Planner Help") {
		t.Fatal("help overlay not shown")
	}
	m, _ = press(t, m, runes("?"))
	if strings.Contains(m.View(), "Planner Help") {
		t.Error("help overlay still shown")
	}
}
