package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
	"github.com/dori/planner/internal/ui"
	"github.com/dori/planner/internal/ui/theme"
)

var (
	dashView  string
	dashTheme string
)

func dashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the dashboard",
		RunE:  runDash,
	}
	cmd.Flags().StringVar(&dashView, "view", "tasks", "Start view (tasks, board, stats)")
	cmd.Flags().StringVar(&dashTheme, "theme", "", "Color theme (default from config)")
	return cmd
}

func runDash(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, ok := ui.ParseView(dashView)
	if !ok {
		return fmt.Errorf("unknown view %q", dashView)
	}

	name := cfg.UI.Theme
	if dashTheme != "" {
		name = dashTheme
	}
	t, ok := theme.ByName(name)
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	theme.SetTheme(t)

	// the terminal belongs to the dashboard, so sync logs go to a file
	var out io.Writer = io.Discard
	if verbose {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
		f, err := tea.LogToFile(filepath.Join(cfg.DataDir, "planner.log"), "")
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "planner: ", log.LstdFlags)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	p := tea.NewProgram(ui.NewRootModel(a.Service, start), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
