package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
)

var (
	configPath string
	verbose    bool
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Personal task planner with deadlines, projects and calendar sync",
		Long: `planner tracks tasks with optional deadlines and projects, shows
urgency at a glance and mirrors deadlines to Google Calendar.

Run without arguments to open the dashboard.`,
		RunE:          runDash,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/planner/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log calendar sync details")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(upcomingCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(adoptCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(dashCmd())
	rootCmd.AddCommand(versionCmd())

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planner %s\n", rootCmd.Version)
		},
	}
}

func loadConfig() (*app.Config, error) {
	return app.LoadConfig(configPath)
}

// withApp opens the application for one command and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if verbose {
		out = cmd.ErrOrStderr()
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

	return fn(ctx, a)
}
