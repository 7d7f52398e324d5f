package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
	"github.com/dori/planner/internal/calendar"
	"github.com/dori/planner/internal/model"
)

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Google Calendar sync",
	}

	cmd.AddCommand(calendarAuthCmd())
	cmd.AddCommand(calendarEventsCmd())
	cmd.AddCommand(calendarResyncCmd())

	return cmd
}

func calendarAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth [code]",
		Short: "Authorize access to Google Calendar",
		Long: `Prints the consent URL, then exchanges the authorization code for a
token saved to calendar.token_file. The code can be passed as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			oc, err := calendar.OAuthConfig(cfg.Calendar.CredentialsFile)
			if err != nil {
				return err
			}

			var code string
			if len(args) == 1 {
				code = args[0]
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Open this link in your browser and authorize planner:")
				fmt.Fprintln(out, calendar.AuthURL(oc))
				fmt.Fprint(out, "\nAuthorization code: ")

				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("unable to read authorization code: %w", err)
				}
				code = line
			}

			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("empty authorization code")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := calendar.Exchange(ctx, oc, code, cfg.Calendar.TokenFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.Calendar.TokenFile)
			if !cfg.Calendar.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("set calendar.enabled: true in the config to start syncing"))
			}
			return nil
		},
	}
}

func calendarEventsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List upcoming calendar events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				events, err := a.Service.UpcomingEvents(ctx, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, dimStyle.Render("No upcoming events."))
					return nil
				}
				today := a.Service.Today()
				for _, e := range events {
					when := e.Start.Local().Format("Mon Jan 2 15:04")
					if e.AllDay {
						when = model.FormatDue(model.DateOf(e.Start), today)
					}
					line := fmt.Sprintf("%-16s %s", when, e.Summary)
					if e.TaskID != 0 {
						line += dimStyle.Render(fmt.Sprintf("  (task #%d)", e.TaskID))
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum events")

	return cmd
}

func calendarResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Retry calendar updates that failed earlier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.ResyncPending(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d tasks, %d still pending\n", res.Synced, res.Failed)
				if res.Err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("warning: %v", res.Err)))
				}
				return nil
			})
		},
	}
}
