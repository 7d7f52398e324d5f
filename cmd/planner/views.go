package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/notify"
	"github.com/dori/planner/internal/stats"
)

func statsCmd() *cobra.Command {
	var (
		flags   filterFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts by status and deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Service.Statistics(ctx, f)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), s)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, headerStyle.Render("Tasks"))
				fmt.Fprintf(out, "  %-13s %d\n", "Total:", s.Total)
				fmt.Fprintf(out, "  %-13s %d\n", "Pending:", s.Pending)
				fmt.Fprintf(out, "  %-13s %d\n", "In progress:", s.InProgress)
				fmt.Fprintf(out, "  %-13s %d (%.0f%%)\n", "Completed:", s.Completed, s.CompletionRate())
				fmt.Fprintf(out, "  %-13s %d\n", stats.IconOverdue+" Overdue:", s.Overdue)
				fmt.Fprintf(out, "  %-13s %d\n", stats.IconToday+" Today:", s.DueToday)
				fmt.Fprintf(out, "  %-13s %d\n", "Tomorrow:", s.DueTomorrow)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Output as JSON")

	return cmd
}

func upcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "Show open tasks due in the next week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tasks, err := a.Service.Upcoming(ctx)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks, a.Service.Today())
				return nil
			})
		},
	}
}

func boardCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks as status columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				columns, err := a.Service.Board(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderBoard(columns, a.Service.Today()))
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

var columnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1).
	Width(28)

func renderBoard(columns []stats.Column, today model.Date) string {
	rendered := make([]string, 0, len(columns))
	for _, col := range columns {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Tasks)+col.Overflow)))
		for i := range col.Tasks {
			t := &col.Tasks[i]
			u := stats.ClassifyTask(t, today)
			fmt.Fprintf(&b, "\n%s #%d %s", u.Icon, t.ID, t.Title)
		}
		if col.Overflow > 0 {
			b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("+%d more", col.Overflow)))
		}
		rendered = append(rendered, columnStyle.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func remindCmd() *cobra.Command {
	var dryRun, urgentOnly bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send desktop notifications for tasks close to their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var tasks []model.Task
				var err error
				if urgentOnly {
					tasks, err = a.Service.Urgent(ctx)
				} else {
					tasks, err = a.Service.ListTasks(ctx, model.Filter{})
				}
				if err != nil {
					return err
				}
				today := a.Service.Today()

				if dryRun {
					for i := range tasks {
						if n, ok := notify.Reminder(&tasks[i], today); ok {
							fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Title, n.Body)
						}
					}
					return nil
				}

				if !a.Notifier.IsEnabled() {
					return errors.New("notifications are disabled (notify.enabled in config)")
				}
				sent, err := a.Notifier.SendReminders(tasks, today)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminders\n", sent)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print reminders instead of sending them")
	cmd.Flags().BoolVarP(&urgentOnly, "urgent", "u", false, "Only overdue tasks and tasks due today")

	return cmd
}
