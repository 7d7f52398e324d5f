package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/planner"
	"github.com/dori/planner/internal/stats"
)

// filterFlags are shared by the listing commands
type filterFlags struct {
	project int64
	status  string
	due     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&f.project, "project", "p", 0, "Only tasks of this project id")
	cmd.Flags().StringVarP(&f.status, "status", "s", "all", "all, pending, in_progress, completed or overdue")
	cmd.Flags().StringVarP(&f.due, "due", "d", "", "today, tomorrow, next_3_days, next_week or overdue")
}

func (f *filterFlags) filter() (model.Filter, error) {
	var out model.Filter
	if f.project > 0 {
		id := f.project
		out.ProjectID = &id
	}

	status, err := model.ParseStatusFilter(f.status)
	if err != nil {
		return out, err
	}
	out.Status = status

	bucket, err := model.ParseDeadlineBucket(f.due)
	if err != nil {
		return out, err
	}
	out.Deadline = bucket
	return out, nil
}

func addCmd() *cobra.Command {
	var (
		desc    string
		due     string
		project int64
		status  string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  planner add "Renew passport" --due friday
  planner add "Quarterly report" -p 2 --due 2026-12-01 --desc "numbers from finance"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				in := planner.NewTask{
					Title:       strings.Join(args, " "),
					Description: desc,
					Status:      model.Status(status),
				}
				if due != "" {
					d, err := model.ParseDue(due, a.Service.Today())
					if err != nil {
						return err
					}
					in.Deadline = &d
				}
				if project > 0 {
					in.ProjectID = &project
				}

				res, err := a.Service.Create(ctx, in)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created #%d: %s\n", res.ID, strings.TrimSpace(in.Title))
				if in.Deadline != nil {
					fmt.Fprintf(out, "Due: %s\n", model.FormatDue(*in.Deadline, a.Service.Today()))
				}
				warnSync(cmd.ErrOrStderr(), res.Sync)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&due, "due", "", "Deadline (today, friday, +3d, 2006-01-02)")
	cmd.Flags().Int64VarP(&project, "project", "p", 0, "Project id")
	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "Initial status")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		flags   filterFlags
		jsonOut bool
		group   bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks by deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tasks, err := a.Service.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if jsonOut {
					if tasks == nil {
						tasks = []model.Task{}
					}
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				if group {
					for _, g := range stats.GroupByProject(tasks) {
						fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("%s (%d)", g.Name, len(g.Tasks))))
						printTasks(cmd.OutOrStdout(), g.Tasks, a.Service.Today())
					}
					if len(tasks) == 0 {
						printTasks(cmd.OutOrStdout(), nil, a.Service.Today())
					}
					return nil
				}
				printTasks(cmd.OutOrStdout(), tasks, a.Service.Today())
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "Group by project")

	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Service.GetTask(ctx, id)
				if err != nil {
					return err
				}
				printTask(cmd.OutOrStdout(), t, a.Service.Today())
				return nil
			})
		},
	}
}

func editCmd() *cobra.Command {
	var title, desc, due, project, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Long: `Change the fields given as flags and leave the rest alone.
Pass "none" to --due or --project to clear them, and an empty --desc to drop the description.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				patch, err := buildPatch(cmd, a.Service.Today(), title, desc, due, project, status)
				if err != nil {
					return err
				}
				if patch.IsEmpty() {
					return errors.New("nothing to change; pass at least one flag")
				}

				res, err := a.Service.UpdateFields(ctx, id, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d\n", id)
				warnSync(cmd.ErrOrStderr(), res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&desc, "desc", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New deadline, or none")
	cmd.Flags().StringVarP(&project, "project", "p", "", "New project id, or none")
	cmd.Flags().StringVar(&status, "status", "", "New status")

	return cmd
}

// buildPatch maps the flags that were set on cmd to patch fields
func buildPatch(cmd *cobra.Command, today model.Date, title, desc, due, project, status string) (model.TaskPatch, error) {
	var p model.TaskPatch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = model.Set(title)
	}
	if changed("desc") {
		p.Description = model.Set(desc)
	}
	if changed("due") {
		if strings.EqualFold(due, "none") {
			p.Deadline = model.Clear[model.Date]()
		} else {
			d, err := model.ParseDue(due, today)
			if err != nil {
				return p, err
			}
			p.Deadline = model.Set(d)
		}
	}
	if changed("project") {
		if strings.EqualFold(project, "none") {
			p.ProjectID = model.Clear[int64]()
		} else {
			id, err := strconv.ParseInt(project, 10, 64)
			if err != nil {
				return p, fmt.Errorf("invalid project id %q", project)
			}
			p.ProjectID = model.Set(id)
		}
	}
	if changed("status") {
		p.Status = model.Set(model.Status(status))
	}
	return p, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <pending|in_progress|completed>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return setStatus(cmd, id, model.Status(args[1]))
		},
	}
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return setStatus(cmd, id, model.StatusCompleted)
		},
	}
}

func setStatus(cmd *cobra.Command, id int64, status model.Status) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.Service.SetStatus(ctx, id, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%d is now %s\n", id, status.Label())
		warnSync(cmd.ErrOrStderr(), res)
		return nil
	})
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks and their calendar events",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				for _, id := range ids {
					res, err := a.Service.Delete(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
					warnSync(cmd.ErrOrStderr(), res)
				}
				return nil
			})
		},
	}
}

func purgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete completed tasks older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				retention := a.Config.Purge.RetentionDays
				if cmd.Flags().Changed("days") {
					retention = days
				}

				res, err := a.Service.PurgeCompleted(ctx, retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d completed tasks older than %d days\n", res.Deleted, retention)
				if res.SyncErr != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(
						fmt.Sprintf("warning: some calendar events were left behind: %v", res.SyncErr)))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Retention in days (default from config)")

	return cmd
}
