package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dori/planner/internal/app"
	"github.com/dori/planner/internal/model"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(projectAddCmd())
	cmd.AddCommand(projectListCmd())

	return cmd
}

func projectAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				id, err := a.Service.CreateProject(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project #%d: %s\n", id, strings.TrimSpace(name))
				return nil
			})
		},
	}
}

func projectListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects with task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				projects, err := a.Service.ListProjects(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					if projects == nil {
						projects = []model.Project{}
					}
					return printJSON(cmd.OutOrStdout(), projects)
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No projects."))
					return nil
				}

				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						strconv.FormatInt(p.ID, 10),
						p.Name,
						fmt.Sprintf("%d/%d", p.CompletedCount, p.TaskCount),
					})
				}
				tbl := table.New().
					Border(lipgloss.RoundedBorder()).
					Headers("ID", "NAME", "DONE").
					Rows(rows...)
				fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Output as JSON")

	return cmd
}

func adoptCmd() *cobra.Command {
	var from int64

	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Take over projects and tasks stored under another owner id",
		Long: `Reassign rows that belong to a legacy owner id, or to no owner,
to the configured owner. Stored "overdue" statuses become pending.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.AdoptLegacy(ctx, from)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Adopted %d projects and %d tasks (%d statuses reset)\n",
					res.ProjectsUpdated, res.TasksUpdated, res.StatusesFixed)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "Legacy owner id")
	cmd.MarkFlagRequired("from")

	return cmd
}
