package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/planner"
	"github.com/dori/planner/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// taskRow renders the columns of one task listing line
func taskRow(t *model.Task, today model.Date) []string {
	u := stats.ClassifyTask(t, today)

	due := "-"
	if t.Deadline != nil {
		due = model.FormatDue(*t.Deadline, today)
	}
	project := ""
	if t.ProjectName != nil {
		project = *t.ProjectName
	}
	sync := ""
	switch {
	case t.SyncPending:
		sync = "pending"
	case t.IsSynced():
		sync = "✓"
	}

	return []string{
		strconv.FormatInt(t.ID, 10),
		u.Icon,
		t.Title,
		stats.DisplayStatus(t, today).Label(),
		due,
		u.Label,
		project,
		sync,
	}
}

func printTasks(w io.Writer, tasks []model.Task, today model.Date) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No tasks."))
		return
	}

	rows := make([][]string, 0, len(tasks))
	for i := range tasks {
		rows = append(rows, taskRow(&tasks[i], today))
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "", "TITLE", "STATUS", "DUE", "URGENCY", "PROJECT", "CAL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, tbl)
}

func printTask(w io.Writer, t *model.Task, today model.Date) {
	u := stats.ClassifyTask(t, today)

	fmt.Fprintf(w, "%s #%d %s\n", u.Icon, t.ID, t.Title)
	fmt.Fprintf(w, "  Status:   %s\n", stats.DisplayStatus(t, today).Label())
	if t.Deadline != nil {
		fmt.Fprintf(w, "  Deadline: %s (%s)\n", t.Deadline, u.Label)
	}
	if t.ProjectName != nil {
		fmt.Fprintf(w, "  Project:  %s\n", *t.ProjectName)
	}
	if t.Description != nil {
		fmt.Fprintf(w, "  Notes:    %s\n", strings.ReplaceAll(*t.Description, "\n", "\n            "))
	}
	fmt.Fprintf(w, "  Created:  %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  Done:     %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	switch {
	case t.SyncPending:
		fmt.Fprintln(w, "  Calendar: waiting for resync")
	case t.IsSynced():
		fmt.Fprintf(w, "  Calendar: %s\n", *t.ExternalEventID)
	}
}

// warnSync reports a calendar failure without failing the command
func warnSync(w io.Writer, res planner.SyncResult) {
	if !res.Failed() {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("warning: %v", res.Err)))
	fmt.Fprintln(w, dimStyle.Render("the task is saved; run `planner calendar resync` once the calendar is reachable"))
}
