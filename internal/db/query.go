package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/dori/planner/internal/model"
)

const taskColumns = `t.id, t.owner_id, t.title, t.description, t.deadline, t.status, t.project_id,
		t.created_at, t.completed_at, t.external_event_id, t.sync_pending, p.name`

const taskFrom = `FROM tasks t
		LEFT JOIN projects p ON t.project_id = p.id`

// taskOrder sorts by deadline with absent deadlines last, then by status rank
const taskOrder = `ORDER BY
			CASE WHEN t.deadline IS NULL THEN 1 ELSE 0 END,
			t.deadline ASC,
			CASE t.status
				WHEN 'pending' THEN 0
				WHEN 'overdue' THEN 1
				WHEN 'in_progress' THEN 2
				WHEN 'completed' THEN 3
				ELSE 4
			END,
			t.id ASC`

// TaskQuery is a composed task listing: SQL with ?-placeholders and its arguments
type TaskQuery struct {
	SQL  string
	Args []interface{}
}

// BuildTaskQuery composes the WHERE clause for filter f, scoped to owner.
// today is the caller's current date; every relative filter is evaluated against it.
func BuildTaskQuery(owner int64, f model.Filter, today model.Date) (TaskQuery, error) {
	whereClauses := []string{"t.owner_id = ?"}
	args := []interface{}{owner}

	if f.ProjectID != nil {
		whereClauses = append(whereClauses, "t.project_id = ?")
		args = append(args, *f.ProjectID)
	}

	switch f.Status {
	case "", model.StatusAll:
	case model.StatusOnlyPending:
		// legacy rows stored as overdue count as pending
		whereClauses = append(whereClauses, "t.status IN (?, ?)")
		args = append(args, string(model.StatusPending), string(model.StatusOverdue))
	case model.StatusOnlyInProgress, model.StatusOnlyCompleted:
		whereClauses = append(whereClauses, "t.status = ?")
		args = append(args, string(f.Status))
	case model.StatusOnlyOverdue:
		clause, overdueArgs := overduePredicate(today)
		whereClauses = append(whereClauses, clause)
		args = append(args, overdueArgs...)
	default:
		return TaskQuery{}, fmt.Errorf("unknown status filter %q", f.Status)
	}

	switch f.Deadline {
	case model.BucketNone:
	case model.BucketToday:
		whereClauses = append(whereClauses, "t.deadline = ?")
		args = append(args, today)
	case model.BucketTomorrow:
		whereClauses = append(whereClauses, "t.deadline = ?")
		args = append(args, today.AddDays(1))
	case model.BucketNext3Days:
		whereClauses = append(whereClauses, "t.deadline BETWEEN ? AND ?")
		args = append(args, today, today.AddDays(3))
	case model.BucketNextWeek:
		whereClauses = append(whereClauses, "t.deadline BETWEEN ? AND ?")
		args = append(args, today, today.AddDays(7))
	case model.BucketOverdue:
		clause, overdueArgs := overduePredicate(today)
		whereClauses = append(whereClauses, clause)
		args = append(args, overdueArgs...)
	default:
		return TaskQuery{}, fmt.Errorf("unknown deadline bucket %q", f.Deadline)
	}

	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE %s
		%s
	`, taskColumns, taskFrom, strings.Join(whereClauses, " AND "), taskOrder)

	return TaskQuery{SQL: query, Args: args}, nil
}

// overduePredicate matches a deadline before today on a task that is not completed.
// Rows still carrying the legacy overdue literal match as well.
func overduePredicate(today model.Date) (string, []interface{}) {
	return "((t.deadline < ? AND t.status != ?) OR t.status = ?)",
		[]interface{}{today, string(model.StatusCompleted), string(model.StatusOverdue)}
}

// QueryTasks runs the composed listing for filter f
func (db *DB) QueryTasks(ctx context.Context, owner int64, f model.Filter, today model.Date) ([]model.Task, error) {
	q, err := BuildTaskQuery(owner, f, today)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}
