package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dori/planner/internal/model"
)

// NewTask holds the caller-supplied fields of a task insert
type NewTask struct {
	OwnerID     int64
	Title       string
	Description *string
	Deadline    *model.Date
	Status      model.Status
	ProjectID   *int64
}

// GetTask returns a single task by ID, or nil if it does not exist
func (db *DB) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	row := db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		`+taskFrom+`
		WHERE t.id = ?
	`, id)

	t, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get task", err)
	}
	return t, nil
}

// CreateTask inserts a task and returns its store-assigned id.
// created_at and, for completed tasks, completed_at come from the store clock.
func (db *DB) CreateTask(ctx context.Context, nt NewTask) (int64, error) {
	status := nt.Status
	if status == "" {
		status = model.StatusPending
	}

	completedAt := "NULL"
	if status == model.StatusCompleted {
		completedAt = "CURRENT_TIMESTAMP"
	}

	var id int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = db.insertReturningID(ctx, tx, `
			INSERT INTO tasks (owner_id, title, description, deadline, status, project_id, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, `+completedAt+`)
			RETURNING id
		`, nt.OwnerID, nt.Title, nt.Description, nt.Deadline, string(status), nt.ProjectID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// TaskChanges lists resolved column changes for UpdateTask. A nil pointer
// field leaves the column alone; the Clear flags write NULL.
type TaskChanges struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Deadline         *model.Date
	ClearDeadline    bool
	Status           *model.Status
	ProjectID        *int64
	ClearProject     bool
}

// UpdateTask applies changes to a task and reports whether the row exists.
// Setting a status stamps completed_at for completed and clears it otherwise.
func (db *DB) UpdateTask(ctx context.Context, id int64, c TaskChanges) (bool, error) {
	var sets []string
	var args []interface{}

	if c.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *c.Title)
	}
	if c.ClearDescription {
		sets = append(sets, "description = NULL")
	} else if c.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *c.Description)
	}
	if c.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	} else if c.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, *c.Deadline)
	}
	if c.ClearProject {
		sets = append(sets, "project_id = NULL")
	} else if c.ProjectID != nil {
		sets = append(sets, "project_id = ?")
		args = append(args, *c.ProjectID)
	}
	if c.Status != nil {
		sets = append(sets, "status = ?", completedAtFor(*c.Status))
		args = append(args, string(*c.Status))
	}

	if len(sets) == 0 {
		task, err := db.GetTask(ctx, id)
		return task != nil, err
	}

	args = append(args, id)
	n, err := db.Exec(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetTaskStatus changes the status of a task and reports whether the row exists
func (db *DB) SetTaskStatus(ctx context.Context, id int64, status model.Status) (bool, error) {
	n, err := db.Exec(ctx, `UPDATE tasks SET status = ?, `+completedAtFor(status)+` WHERE id = ?`,
		string(status), id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// completedAtFor keeps completed_at set exactly while a task is completed.
// A task already completed keeps its original completion time.
func completedAtFor(status model.Status) string {
	if status == model.StatusCompleted {
		return "completed_at = CASE WHEN status = 'completed' AND completed_at IS NOT NULL THEN completed_at ELSE CURRENT_TIMESTAMP END"
	}
	return "completed_at = NULL"
}

// SetExternalEvent records the calendar event reference and sync flag of a task
func (db *DB) SetExternalEvent(ctx context.Context, id int64, eventID *string, syncPending bool) error {
	_, err := db.Exec(ctx, `UPDATE tasks SET external_event_id = ?, sync_pending = ? WHERE id = ?`,
		eventID, syncPending, id)
	return err
}

// DeleteTask removes a task row and reports whether it existed
func (db *DB) DeleteTask(ctx context.Context, id int64) (bool, error) {
	n, err := db.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountTasks returns the number of tasks of owner
func (db *DB) CountTasks(ctx context.Context, owner int64) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = ?`, owner).Scan(&count); err != nil {
		return 0, unavailable("count tasks", err)
	}
	return count, nil
}

// GetCompletedBefore returns completed tasks of owner whose completion is older than cutoff
func (db *DB) GetCompletedBefore(ctx context.Context, owner int64, cutoff time.Time) ([]model.Task, error) {
	rows, err := db.Query(ctx, `
		SELECT `+taskColumns+`
		`+taskFrom+`
		WHERE t.owner_id = ? AND t.status = ? AND t.completed_at IS NOT NULL AND t.completed_at < ?
		ORDER BY t.id
	`, owner, string(model.StatusCompleted), db.timeArg(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// DeleteCompletedBefore removes the given completed tasks in one transaction.
// The age condition is re-checked so that a task reopened in between survives.
func (db *DB) DeleteCompletedBefore(ctx context.Context, owner int64, cutoff time.Time, ids []int64) (int64, error) {
	var deleted int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			n, err := db.execTx(ctx, tx, `
				DELETE FROM tasks
				WHERE id = ? AND owner_id = ? AND status = ? AND completed_at < ?
			`, id, owner, string(model.StatusCompleted), db.timeArg(cutoff))
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetSyncPending returns tasks of owner whose last calendar call failed
func (db *DB) GetSyncPending(ctx context.Context, owner int64) ([]model.Task, error) {
	rows, err := db.Query(ctx, `
		SELECT `+taskColumns+`
		`+taskFrom+`
		WHERE t.owner_id = ? AND t.sync_pending = ?
		ORDER BY t.id
	`, owner, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Helper functions

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, unavailable("scan task", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate tasks", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(s scanner) (*model.Task, error) {
	var t model.Task
	var ownerID, projectID *int64
	var description, eventID, projectName *string
	var deadline *model.Date
	var completedAt *time.Time
	var status string

	err := s.Scan(
		&t.ID, &ownerID, &t.Title, &description, &deadline, &status, &projectID,
		&t.CreatedAt, &completedAt, &eventID, &t.SyncPending, &projectName,
	)
	if err != nil {
		return nil, err
	}

	if ownerID != nil {
		t.OwnerID = *ownerID
	}
	t.Status = model.Status(status)
	t.Description = description
	t.Deadline = deadline
	t.ProjectID = projectID
	t.CompletedAt = completedAt
	t.ExternalEventID = eventID
	t.ProjectName = projectName

	return &t, nil
}
