package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dori/planner/internal/model"
)

// GetProjects returns the projects of owner ordered by name, with task counts
func (db *DB) GetProjects(ctx context.Context, owner int64) ([]model.Project, error) {
	rows, err := db.Query(ctx, `
		SELECT p.id, p.name, p.owner_id, p.created_at,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id) AS task_count,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id AND status = 'completed') AS completed_count
		FROM projects p
		WHERE p.owner_id = ?
		ORDER BY p.name, p.id
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var ownerID *int64
		err := rows.Scan(&p.ID, &p.Name, &ownerID, &p.CreatedAt, &p.TaskCount, &p.CompletedCount)
		if err != nil {
			return nil, unavailable("scan project", err)
		}
		if ownerID != nil {
			p.OwnerID = *ownerID
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate projects", err)
	}

	return projects, nil
}

// GetProject returns a single project by ID, or nil if it does not exist
func (db *DB) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	var ownerID *int64

	err := db.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &ownerID, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get project", err)
	}

	if ownerID != nil {
		p.OwnerID = *ownerID
	}
	return &p, nil
}

// CreateProject creates a new project and returns its store-assigned id
func (db *DB) CreateProject(ctx context.Context, name string, owner int64) (int64, error) {
	var id int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = db.insertReturningID(ctx, tx, `
			INSERT INTO projects (name, owner_id) VALUES (?, ?) RETURNING id
		`, name, owner)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AdoptResult reports what AdoptLegacyRows changed
type AdoptResult struct {
	ProjectsUpdated int64
	TasksUpdated    int64
	StatusesFixed   int64
}

// AdoptLegacyRows reassigns rows owned by legacyOwner, or by nobody, to owner.
// Tasks inherit the owner of their project, and stored overdue labels are
// rewritten to pending. Everything happens in one transaction.
func (db *DB) AdoptLegacyRows(ctx context.Context, owner, legacyOwner int64) (AdoptResult, error) {
	var res AdoptResult
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		res.ProjectsUpdated, err = db.execTx(ctx, tx, `
			UPDATE projects SET owner_id = ? WHERE owner_id = ? OR owner_id IS NULL
		`, owner, legacyOwner)
		if err != nil {
			return err
		}

		res.TasksUpdated, err = db.execTx(ctx, tx, `
			UPDATE tasks SET owner_id = ?
			WHERE owner_id = ? OR owner_id IS NULL
			   OR (project_id IN (SELECT id FROM projects WHERE owner_id = ?) AND owner_id != ?)
		`, owner, legacyOwner, owner, owner)
		if err != nil {
			return err
		}

		res.StatusesFixed, err = db.execTx(ctx, tx, `
			UPDATE tasks SET status = ? WHERE owner_id = ? AND status = ?
		`, string(model.StatusPending), owner, string(model.StatusOverdue))
		return err
	})
	if err != nil {
		return AdoptResult{}, err
	}
	return res, nil
}
