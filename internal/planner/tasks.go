package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/model"
)

// NewTask holds the fields of a task to create
type NewTask struct {
	Title       string
	Description string
	Deadline    *model.Date
	Status      model.Status
	ProjectID   *int64
}

// Create validates and stores a task, then places it on the calendar when it
// has a deadline. A calendar failure leaves the task stored and is reported
// in the result.
func (s *Service) Create(ctx context.Context, in NewTask) (CreateResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return CreateResult{}, invalid("title", "must not be empty")
	}

	status := in.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return CreateResult{}, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	if in.ProjectID != nil {
		if _, err := s.ownProject(ctx, *in.ProjectID); err != nil {
			return CreateResult{}, err
		}
	}

	id, err := s.store.CreateTask(ctx, db.NewTask{
		OwnerID:     s.owner,
		Title:       title,
		Description: normalizeDescription(in.Description),
		Deadline:    in.Deadline,
		Status:      status,
		ProjectID:   in.ProjectID,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("create task: %w", err)
	}
	s.invalidate()

	res := CreateResult{ID: id}
	if in.Deadline != nil {
		res.Sync = s.syncByID(ctx, id)
	}
	return res, nil
}

// UpdateFields applies the supplied fields of patch to a task. A synced task's
// event follows the change; clearing the deadline removes the event.
func (s *Service) UpdateFields(ctx context.Context, id int64, patch model.TaskPatch) (SyncResult, error) {
	changes, err := s.resolvePatch(ctx, patch)
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	if existing == nil || existing.OwnerID != s.owner {
		return SyncResult{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if patch.IsEmpty() {
		return SyncResult{}, nil
	}

	// rows written under the old convention drop the stored overdue label
	if changes.Status == nil && existing.Status == model.StatusOverdue {
		pending := model.StatusPending
		changes.Status = &pending
	}

	found, err := s.store.UpdateTask(ctx, id, changes)
	if err != nil {
		return SyncResult{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if !found {
		return SyncResult{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	s.invalidate()

	return s.syncByID(ctx, id), nil
}

// SetStatus moves a task to status. Any status may follow any other.
func (s *Service) SetStatus(ctx context.Context, id int64, status model.Status) (SyncResult, error) {
	if !status.Valid() {
		return SyncResult{}, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	if existing == nil || existing.OwnerID != s.owner {
		return SyncResult{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	found, err := s.store.SetTaskStatus(ctx, id, status)
	if err != nil {
		return SyncResult{}, fmt.Errorf("set status of task %d: %w", id, err)
	}
	if !found {
		return SyncResult{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	s.invalidate()

	return s.syncByID(ctx, id), nil
}

// Delete removes a task and then its calendar event. Deleting a task that
// does not exist succeeds.
func (s *Service) Delete(ctx context.Context, id int64) (SyncResult, error) {
	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	if existing == nil || existing.OwnerID != s.owner {
		return SyncResult{}, nil
	}

	if _, err := s.store.DeleteTask(ctx, id); err != nil {
		return SyncResult{}, fmt.Errorf("delete task %d: %w", id, err)
	}
	s.invalidate()

	if existing.ExternalEventID == nil {
		return SyncResult{}, nil
	}
	return s.deleteEvent(ctx, existing), nil
}

// PurgeCompleted deletes completed tasks whose completion is older than
// retentionDays. Calendar events go first, best effort, then the rows.
// Running it again right away deletes nothing.
func (s *Service) PurgeCompleted(ctx context.Context, retentionDays int) (PurgeResult, error) {
	if retentionDays < 0 {
		return PurgeResult{}, invalid("retention_days", "must not be negative")
	}

	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	candidates, err := s.store.GetCompletedBefore(ctx, s.owner, cutoff)
	if err != nil {
		return PurgeResult{}, fmt.Errorf("find completed tasks: %w", err)
	}
	if len(candidates) == 0 {
		return PurgeResult{}, nil
	}

	var res PurgeResult
	ids := make([]int64, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		ids = append(ids, t.ID)
		if t.ExternalEventID == nil {
			continue
		}
		if r := s.deleteEvent(ctx, t); r.Err != nil {
			res.SyncErr = multierr.Append(res.SyncErr, r.Err)
		}
	}

	res.Deleted, err = s.store.DeleteCompletedBefore(ctx, s.owner, cutoff, ids)
	if err != nil {
		return res, fmt.Errorf("purge completed tasks: %w", err)
	}
	s.invalidate()

	return res, nil
}

// CountTasks returns the number of tasks of the owner
func (s *Service) CountTasks(ctx context.Context) (int, error) {
	return s.store.CountTasks(ctx, s.owner)
}

// GetTask returns a task of the owner
func (s *Service) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.OwnerID != s.owner {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// resolvePatch validates patch and turns it into store column changes
func (s *Service) resolvePatch(ctx context.Context, p model.TaskPatch) (db.TaskChanges, error) {
	var c db.TaskChanges

	if p.Title.Supplied() {
		title, ok := p.Title.Get()
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			return c, invalid("title", "must not be empty")
		}
		c.Title = &title
	}

	if p.Description.Supplied() {
		desc, _ := p.Description.Get()
		if normalized := normalizeDescription(desc); normalized != nil {
			c.Description = normalized
		} else {
			c.ClearDescription = true
		}
	}

	if p.Deadline.Supplied() {
		if p.Deadline.IsClear() {
			c.ClearDeadline = true
		} else {
			c.Deadline = p.Deadline.Ptr()
		}
	}

	if p.Status.Supplied() {
		status, ok := p.Status.Get()
		if !ok {
			return c, invalid("status", "cannot be cleared")
		}
		if !status.Valid() {
			return c, invalid("status", fmt.Sprintf("unknown status %q", status))
		}
		c.Status = &status
	}

	if p.ProjectID.Supplied() {
		if p.ProjectID.IsClear() {
			c.ClearProject = true
		} else {
			projectID, _ := p.ProjectID.Get()
			if _, err := s.ownProject(ctx, projectID); err != nil {
				return c, err
			}
			c.ProjectID = &projectID
		}
	}

	return c, nil
}

// normalizeDescription maps blank descriptions to absent
func normalizeDescription(desc string) *string {
	if strings.TrimSpace(desc) == "" {
		return nil
	}
	return &desc
}
