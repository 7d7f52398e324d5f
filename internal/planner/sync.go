package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/dori/planner/internal/calendar"
	"github.com/dori/planner/internal/model"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opRecord = "record"
)

// syncOp picks the calendar call that brings t's event up to date
func syncOp(t *model.Task) string {
	switch {
	case t.ExternalEventID != nil && t.Deadline == nil:
		return opDelete
	case t.ExternalEventID != nil:
		return opUpdate
	case t.Deadline != nil:
		return opCreate
	}
	return ""
}

// syncByID reloads a task after a committed write and syncs it
func (s *Service) syncByID(ctx context.Context, id int64) SyncResult {
	if s.cal == nil {
		return SyncResult{}
	}

	t, err := s.store.GetTask(ctx, id)
	if err == nil && t == nil {
		err = ErrNotFound
	}
	if err != nil {
		serr := &SyncError{Op: "load", TaskID: id, Err: err}
		s.log.Print(serr)
		return SyncResult{Err: serr}
	}
	return s.syncTask(ctx, t)
}

// syncTask makes the calendar match t. The store is the source of truth: on
// failure the task keeps its reference and is flagged sync pending.
func (s *Service) syncTask(ctx context.Context, t *model.Task) SyncResult {
	if s.cal == nil {
		return SyncResult{}
	}

	op := syncOp(t)
	if op == "" {
		if t.SyncPending {
			return s.record(ctx, t.ID, nil, SyncResult{})
		}
		return SyncResult{}
	}

	if !s.cal.Available() {
		return s.fail(ctx, t, op, ErrCalendarUnavailable, false)
	}

	switch op {
	case opCreate:
		return s.createEvent(ctx, t)

	case opUpdate:
		err := s.cal.UpdateEvent(ctx, *t.ExternalEventID, t)
		if errors.Is(err, calendar.ErrNotFound) {
			// the event was removed on the calendar side; put it back
			s.log.Printf("calendar: event %s of task %d is gone, creating a new one", *t.ExternalEventID, t.ID)
			return s.createEvent(ctx, t)
		}
		if err != nil {
			return s.fail(ctx, t, op, err, true)
		}
		res := SyncResult{Attempted: true, EventID: *t.ExternalEventID}
		if t.SyncPending {
			return s.record(ctx, t.ID, t.ExternalEventID, res)
		}
		return res

	default:
		if err := s.cal.DeleteEvent(ctx, *t.ExternalEventID); err != nil {
			return s.fail(ctx, t, op, err, true)
		}
		return s.record(ctx, t.ID, nil, SyncResult{Attempted: true})
	}
}

func (s *Service) createEvent(ctx context.Context, t *model.Task) SyncResult {
	eventID, err := s.cal.CreateEvent(ctx, t)
	if err != nil {
		// a stale reference is dropped so the next pass creates again
		t.ExternalEventID = nil
		return s.fail(ctx, t, opCreate, err, true)
	}
	return s.record(ctx, t.ID, &eventID, SyncResult{Attempted: true, EventID: eventID})
}

// deleteEvent removes the event of a task whose row is gone or going
func (s *Service) deleteEvent(ctx context.Context, t *model.Task) SyncResult {
	if s.cal == nil || t.ExternalEventID == nil {
		return SyncResult{}
	}

	eventID := *t.ExternalEventID
	if !s.cal.Available() {
		serr := &SyncError{Op: opDelete, TaskID: t.ID, Err: ErrCalendarUnavailable}
		s.log.Printf("%v (event %s left behind)", serr, eventID)
		return SyncResult{Err: serr}
	}
	if err := s.cal.DeleteEvent(ctx, eventID); err != nil {
		serr := &SyncError{Op: opDelete, TaskID: t.ID, Err: err}
		s.log.Printf("%v (event %s left behind)", serr, eventID)
		return SyncResult{Attempted: true, Err: serr}
	}
	return SyncResult{Attempted: true}
}

// fail flags t as sync pending, keeping whatever reference it has
func (s *Service) fail(ctx context.Context, t *model.Task, op string, err error, attempted bool) SyncResult {
	serr := &SyncError{Op: op, TaskID: t.ID, Err: err}
	s.log.Print(serr)

	res := SyncResult{Attempted: attempted, Err: serr}
	if t.ExternalEventID != nil {
		res.EventID = *t.ExternalEventID
	}
	if rerr := s.store.SetExternalEvent(ctx, t.ID, t.ExternalEventID, true); rerr != nil {
		s.log.Printf("calendar: flag task %d for resync: %v", t.ID, rerr)
		res.Err = multierr.Append(res.Err, &SyncError{Op: opRecord, TaskID: t.ID, Err: rerr})
	}
	s.invalidate()
	return res
}

// record stores the event reference of a task after a calendar call
func (s *Service) record(ctx context.Context, id int64, eventID *string, res SyncResult) SyncResult {
	if err := s.store.SetExternalEvent(ctx, id, eventID, false); err != nil {
		serr := &SyncError{Op: opRecord, TaskID: id, Err: err}
		if eventID != nil {
			s.log.Printf("%v (event %s is not referenced)", serr, *eventID)
		} else {
			s.log.Print(serr)
		}
		res.Err = serr
	}
	s.invalidate()
	return res
}

// ResyncPending retries the calendar side of every task flagged sync pending
func (s *Service) ResyncPending(ctx context.Context) (ResyncResult, error) {
	if s.cal == nil {
		return ResyncResult{}, ErrCalendarDisabled
	}
	if !s.cal.Available() {
		return ResyncResult{}, ErrCalendarUnavailable
	}

	tasks, err := s.store.GetSyncPending(ctx, s.owner)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("find tasks to resync: %w", err)
	}

	var res ResyncResult
	for i := range tasks {
		r := s.syncTask(ctx, &tasks[i])
		if r.Failed() {
			res.Failed++
			res.Err = multierr.Append(res.Err, r.Err)
			continue
		}
		res.Synced++
	}
	return res, nil
}
