package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dori/planner/internal/cache"
	"github.com/dori/planner/internal/calendar"
	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/model"
)

const owner int64 = 209010651

// fakeCalendar records calls and keeps events in memory
type fakeCalendar struct {
	unavailable bool
	createErr   error
	updateErr   error
	deleteErr   error

	events map[string]model.Task
	next   int
	calls  []string
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]model.Task)}
}

func (f *fakeCalendar) Available() bool { return !f.unavailable }

func (f *fakeCalendar) CreateEvent(ctx context.Context, task *model.Task) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("create %d", task.ID))
	if f.createErr != nil {
		return "", f.createErr
	}
	f.next++
	id := fmt.Sprintf("evt%d", f.next)
	f.events[id] = *task
	return id, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, eventID string, task *model.Task) error {
	f.calls = append(f.calls, "update "+eventID)
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.events[eventID]; !ok {
		return calendar.ErrNotFound
	}
	f.events[eventID] = *task
	return nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.calls = append(f.calls, "delete "+eventID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.events, eventID)
	return nil
}

func (f *fakeCalendar) ListUpcoming(ctx context.Context, limit int) ([]calendar.Event, error) {
	var out []calendar.Event
	for id, t := range f.events {
		out = append(out, calendar.Event{ID: id, Summary: t.Title, TaskID: t.ID, AllDay: true})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type testEnv struct {
	svc   *Service
	store *db.DB
	cal   *fakeCalendar
	logs  *bytes.Buffer
	now   time.Time
}

func newTestEnv(t *testing.T, withCalendar bool) *testEnv {
	t.Helper()

	store, err := db.Open(context.Background(), db.Options{DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{store: store, logs: &bytes.Buffer{}, now: time.Now()}
	cfg := Config{
		Owner:  owner,
		Cache:  cache.New(cache.Config{}),
		Logger: log.New(env.logs, "", 0),
		Now:    func() time.Time { return env.now },
	}
	if withCalendar {
		env.cal = newFakeCalendar()
		cfg.Calendar = env.cal
	}
	env.svc = New(store, cfg)
	return env
}

func (e *testEnv) today() model.Date {
	return model.DateOf(e.now)
}

func (e *testEnv) due(offset int) *model.Date {
	d := e.today().AddDays(offset)
	return &d
}

func (e *testEnv) mustCreate(t *testing.T, in NewTask) int64 {
	t.Helper()
	res, err := e.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", in.Title, err)
	}
	return res.ID
}

func (e *testEnv) mustGet(t *testing.T, id int64) *model.Task {
	t.Helper()
	task, err := e.svc.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask(%d) failed: %v", id, err)
	}
	return task
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := env.svc.Create(ctx, NewTask{Title: title, Deadline: env.due(1)})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create(%q): expected ValidationError, got %v", title, err)
		}
		if verr.Field != "title" {
			t.Errorf("Field: got %q, want title", verr.Field)
		}
	}

	count, err := env.svc.CountTasks(ctx)
	if err != nil {
		t.Fatalf("CountTasks failed: %v", err)
	}
	if count != 0 {
		t.Errorf("rows inserted after failed creates: %d", count)
	}
	if len(env.cal.calls) != 0 {
		t.Errorf("calendar called for invalid task: %v", env.cal.calls)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	projectID, err := env.svc.CreateProject(ctx, "Home")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	// warm the cache so the write must invalidate it
	if _, err := env.svc.ListTasks(ctx, model.Filter{}); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	res, err := env.svc.Create(ctx, NewTask{
		Title:       "  Water plants  ",
		Description: "the ficus",
		Deadline:    env.due(2),
		Status:      model.StatusInProgress,
		ProjectID:   &projectID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Sync.Attempted || res.Sync.Failed() {
		t.Errorf("no calendar configured, got %+v", res.Sync)
	}

	tasks, err := env.svc.ListTasks(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	got := tasks[0]
	if got.ID != res.ID || got.Title != "Water plants" {
		t.Errorf("task: got id=%d title=%q", got.ID, got.Title)
	}
	if got.Description == nil || *got.Description != "the ficus" {
		t.Errorf("Description: got %v", got.Description)
	}
	if got.Deadline == nil || !got.Deadline.Equal(*env.due(2)) {
		t.Errorf("Deadline: got %v", got.Deadline)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.ProjectID == nil || *got.ProjectID != projectID {
		t.Errorf("ProjectID: got %v", got.ProjectID)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt should be absent, got %v", got.CompletedAt)
	}
}

func TestCreateBlankDescriptionIsAbsent(t *testing.T) {
	env := newTestEnv(t, false)

	id := env.mustCreate(t, NewTask{Title: "a", Description: "   "})
	if task := env.mustGet(t, id); task.Description != nil {
		t.Errorf("Description: got %q, want absent", *task.Description)
	}
}

func TestCreateValidatesStatusAndProject(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, NewTask{Title: "a", Status: model.StatusOverdue}); !IsValidation(err) {
		t.Errorf("overdue is not writable, got %v", err)
	}

	missing := int64(999)
	if _, err := env.svc.Create(ctx, NewTask{Title: "a", ProjectID: &missing}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project: expected ErrNotFound, got %v", err)
	}

	foreign, err := env.store.CreateProject(ctx, "theirs", 1)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := env.svc.Create(ctx, NewTask{Title: "a", ProjectID: &foreign}); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign project: expected ErrNotFound, got %v", err)
	}

	if count, _ := env.svc.CountTasks(ctx); count != 0 {
		t.Errorf("rows inserted: %d", count)
	}
}

func TestCreateSyncsEvent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	res, err := env.svc.Create(ctx, NewTask{Title: "Dentist", Deadline: env.due(3)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !res.Sync.Attempted || res.Sync.Failed() || res.Sync.EventID == "" {
		t.Fatalf("unexpected sync result: %+v", res.Sync)
	}

	task := env.mustGet(t, res.ID)
	if task.ExternalEventID == nil || *task.ExternalEventID != res.Sync.EventID {
		t.Errorf("ExternalEventID: got %v, want %q", task.ExternalEventID, res.Sync.EventID)
	}
	if task.SyncPending {
		t.Error("SyncPending should be false after a good sync")
	}

	// no deadline means no event
	res, err = env.svc.Create(ctx, NewTask{Title: "Someday"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Sync.Attempted {
		t.Error("task without deadline should not be synced")
	}
	if len(env.cal.events) != 1 {
		t.Errorf("expected 1 event, got %d", len(env.cal.events))
	}
}

func TestCreateSurvivesCalendarFailure(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.cal.createErr = errors.New("quota exceeded")

	res, err := env.svc.Create(ctx, NewTask{Title: "Pay rent", Deadline: env.due(1)})
	if err != nil {
		t.Fatalf("Create should succeed when the calendar fails, got %v", err)
	}
	if !res.Sync.Failed() {
		t.Fatal("sync failure should be reported")
	}
	var serr *SyncError
	if !errors.As(res.Sync.Err, &serr) || serr.Op != "create" || serr.TaskID != res.ID {
		t.Errorf("expected SyncError for create, got %v", res.Sync.Err)
	}

	task := env.mustGet(t, res.ID)
	if task.ExternalEventID != nil {
		t.Errorf("ExternalEventID should be absent, got %q", *task.ExternalEventID)
	}
	if !task.SyncPending {
		t.Error("SyncPending should record the failed attempt")
	}
	if !strings.Contains(env.logs.String(), "quota exceeded") {
		t.Errorf("failure not logged: %q", env.logs.String())
	}
}

func TestCreateWithUnavailableCalendar(t *testing.T) {
	env := newTestEnv(t, true)
	env.cal.unavailable = true

	res, err := env.svc.Create(context.Background(), NewTask{Title: "x", Deadline: env.due(1)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Sync.Attempted {
		t.Error("unavailable calendar must not be called")
	}
	if !errors.Is(res.Sync.Err, ErrCalendarUnavailable) {
		t.Errorf("expected ErrCalendarUnavailable, got %v", res.Sync.Err)
	}
	if len(env.cal.calls) != 0 {
		t.Errorf("calls on unavailable calendar: %v", env.cal.calls)
	}
	if task := env.mustGet(t, res.ID); !task.SyncPending {
		t.Error("task should be flagged for resync")
	}
}

func TestSetStatusCompletedAt(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Ship", Deadline: env.due(1)})

	sync, err := env.svc.SetStatus(ctx, id, model.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if !sync.Attempted || sync.Failed() {
		t.Errorf("expected event update, got %+v", sync)
	}
	task := env.mustGet(t, id)
	if task.CompletedAt == nil {
		t.Fatal("completed_at should be set")
	}
	if ev := env.cal.events[*task.ExternalEventID]; ev.Status != model.StatusCompleted {
		t.Errorf("event not updated with status, got %q", ev.Status)
	}

	if _, err := env.svc.SetStatus(ctx, id, model.StatusPending); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if task := env.mustGet(t, id); task.CompletedAt != nil {
		t.Errorf("completed_at should be cleared, got %v", task.CompletedAt)
	}
}

func TestSetStatusErrors(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	if _, err := env.svc.SetStatus(ctx, 42, model.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	id := env.mustCreate(t, NewTask{Title: "a"})
	if _, err := env.svc.SetStatus(ctx, id, "archived"); !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if _, err := env.svc.SetStatus(ctx, id, model.StatusOverdue); !IsValidation(err) {
		t.Errorf("overdue must not be written, got %v", err)
	}
}

func TestSetStatusAnyTransition(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	id := env.mustCreate(t, NewTask{Title: "a"})

	for _, from := range model.Statuses {
		for _, to := range model.Statuses {
			if _, err := env.svc.SetStatus(ctx, id, from); err != nil {
				t.Fatalf("SetStatus(%s) failed: %v", from, err)
			}
			if _, err := env.svc.SetStatus(ctx, id, to); err != nil {
				t.Fatalf("%s -> %s failed: %v", from, to, err)
			}
			task := env.mustGet(t, id)
			if task.Status != to {
				t.Errorf("%s -> %s: status is %s", from, to, task.Status)
			}
			if (task.CompletedAt != nil) != (to == model.StatusCompleted) {
				t.Errorf("%s -> %s: completed_at=%v", from, to, task.CompletedAt)
			}
		}
	}
}

func TestUpdateFields(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	projectID, _ := env.svc.CreateProject(ctx, "Work")
	id := env.mustCreate(t, NewTask{
		Title:       "Report",
		Description: "draft",
		Deadline:    env.due(2),
		ProjectID:   &projectID,
	})

	sync, err := env.svc.UpdateFields(ctx, id, model.TaskPatch{
		Title:       model.Set("Final report"),
		Description: model.Clear[string](),
		ProjectID:   model.Clear[int64](),
	})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if !sync.Attempted || sync.Failed() {
		t.Errorf("expected event update, got %+v", sync)
	}

	task := env.mustGet(t, id)
	if task.Title != "Final report" || task.Description != nil || task.ProjectID != nil {
		t.Errorf("unexpected task after update: %+v", task)
	}
	if task.Deadline == nil {
		t.Error("omitted deadline must be left alone")
	}
	if ev := env.cal.events[*task.ExternalEventID]; ev.Title != "Final report" {
		t.Errorf("event title: got %q", ev.Title)
	}
}

func TestUpdateFieldsClearDeadlineRemovesEvent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Trip", Deadline: env.due(5)})
	eventID := *env.mustGet(t, id).ExternalEventID

	sync, err := env.svc.UpdateFields(ctx, id, model.TaskPatch{Deadline: model.Clear[model.Date]()})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if sync.Failed() {
		t.Fatalf("sync failed: %v", sync.Err)
	}

	task := env.mustGet(t, id)
	if task.Deadline != nil || task.ExternalEventID != nil {
		t.Errorf("deadline and reference should be cleared: %+v", task)
	}
	if _, ok := env.cal.events[eventID]; ok {
		t.Error("event should be deleted")
	}
}

func TestUpdateFieldsRecreatesMissingEvent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Trip", Deadline: env.due(5)})
	old := *env.mustGet(t, id).ExternalEventID
	delete(env.cal.events, old)

	sync, err := env.svc.UpdateFields(ctx, id, model.TaskPatch{Deadline: model.Set(*env.due(6))})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if sync.Failed() || sync.EventID == "" || sync.EventID == old {
		t.Errorf("expected a replacement event, got %+v", sync)
	}
	if task := env.mustGet(t, id); task.ExternalEventID == nil || *task.ExternalEventID != sync.EventID {
		t.Errorf("reference not updated: %v", task.ExternalEventID)
	}
}

func TestUpdateFieldsUpdateFailureKeepsLocalChange(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Trip", Deadline: env.due(5)})
	env.cal.updateErr = errors.New("backend error")

	sync, err := env.svc.UpdateFields(ctx, id, model.TaskPatch{Title: model.Set("Road trip")})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if !sync.Failed() {
		t.Fatal("expected sync failure")
	}

	task := env.mustGet(t, id)
	if task.Title != "Road trip" {
		t.Errorf("local update lost: %q", task.Title)
	}
	if task.ExternalEventID == nil || !task.SyncPending {
		t.Errorf("task should keep its reference and be flagged: %+v", task)
	}
}

func TestUpdateFieldsValidation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	id := env.mustCreate(t, NewTask{Title: "keep me"})

	tests := []struct {
		name  string
		patch model.TaskPatch
	}{
		{"clear title", model.TaskPatch{Title: model.Clear[string]()}},
		{"blank title", model.TaskPatch{Title: model.Set("  ")}},
		{"clear status", model.TaskPatch{Status: model.Clear[model.Status]()}},
		{"bad status", model.TaskPatch{Status: model.Set(model.Status("done"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.UpdateFields(ctx, id, tt.patch); !IsValidation(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	if task := env.mustGet(t, id); task.Title != "keep me" {
		t.Errorf("task changed by rejected patches: %q", task.Title)
	}

	if _, err := env.svc.UpdateFields(ctx, 777, model.TaskPatch{Title: model.Set("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFieldsNormalizesLegacyStatus(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	if _, err := env.store.Exec(ctx, `INSERT INTO tasks (owner_id, title, status) VALUES (?, ?, 'overdue')`, owner, "old"); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	tasks, _ := env.svc.ListTasks(ctx, model.Filter{})
	if len(tasks) != 1 {
		t.Fatalf("expected the legacy row, got %d tasks", len(tasks))
	}

	if _, err := env.svc.UpdateFields(ctx, tasks[0].ID, model.TaskPatch{Title: model.Set("renamed")}); err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if task := env.mustGet(t, tasks[0].ID); task.Status != model.StatusPending {
		t.Errorf("legacy status not normalized: %q", task.Status)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Temp", Deadline: env.due(1)})
	eventID := *env.mustGet(t, id).ExternalEventID

	sync, err := env.svc.Delete(ctx, id)
	if err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if !sync.Attempted || sync.Failed() {
		t.Errorf("expected event deletion, got %+v", sync)
	}
	if _, ok := env.cal.events[eventID]; ok {
		t.Error("event still present")
	}

	if _, err := env.svc.Delete(ctx, id); err != nil {
		t.Errorf("second Delete should succeed, got %v", err)
	}
	if count, _ := env.svc.CountTasks(ctx); count != 0 {
		t.Errorf("task still stored: %d", count)
	}
}

func TestDeleteCalendarFailureStillDeletes(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	id := env.mustCreate(t, NewTask{Title: "Temp", Deadline: env.due(1)})
	env.cal.deleteErr = errors.New("timeout")

	sync, err := env.svc.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !sync.Failed() {
		t.Error("calendar failure should be reported")
	}
	if count, _ := env.svc.CountTasks(ctx); count != 0 {
		t.Errorf("task should be deleted, %d left", count)
	}
}

func TestDeleteKeepsProject(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	projectID, _ := env.svc.CreateProject(ctx, "Keep")
	id := env.mustCreate(t, NewTask{Title: "a", ProjectID: &projectID})
	if _, err := env.svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	projects, err := env.svc.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 || projects[0].TaskCount != 0 {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	if _, err := env.svc.CreateProject(ctx, " "); !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	a, err := env.svc.CreateProject(ctx, "Same")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	b, err := env.svc.CreateProject(ctx, "Same")
	if err != nil {
		t.Fatalf("duplicate names are allowed, got %v", err)
	}
	if a == b {
		t.Error("projects share an id")
	}
}

func TestPurgeCompleted(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	done := env.mustCreate(t, NewTask{Title: "done", Deadline: env.due(-1)})
	open := env.mustCreate(t, NewTask{Title: "open"})
	if _, err := env.svc.SetStatus(ctx, done, model.StatusCompleted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	eventID := *env.mustGet(t, done).ExternalEventID

	res, err := env.svc.PurgeCompleted(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeCompleted failed: %v", err)
	}
	if res.Deleted != 0 {
		t.Errorf("fresh completion purged: %+v", res)
	}

	// forty days later
	env.now = env.now.Add(40 * 24 * time.Hour)
	res, err = env.svc.PurgeCompleted(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeCompleted failed: %v", err)
	}
	if res.Deleted != 1 || res.SyncErr != nil {
		t.Errorf("unexpected purge result: %+v", res)
	}
	if _, ok := env.cal.events[eventID]; ok {
		t.Error("event of purged task still present")
	}
	if task, err := env.svc.GetTask(ctx, open); err != nil || task == nil {
		t.Errorf("open task purged: %v", err)
	}

	res, err = env.svc.PurgeCompleted(ctx, 30)
	if err != nil || res.Deleted != 0 {
		t.Errorf("second purge should be a no-op, got %+v, %v", res, err)
	}

	if _, err := env.svc.PurgeCompleted(ctx, -1); !IsValidation(err) {
		t.Errorf("negative retention: expected ValidationError, got %v", err)
	}
}

func TestPurgeCollectsCalendarFailures(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		env.mustCreate(t, NewTask{Title: "done", Deadline: env.due(1), Status: model.StatusCompleted})
	}
	env.cal.deleteErr = errors.New("offline")
	env.now = env.now.Add(40 * 24 * time.Hour)

	res, err := env.svc.PurgeCompleted(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeCompleted failed: %v", err)
	}
	if res.Deleted != 2 {
		t.Errorf("Deleted: got %d, want 2", res.Deleted)
	}
	var serr *SyncError
	if !errors.As(res.SyncErr, &serr) {
		t.Errorf("expected SyncError in %v", res.SyncErr)
	}
	if n := strings.Count(res.SyncErr.Error(), "offline"); n != 2 {
		t.Errorf("expected 2 combined failures, got %d in %q", n, res.SyncErr)
	}
}

func TestResyncPending(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	env.cal.createErr = errors.New("down")
	a := env.mustCreate(t, NewTask{Title: "a", Deadline: env.due(1)})
	b := env.mustCreate(t, NewTask{Title: "b", Deadline: env.due(2)})

	// once b has no deadline there is nothing left to sync for it
	if _, err := env.svc.UpdateFields(ctx, b, model.TaskPatch{Deadline: model.Clear[model.Date]()}); err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if taskB := env.mustGet(t, b); taskB.SyncPending || taskB.ExternalEventID != nil {
		t.Errorf("task b should be settled without an event: %+v", taskB)
	}

	env.cal.createErr = nil
	res, err := env.svc.ResyncPending(ctx)
	if err != nil {
		t.Fatalf("ResyncPending failed: %v", err)
	}
	if res.Synced != 1 || res.Failed != 0 {
		t.Errorf("unexpected resync result: %+v", res)
	}

	taskA := env.mustGet(t, a)
	if taskA.ExternalEventID == nil || taskA.SyncPending {
		t.Errorf("task a not synced: %+v", taskA)
	}

	res, err = env.svc.ResyncPending(ctx)
	if err != nil || res.Synced != 0 {
		t.Errorf("nothing left to resync, got %+v, %v", res, err)
	}
}

func TestResyncWithoutCalendar(t *testing.T) {
	env := newTestEnv(t, false)
	if _, err := env.svc.ResyncPending(context.Background()); !errors.Is(err, ErrCalendarDisabled) {
		t.Errorf("expected ErrCalendarDisabled, got %v", err)
	}
	if _, err := env.svc.UpcomingEvents(context.Background(), 5); !errors.Is(err, ErrCalendarDisabled) {
		t.Errorf("expected ErrCalendarDisabled, got %v", err)
	}
}

func TestUpcomingEvents(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustCreate(t, NewTask{Title: "Dentist", Deadline: env.due(1)})

	events, err := env.svc.UpcomingEvents(context.Background(), 5)
	if err != nil {
		t.Fatalf("UpcomingEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Dentist" {
		t.Errorf("unexpected events: %+v", events)
	}

	env.cal.unavailable = true
	if _, err := env.svc.UpcomingEvents(context.Background(), 5); !errors.Is(err, ErrCalendarUnavailable) {
		t.Errorf("expected ErrCalendarUnavailable, got %v", err)
	}
}

func TestStatisticsAndOrdering(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	ids := []int64{
		env.mustCreate(t, NewTask{Title: "none", Status: model.StatusPending}),
		env.mustCreate(t, NewTask{Title: "tomorrow", Deadline: env.due(1), Status: model.StatusCompleted}),
		env.mustCreate(t, NewTask{Title: "today", Deadline: env.due(0), Status: model.StatusInProgress}),
		env.mustCreate(t, NewTask{Title: "yesterday", Deadline: env.due(-1), Status: model.StatusPending}),
	}

	s, err := env.svc.Statistics(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if s.Total != 4 || s.Pending != 2 || s.InProgress != 1 || s.Completed != 1 ||
		s.Overdue != 1 || s.DueToday != 1 || s.DueTomorrow != 1 {
		t.Errorf("unexpected statistics: %+v", s)
	}

	tasks, _ := env.svc.ListTasks(ctx, model.Filter{})
	want := []int64{ids[3], ids[2], ids[1], ids[0]}
	for i, task := range tasks {
		if task.ID != want[i] {
			t.Errorf("position %d: got %d, want %d", i, task.ID, want[i])
		}
	}

	upcoming, _ := env.svc.Upcoming(ctx)
	if len(upcoming) != 1 || upcoming[0].ID != ids[2] {
		t.Errorf("upcoming: got %+v", upcoming)
	}

	urgent, _ := env.svc.Urgent(ctx)
	if len(urgent) != 2 {
		t.Errorf("urgent: got %d tasks, want 2", len(urgent))
	}

	board, _ := env.svc.Board(ctx, model.Filter{})
	if len(board) != 4 || len(board[3].Tasks) != 1 || board[3].Tasks[0].ID != ids[3] {
		t.Errorf("overdue lane: got %+v", board)
	}
}

func TestAdoptLegacy(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	if _, err := env.store.CreateProject(ctx, "web", 1); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := env.svc.AdoptLegacy(ctx, owner); !IsValidation(err) {
		t.Errorf("adopting from self: expected ValidationError, got %v", err)
	}

	res, err := env.svc.AdoptLegacy(ctx, 1)
	if err != nil {
		t.Fatalf("AdoptLegacy failed: %v", err)
	}
	if res.ProjectsUpdated != 1 {
		t.Errorf("ProjectsUpdated: got %d", res.ProjectsUpdated)
	}
	projects, _ := env.svc.ListProjects(ctx)
	if len(projects) != 1 {
		t.Errorf("adopted project not listed: %+v", projects)
	}
}

func TestStoreUnavailable(t *testing.T) {
	env := newTestEnv(t, false)
	env.store.Close()

	_, err := env.svc.ListTasks(context.Background(), model.Filter{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	_, err = env.svc.Create(context.Background(), NewTask{Title: "x"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable on write, got %v", err)
	}
}
