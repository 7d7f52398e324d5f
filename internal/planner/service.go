// Package planner implements the task and project operations on top of the
// store, the read cache and the optional calendar.
package planner

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/dori/planner/internal/cache"
	"github.com/dori/planner/internal/calendar"
	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/stats"
)

// Store is the persistence the service needs. *db.DB implements it.
type Store interface {
	QueryTasks(ctx context.Context, owner int64, f model.Filter, today model.Date) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, nt db.NewTask) (int64, error)
	UpdateTask(ctx context.Context, id int64, c db.TaskChanges) (bool, error)
	SetTaskStatus(ctx context.Context, id int64, status model.Status) (bool, error)
	SetExternalEvent(ctx context.Context, id int64, eventID *string, syncPending bool) error
	DeleteTask(ctx context.Context, id int64) (bool, error)
	CountTasks(ctx context.Context, owner int64) (int, error)
	GetCompletedBefore(ctx context.Context, owner int64, cutoff time.Time) ([]model.Task, error)
	DeleteCompletedBefore(ctx context.Context, owner int64, cutoff time.Time, ids []int64) (int64, error)
	GetSyncPending(ctx context.Context, owner int64) ([]model.Task, error)

	GetProjects(ctx context.Context, owner int64) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	CreateProject(ctx context.Context, name string, owner int64) (int64, error)
	AdoptLegacyRows(ctx context.Context, owner, legacyOwner int64) (db.AdoptResult, error)
}

// UpcomingDays is the window of the upcoming panel
const UpcomingDays = 7

// Config configures a Service
type Config struct {
	// Owner scopes every read and write
	Owner int64
	// Calendar receives task changes; nil disables sync
	Calendar calendar.Adapter
	// Cache holds listings between writes; nil disables caching
	Cache *cache.ReadCache
	// Logger receives calendar failures; nil discards them
	Logger *log.Logger
	// Now is the clock used for today and purge cutoffs
	Now func() time.Time
}

// Service runs the task lifecycle for one owner
type Service struct {
	store Store
	owner int64
	cal   calendar.Adapter
	cache *cache.ReadCache
	log   *log.Logger
	now   func() time.Time
}

// New creates a Service over store
func New(store Store, cfg Config) *Service {
	s := &Service{
		store: store,
		owner: cfg.Owner,
		cal:   cfg.Calendar,
		cache: cfg.Cache,
		log:   cfg.Logger,
		now:   cfg.Now,
	}
	if s.log == nil {
		s.log = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Owner returns the owner the service is scoped to
func (s *Service) Owner() int64 {
	return s.owner
}

// Today returns the current date of the service clock
func (s *Service) Today() model.Date {
	return model.DateOf(s.now())
}

// ListTasks returns the owner's tasks matching f in listing order.
// Relative filters are evaluated against today's date at call time.
func (s *Service) ListTasks(ctx context.Context, f model.Filter) ([]model.Task, error) {
	today := s.Today()
	load := func() ([]model.Task, error) {
		return s.store.QueryTasks(ctx, s.owner, f, today)
	}
	if s.cache == nil {
		return load()
	}
	return s.cache.Tasks(f.Key()+"|today="+today.String(), load)
}

// ListProjects returns the owner's projects ordered by name, with task counts
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	load := func() ([]model.Project, error) {
		return s.store.GetProjects(ctx, s.owner)
	}
	if s.cache == nil {
		return load()
	}
	return s.cache.Projects(s.owner, load)
}

// Statistics summarizes the tasks matching f
func (s *Service) Statistics(ctx context.Context, f model.Filter) (stats.Statistics, error) {
	tasks, err := s.ListTasks(ctx, f)
	if err != nil {
		return stats.Statistics{}, err
	}
	return stats.Compute(tasks, s.Today()), nil
}

// Upcoming returns open tasks due within the next UpcomingDays days
func (s *Service) Upcoming(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.ListTasks(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}
	return stats.Upcoming(tasks, s.Today(), UpcomingDays), nil
}

// Board returns the tasks matching f grouped into status lanes
func (s *Service) Board(ctx context.Context, f model.Filter) ([]stats.Column, error) {
	tasks, err := s.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	return stats.Board(tasks, s.Today(), stats.CardsPerColumn), nil
}

// Urgent returns open tasks that are overdue or due today
func (s *Service) Urgent(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.ListTasks(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}

	today := s.Today()
	var urgent []model.Task
	for i := range tasks {
		if stats.ClassifyTask(&tasks[i], today).Class == stats.ClassUrgent {
			urgent = append(urgent, tasks[i])
		}
	}
	return urgent, nil
}

// UpcomingEvents lists the next limit events of the calendar
func (s *Service) UpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	if s.cal == nil {
		return nil, ErrCalendarDisabled
	}
	if !s.cal.Available() {
		return nil, ErrCalendarUnavailable
	}
	return s.cal.ListUpcoming(ctx, limit)
}

// CalendarEnabled reports whether a calendar is configured
func (s *Service) CalendarEnabled() bool {
	return s.cal != nil
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
}
