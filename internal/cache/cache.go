// Package cache holds short-lived read results for task and project listings.
package cache

import (
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dori/planner/internal/model"
)

// Default lifetimes of cached listings
const (
	DefaultTasksTTL    = 30 * time.Second
	DefaultProjectsTTL = 5 * time.Minute
)

// Config sets the lifetime of each listing kind. A negative TTL disables caching for that kind.
type Config struct {
	TasksTTL    time.Duration
	ProjectsTTL time.Duration
}

// ReadCache caches task listings by filter key and project listings by owner.
// Entries only expire by age; InvalidateAll drops everything after a write.
type ReadCache struct {
	tasks    *ttlcache.Cache[string, []model.Task]
	projects *ttlcache.Cache[int64, []model.Project]

	tasksTTL    time.Duration
	projectsTTL time.Duration

	group singleflight.Group
	// generation is bumped by InvalidateAll; a load that started before
	// the bump does not store its result.
	generation atomic.Uint64
}

// New creates a ReadCache
func New(cfg Config) *ReadCache {
	if cfg.TasksTTL == 0 {
		cfg.TasksTTL = DefaultTasksTTL
	}
	if cfg.ProjectsTTL == 0 {
		cfg.ProjectsTTL = DefaultProjectsTTL
	}

	return &ReadCache{
		tasks: ttlcache.New[string, []model.Task](
			ttlcache.WithTTL[string, []model.Task](cfg.TasksTTL),
			ttlcache.WithDisableTouchOnHit[string, []model.Task](),
		),
		projects: ttlcache.New[int64, []model.Project](
			ttlcache.WithTTL[int64, []model.Project](cfg.ProjectsTTL),
			ttlcache.WithDisableTouchOnHit[int64, []model.Project](),
		),
		tasksTTL:    cfg.TasksTTL,
		projectsTTL: cfg.ProjectsTTL,
	}
}

// Tasks returns the cached listing for key, calling load on a miss.
// Concurrent misses for the same key share one load.
func (c *ReadCache) Tasks(key string, load func() ([]model.Task, error)) ([]model.Task, error) {
	if c.tasksTTL < 0 {
		return load()
	}
	if item := c.tasks.Get(key); item != nil {
		return slices.Clone(item.Value()), nil
	}

	gen := c.generation.Load()
	v, err, _ := c.group.Do("tasks:"+key, func() (interface{}, error) {
		tasks, err := load()
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.tasks.Set(key, tasks, ttlcache.DefaultTTL)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Task)), nil
}

// Projects returns the cached project listing of owner, calling load on a miss
func (c *ReadCache) Projects(owner int64, load func() ([]model.Project, error)) ([]model.Project, error) {
	if c.projectsTTL < 0 {
		return load()
	}
	if item := c.projects.Get(owner); item != nil {
		return slices.Clone(item.Value()), nil
	}

	gen := c.generation.Load()
	v, err, _ := c.group.Do("projects:"+strconv.FormatInt(owner, 10), func() (interface{}, error) {
		projects, err := load()
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.projects.Set(owner, projects, ttlcache.DefaultTTL)
		}
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Project)), nil
}

// InvalidateAll drops every cached listing
func (c *ReadCache) InvalidateAll() {
	c.generation.Add(1)
	c.tasks.DeleteAll()
	c.projects.DeleteAll()
}

// Len returns the number of cached task and project listings
func (c *ReadCache) Len() (tasks, projects int) {
	return c.tasks.Len(), c.projects.Len()
}
