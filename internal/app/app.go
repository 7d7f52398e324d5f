// Package app wires configuration, the store, the calendar and the
// planner service into one running instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
	"google.golang.org/api/option"

	"github.com/dori/planner/internal/cache"
	"github.com/dori/planner/internal/calendar"
	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/notify"
	"github.com/dori/planner/internal/planner"
)

// ErrAlreadyRunning is returned when another process holds the lock
var ErrAlreadyRunning = errors.New("another instance of planner is already running")

// App holds the application state and dependencies
type App struct {
	Config   *Config
	DB       *db.DB
	Cache    *cache.ReadCache
	Service  *planner.Service
	Notifier *notify.Notifier
	Log      *log.Logger
	DataDir  string
	lockFile *flock.Flock
}

// Options tune New; the zero value is fine
type Options struct {
	// Logger receives sync failures; nil discards them
	Logger *log.Logger
	// Calendar replaces the adapter built from the config
	Calendar calendar.Adapter
}

// New creates a new application instance
func New(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:   cfg,
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(),
		Log:      logger,
	}
	app.Notifier.SetEnabled(cfg.Notify.Enabled)

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.StoreOptions())
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	cal := opts.Calendar
	if cal == nil && cfg.Calendar.Enabled {
		cal = app.openCalendar(ctx)
	}

	app.Cache = cache.New(cfg.CacheOptions())
	app.Service = planner.New(database, planner.Config{
		Owner:    cfg.Owner,
		Calendar: cal,
		Cache:    app.Cache,
		Logger:   logger,
	})

	return app, nil
}

// openCalendar builds the Google adapter. Missing credentials leave sync
// configured but unavailable, so writes are flagged for a later resync.
func (a *App) openCalendar(ctx context.Context) calendar.Adapter {
	cc := a.Config.Calendar

	oc, err := calendar.OAuthConfig(cc.CredentialsFile)
	if err != nil {
		a.Log.Printf("calendar: %v", err)
		return calendar.Offline()
	}
	ts, err := calendar.FileTokenSource(ctx, oc, cc.TokenFile)
	if err != nil {
		if errors.Is(err, calendar.ErrNoToken) {
			a.Log.Printf("calendar: not authorized yet, run `planner calendar auth`")
		} else {
			a.Log.Printf("calendar: %v", err)
		}
		return calendar.Offline()
	}

	g, err := calendar.NewGoogle(ctx, cc.ID, option.WithTokenSource(ts))
	if err != nil {
		a.Log.Printf("calendar: %v", err)
		return calendar.Offline()
	}
	return g
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "planner.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrAlreadyRunning
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() error {
	if a.lockFile == nil {
		return nil
	}
	return a.lockFile.Unlock()
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if err := a.releaseLock(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to release lock: %w", err))
	}

	return errs
}
