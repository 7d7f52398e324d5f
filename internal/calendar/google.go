package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dori/planner/internal/model"
)

// Scopes are the OAuth scopes the Google adapter needs
var Scopes = []string{gcal.CalendarEventsScope}

// Google syncs tasks to a Google Calendar
type Google struct {
	srv        *gcal.Service
	calendarID string
	now        func() time.Time
}

// NewGoogle creates a Google Calendar adapter. Credentials come from opts,
// typically option.WithTokenSource.
func NewGoogle(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Google, error) {
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{srv: srv, calendarID: calendarID, now: time.Now}, nil
}

// Offline returns an adapter that reports itself unavailable, used when
// sync is configured but no credentials could be loaded
func Offline() *Google {
	return &Google{now: time.Now}
}

// Available reports whether the service was created
func (g *Google) Available() bool {
	return g != nil && g.srv != nil
}

// CreateEvent inserts an all-day event for task and returns its id.
// The id is chosen here so a retried insert cannot create a duplicate.
func (g *Google) CreateEvent(ctx context.Context, task *model.Task) (string, error) {
	event, err := eventFromTask(task, model.DateOf(g.now()))
	if err != nil {
		return "", err
	}
	// event ids use base32hex characters; a dashless uuid qualifies
	event.Id = strings.ReplaceAll(uuid.NewString(), "-", "")

	created, err := g.srv.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return event.Id, nil
		}
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// UpdateEvent rewrites the event of task
func (g *Google) UpdateEvent(ctx context.Context, eventID string, task *model.Task) error {
	patch, err := eventFromTask(task, model.DateOf(g.now()))
	if err != nil {
		return err
	}

	_, err = g.srv.Events.Patch(g.calendarID, eventID, patch).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return fmt.Errorf("patch event %s: %w", eventID, ErrNotFound)
		}
		return fmt.Errorf("patch event %s: %w", eventID, err)
	}
	return nil
}

// DeleteEvent deletes an event. An event that is already gone is not an error.
func (g *Google) DeleteEvent(ctx context.Context, eventID string) error {
	err := g.srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isGone(err) {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

// ListUpcoming returns up to limit events starting from now
func (g *Google) ListUpcoming(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}

	events, err := g.srv.Events.List(g.calendarID).
		TimeMin(g.now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}

	out := make([]Event, 0, len(events.Items))
	for _, e := range events.Items {
		out = append(out, eventFromAPI(e))
	}
	return out, nil
}

// isGone reports whether err means the event does not exist (404) or was deleted (410)
func isGone(err error) bool {
	return isStatus(err, http.StatusNotFound) || isStatus(err, http.StatusGone)
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
