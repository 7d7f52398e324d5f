package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/dori/planner/internal/model"
	"github.com/dori/planner/internal/stats"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) flag() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes a notification command; it is exec by default
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	run     Runner
}

// NewNotifier creates a new notifier
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		run:     execRunner,
	}
}

// WithRunner replaces the command runner
func (n *Notifier) WithRunner(run Runner) *Notifier {
	n.run = run
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}

	args := []string{"-u", notification.Urgency.flag()}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}
	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "planner", notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}

	return n.run("notify-send", args...)
}

// Reminder builds the notification for an open task, or false when the
// task needs none (completed, or not yet close to its deadline).
func Reminder(task *model.Task, today model.Date) (Notification, bool) {
	u := stats.ClassifyTask(task, today)

	var urgency Urgency
	switch u.Class {
	case stats.ClassUrgent:
		urgency = UrgencyCritical
		if task.Deadline != nil && task.Deadline.Equal(today) {
			urgency = UrgencyNormal
		}
	case stats.ClassWarning:
		urgency = UrgencyLow
	default:
		return Notification{}, false
	}

	body := u.Label
	if task.ProjectName != nil {
		body = fmt.Sprintf("%s · %s", u.Label, *task.ProjectName)
	}

	return Notification{
		Title:   fmt.Sprintf("%s %s", u.Icon, task.Title),
		Body:    body,
		Urgency: urgency,
		Timeout: 15 * time.Second,
		Icon:    "emblem-important-symbolic",
	}, true
}

// SendReminders notifies about every task that needs a reminder and returns
// how many were sent.
func (n *Notifier) SendReminders(tasks []model.Task, today model.Date) (int, error) {
	var sent int
	var errs error
	for i := range tasks {
		notification, ok := Reminder(&tasks[i], today)
		if !ok {
			continue
		}
		if err := n.Send(notification); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("task %d: %w", tasks[i].ID, err))
			continue
		}
		sent++
	}
	return sent, errs
}
