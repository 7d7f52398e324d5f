package stats

import (
	"fmt"

	"github.com/dori/planner/internal/model"
)

// Class is the urgency tier of a deadline
type Class string

const (
	ClassNone    Class = ""
	ClassUrgent  Class = "urgent"
	ClassWarning Class = "warning"
	ClassNormal  Class = "normal"
)

// Urgency is the display classification of a deadline
type Urgency struct {
	Icon  string
	Class Class
	Label string
}

// Icons used for each tier
const (
	IconNone    = "⚪"
	IconOverdue = "🔴"
	IconToday   = "🟠"
	IconWarning = "🟡"
	IconNormal  = "🟢"
)

// ClassifyDeadline classifies deadline against today. A nil deadline has no class.
// Two days or less left is a warning.
func ClassifyDeadline(deadline *model.Date, today model.Date) Urgency {
	if deadline == nil {
		return Urgency{Icon: IconNone, Class: ClassNone, Label: "no deadline"}
	}

	days := today.DaysUntil(*deadline)
	switch {
	case days < 0:
		return Urgency{Icon: IconOverdue, Class: ClassUrgent, Label: "overdue"}
	case days == 0:
		return Urgency{Icon: IconToday, Class: ClassUrgent, Label: "due today"}
	case days <= 2:
		return Urgency{Icon: IconWarning, Class: ClassWarning, Label: daysLabel(days)}
	default:
		return Urgency{Icon: IconNormal, Class: ClassNormal, Label: daysLabel(days)}
	}
}

// ClassifyTask classifies an open task. Completed tasks get no class, which is
// what the task list and reminders want; the board calls ClassifyDeadline directly.
func ClassifyTask(t *model.Task, today model.Date) Urgency {
	if t.IsCompleted() {
		return Urgency{Class: ClassNone, Label: "done"}
	}
	if t.Status == model.StatusOverdue && t.Deadline == nil {
		return Urgency{Icon: IconOverdue, Class: ClassUrgent, Label: "overdue"}
	}
	return ClassifyDeadline(t.Deadline, today)
}

func daysLabel(days int) string {
	if days == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", days)
}
