package stats

import (
	"sort"

	"github.com/dori/planner/internal/model"
)

// CardsPerColumn caps how many tasks a board column shows
const CardsPerColumn = 8

// Column is one status lane of the board
type Column struct {
	Status   model.Status
	Tasks    []model.Task
	Overflow int // tasks beyond CardsPerColumn
}

// Board lanes, left to right
var boardOrder = []model.Status{
	model.StatusPending,
	model.StatusInProgress,
	model.StatusCompleted,
	model.StatusOverdue,
}

// DisplayStatus returns the status shown for t: overdue for open tasks past
// their deadline, the stored status otherwise.
func DisplayStatus(t *model.Task, today model.Date) model.Status {
	if t.IsOverdue(today) {
		return model.StatusOverdue
	}
	return t.Status
}

// Board groups tasks into status lanes by display status, keeping input order
// and capping each lane at limit cards (CardsPerColumn when limit <= 0).
func Board(tasks []model.Task, today model.Date, limit int) []Column {
	if limit <= 0 {
		limit = CardsPerColumn
	}

	columns := make([]Column, len(boardOrder))
	index := make(map[model.Status]int, len(boardOrder))
	for i, s := range boardOrder {
		columns[i].Status = s
		index[s] = i
	}

	for _, t := range tasks {
		i, ok := index[DisplayStatus(&t, today)]
		if !ok {
			i = index[model.StatusPending]
		}
		col := &columns[i]
		if len(col.Tasks) < limit {
			col.Tasks = append(col.Tasks, t)
		} else {
			col.Overflow++
		}
	}

	return columns
}

// Upcoming returns the open tasks due between today and today+days inclusive,
// sorted by deadline and then by id.
func Upcoming(tasks []model.Task, today model.Date, days int) []model.Task {
	last := today.AddDays(days)

	var out []model.Task
	for _, t := range tasks {
		if t.IsCompleted() || t.Deadline == nil {
			continue
		}
		if t.Deadline.Before(today) || t.Deadline.After(last) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Deadline, out[j].Deadline
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ProjectGroup is the tasks of one project
type ProjectGroup struct {
	ProjectID *int64
	Name      string
	Tasks     []model.Task
}

// Unassigned names the group of tasks without a project
const Unassigned = "No project"

// GroupByProject groups tasks by project, ordered by project name with
// unassigned tasks last. Tasks keep their input order inside a group.
func GroupByProject(tasks []model.Task) []ProjectGroup {
	var groups []ProjectGroup
	byID := make(map[int64]int)
	unassigned := -1

	for _, t := range tasks {
		if t.ProjectID == nil {
			if unassigned < 0 {
				groups = append(groups, ProjectGroup{Name: Unassigned})
				unassigned = len(groups) - 1
			}
			groups[unassigned].Tasks = append(groups[unassigned].Tasks, t)
			continue
		}

		i, ok := byID[*t.ProjectID]
		if !ok {
			id := *t.ProjectID
			name := ""
			if t.ProjectName != nil {
				name = *t.ProjectName
			}
			groups = append(groups, ProjectGroup{ProjectID: &id, Name: name})
			i = len(groups) - 1
			byID[id] = i
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if (a.ProjectID == nil) != (b.ProjectID == nil) {
			return b.ProjectID == nil
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.ProjectID == nil {
			return false
		}
		return *a.ProjectID < *b.ProjectID
	})
	return groups
}
