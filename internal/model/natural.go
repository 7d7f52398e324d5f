package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// ParseDue turns a user-typed deadline into a date relative to today.
// Accepts today, tomorrow, weekday names, nextweek, +Nd and explicit dates.
func ParseDue(s string, today Date) (Date, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "today":
		return today, nil
	case "tomorrow", "tom":
		return today.AddDays(1), nil
	case "nextweek", "next-week":
		return today.AddDays(7), nil
	}

	if day, ok := weekdays[s]; ok {
		return nextWeekday(today, day), nil
	}

	// +3d, +2w
	if strings.HasPrefix(s, "+") && len(s) > 2 {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil && n >= 0 {
			switch s[len(s)-1] {
			case 'd':
				return today.AddDays(n), nil
			case 'w':
				return today.AddDays(7 * n), nil
			}
		}
	}

	formats := []string{
		DateLayout,
		"01/02/2006",
		"01-02-2006",
		"Jan 2, 2006",
		"Jan 2",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			// If no year, use the next occurrence
			if t.Year() == 0 {
				year := today.Time().Year()
				d := NewDate(year, t.Month(), t.Day())
				if d.Before(today) {
					d = NewDate(year+1, t.Month(), t.Day())
				}
				return d, nil
			}
			return DateOf(t), nil
		}
	}

	return Date{}, fmt.Errorf("unrecognized date %q (try today, friday, +3d or 2006-01-02)", s)
}

func nextWeekday(today Date, day time.Weekday) Date {
	daysUntil := int(day - today.Time().Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return today.AddDays(daysUntil)
}

// FormatDue renders d relative to today for display
func FormatDue(d Date, today Date) string {
	switch today.DaysUntil(d) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}

	t := d.Time()
	if t.Year() == today.Time().Year() {
		return t.Format("Mon, Jan 2")
	}
	return t.Format("Jan 2, 2006")
}
