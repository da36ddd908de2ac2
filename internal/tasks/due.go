package tasks

import (
	"fmt"
	"strings"
	"time"
)

var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDue reads a due date typed by the user. It accepts RFC 3339, local
// "YYYY-MM-DD[ HH:MM]", "today", "tomorrow" and offsets such as "+2h".
// An empty string yields nil.
func ParseDue(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var due time.Time
	switch strings.ToLower(s) {
	case "today":
		due = endOfDay(now)
	case "tomorrow":
		due = endOfDay(now.AddDate(0, 0, 1))
	default:
		if strings.HasPrefix(s, "+") {
			d, err := time.ParseDuration(s[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid due offset %q: %w", s, err)
			}
			due = now.Add(d)
			break
		}

		var err error
		for _, layout := range dueLayouts {
			due, err = time.ParseInLocation(layout, s, now.Location())
			if err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q, want YYYY-MM-DD[ HH:MM], today, tomorrow or +duration", s)
		}
	}
	return &due, nil
}

// FormatDue renders a due date the way ParseDue reads it back.
func FormatDue(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}
