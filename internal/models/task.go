package models

import "time"

// DefaultDueDateOffset is applied when a task is created without a due date.
const DefaultDueDateOffset = 24 * time.Hour

type Task struct {
	ID        string
	UserID    string
	Title     string
	Completed bool
	DueDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOverdue reports whether the task is past its due date and still pending.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && !t.Completed
}

func DefaultDueDate(now time.Time) time.Time {
	return now.Add(DefaultDueDateOffset)
}
