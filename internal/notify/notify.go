// Package notify derives due-date reminders from the task list and shows
// each of them at most once.
package notify

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

type Kind string

const (
	KindUpcoming Kind = "upcoming"
	KindOverdue  Kind = "overdue"
)

// UpcomingWindow is how far ahead a pending task counts as due soon.
const UpcomingWindow = 24 * time.Hour

type Reminder struct {
	ID          string
	Kind        Kind
	Title       string
	Description string
	Task        models.Task
}

func newReminder(kind Kind, task models.Task) Reminder {
	r := Reminder{
		ID:   string(kind) + ":" + task.ID,
		Kind: kind,
		Task: task,
	}
	switch kind {
	case KindOverdue:
		r.Title = "Overdue Task"
		r.Description = "This task is overdue"
	default:
		r.Title = "Upcoming Task"
		r.Description = "You have a task due soon"
	}
	return r
}

// Due lists reminders for tasks, overdue ones first, each group ordered by
// due date.
func Due(tasks []models.Task, now time.Time) []Reminder {
	var overdue, upcoming []Reminder
	for _, task := range tasks {
		switch {
		case task.Completed:
		case task.IsOverdue(now):
			overdue = append(overdue, newReminder(KindOverdue, task))
		case !task.DueDate.After(now.Add(UpcomingWindow)):
			upcoming = append(upcoming, newReminder(KindUpcoming, task))
		}
	}

	byDueDate := func(rs []Reminder) {
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Task.DueDate.Before(rs[j].Task.DueDate)
		})
	}
	byDueDate(overdue)
	byDueDate(upcoming)
	return append(overdue, upcoming...)
}

// Shown remembers which reminders the user has already seen.
type Shown interface {
	WasShown(id string) bool
	MarkShown(ctx context.Context, id string) error
}

type Notifier struct {
	shown  Shown
	logger zerolog.Logger
}

func New(shown Shown, logger zerolog.Logger) *Notifier {
	return &Notifier{
		shown:  shown,
		logger: logger,
	}
}

// Pending returns the reminders for tasks that were not shown yet.
func (n *Notifier) Pending(tasks []models.Task, now time.Time) []Reminder {
	var out []Reminder
	for _, r := range Due(tasks, now) {
		if !n.shown.WasShown(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

func (n *Notifier) MarkShown(ctx context.Context, r Reminder) error {
	err := n.shown.MarkShown(ctx, r.ID)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("reminder_id", r.ID).
			Msg("failed to remember shown reminder")
		return err
	}
	return nil
}
