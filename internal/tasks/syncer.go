package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

// Remote is the CRUD surface of the tasks table.
type Remote interface {
	SelectTasks(ctx context.Context, userID string) ([]models.Task, error)
	InsertTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateTaskCompleted(ctx context.Context, id string, completed bool) (models.Task, error)
	UpdateTask(ctx context.Context, id, title string, dueDate time.Time) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient message for the user.
type Notice struct {
	Level       NoticeLevel
	Title       string
	Description string
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type CreateInput struct {
	Title string
	// DueDate defaults to models.DefaultDueDate when nil.
	DueDate *time.Time
}

type EditInput struct {
	Title string
	// DueDate defaults to the current time when nil.
	DueDate *time.Time
}

// Syncer runs the task operations. Each one makes a single remote call and
// mutates the Store only when that call succeeds.
type Syncer struct {
	store    *Store
	remote   Remote
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	userID string
}

func NewSyncer(store *Store, remote Remote, notifier Notifier, logger zerolog.Logger) *Syncer {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &Syncer{
		store:    store,
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Syncer) Store() *Store {
	return s.store
}

func (s *Syncer) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Syncer) current(userID string) bool {
	return userID != "" && s.UserID() == userID
}

// Load replaces the store with the remote snapshot of userID's tasks. On
// failure the store is left empty and the error is returned for logging
// only. A snapshot that arrives after Reset or another Load is dropped.
func (s *Syncer) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	s.store.setLoading(true)
	defer s.store.setLoading(false)

	tasks, err := s.remote.SelectTasks(ctx, userID)
	if !s.current(userID) {
		s.logger.Debug().
			Str("user_id", userID).
			Msg("dropping stale task snapshot")
		return nil
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to fetch tasks")
		s.store.replace(nil)
		return err
	}

	s.store.replace(tasks)
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("loaded tasks")
	return nil
}

// Reset forgets the user and empties the store.
func (s *Syncer) Reset() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
	s.store.replace(nil)
}

func (s *Syncer) Create(ctx context.Context, in CreateInput) (models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	userID := s.UserID()
	if userID == "" {
		return models.Task{}, ErrNoUser
	}

	task := models.Task{
		UserID: userID,
		Title:  in.Title,
	}
	if in.DueDate != nil {
		task.DueDate = *in.DueDate
	} else {
		task.DueDate = models.DefaultDueDate(s.now())
	}

	created, err := s.remote.InsertTask(ctx, task)
	if err != nil {
		s.failed(err, "Failed to add task", "")
		return models.Task{}, err
	}
	if !s.current(userID) {
		return created, nil
	}

	s.store.add(created)
	s.logger.Info().
		Str("task_id", created.ID).
		Msg("created task")
	s.notifier.Notify(Notice{
		Level:       NoticeSuccess,
		Title:       "Task added",
		Description: fmt.Sprintf("%q has been added to your tasks.", created.Title),
	})
	return created, nil
}

func (s *Syncer) ToggleComplete(ctx context.Context, id string, completed bool) error {
	task, ok := s.store.Get(id)
	if !ok {
		return ErrUnknownTask
	}

	_, err := s.remote.UpdateTaskCompleted(ctx, id, completed)
	if err != nil {
		s.failed(err, "Failed to update task", id)
		return err
	}
	if !s.store.setCompleted(id, completed) {
		return nil
	}

	title, state := "Task marked as pending", "marked as pending"
	if completed {
		title, state = "Task completed", "completed"
	}
	s.logger.Info().
		Str("task_id", id).
		Bool("completed", completed).
		Msg("toggled task")
	s.notifier.Notify(Notice{
		Level:       NoticeSuccess,
		Title:       title,
		Description: fmt.Sprintf("%q has been %s.", task.Title, state),
	})
	return nil
}

func (s *Syncer) Edit(ctx context.Context, id string, in EditInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if _, ok := s.store.Get(id); !ok {
		return ErrUnknownTask
	}

	dueDate := s.now()
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}

	_, err := s.remote.UpdateTask(ctx, id, in.Title, dueDate)
	if err != nil {
		s.failed(err, "Failed to update task", id)
		return err
	}
	if !s.store.edit(id, in.Title, dueDate) {
		return nil
	}

	s.logger.Info().
		Str("task_id", id).
		Msg("edited task")
	s.notifier.Notify(Notice{
		Level:       NoticeSuccess,
		Title:       "Task updated",
		Description: fmt.Sprintf("%q has been updated.", in.Title),
	})
	return nil
}

func (s *Syncer) Delete(ctx context.Context, id string) error {
	task, ok := s.store.Get(id)
	if !ok {
		return ErrUnknownTask
	}

	err := s.remote.DeleteTask(ctx, id)
	if err != nil {
		s.failed(err, "Failed to delete task", id)
		return err
	}
	if !s.store.remove(id) {
		return nil
	}

	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	s.notifier.Notify(Notice{
		Level:       NoticeInfo,
		Title:       "Task deleted",
		Description: fmt.Sprintf("%q has been deleted.", task.Title),
	})
	return nil
}

func (s *Syncer) failed(err error, title, id string) {
	event := s.logger.Error().Err(err)
	if id != "" {
		event = event.Str("task_id", id)
	}
	event.Msg(strings.ToLower(title))

	s.notifier.Notify(Notice{
		Level:       NoticeError,
		Title:       title,
		Description: err.Error(),
	})
}
