// Package tasks holds the signed-in user's tasks in memory and keeps them in
// step with the remote store.
package tasks

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/adanyl0v/taskflow/internal/models"
)

var (
	ErrEmptyTitle  = errors.New("task title is required")
	ErrNoUser      = errors.New("no signed-in user")
	ErrUnknownTask = errors.New("task not found")
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterAll, FilterPending, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("unknown filter %q, want one of all, pending, completed", s)
}

func (f Filter) Match(task models.Task) bool {
	switch f {
	case FilterPending:
		return !task.Completed
	case FilterCompleted:
		return task.Completed
	}
	return true
}

// Project returns the tasks matching f in their original order.
func Project(tasks []models.Task, f Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Match(task) {
			out = append(out, task)
		}
	}
	return out
}

type Counts struct {
	All       int
	Pending   int
	Completed int
}

func (c Counts) Of(f Filter) int {
	switch f {
	case FilterPending:
		return c.Pending
	case FilterCompleted:
		return c.Completed
	}
	return c.All
}

func CountOf(tasks []models.Task) Counts {
	c := Counts{All: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	return c
}

// Store is the ordered collection of the current user's tasks. It is
// written only by Syncer, after the remote store acknowledged the change.
type Store struct {
	mu      sync.RWMutex
	tasks   []models.Task
	loading bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

func (s *Store) Project(f Filter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Project(s.tasks, f)
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CountOf(s.tasks)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Store) replace(tasks []models.Task) {
	s.mu.Lock()
	s.tasks = slices.Clone(tasks)
	s.mu.Unlock()
}

func (s *Store) add(task models.Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
}

func (s *Store) setCompleted(id string, completed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Completed = completed
	return true
}

func (s *Store) edit(id, title string, dueDate time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Title = title
	s.tasks[i].DueDate = dueDate
	return true
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return true
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}
