package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

var errRemote = errors.New("remote unavailable")

type fakeRemote struct {
	rows   []models.Task
	nextID int
	fail   bool
	calls  int
}

func (f *fakeRemote) SelectTasks(_ context.Context, userID string) ([]models.Task, error) {
	f.calls++
	if f.fail {
		return nil, errRemote
	}
	var out []models.Task
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRemote) InsertTask(_ context.Context, task models.Task) (models.Task, error) {
	f.calls++
	if f.fail {
		return models.Task{}, errRemote
	}
	f.nextID++
	task.ID = strconv.Itoa(f.nextID)
	f.rows = append(f.rows, task)
	return task, nil
}

func (f *fakeRemote) find(id string) (int, error) {
	for i, row := range f.rows {
		if row.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no row %s", id)
}

func (f *fakeRemote) UpdateTaskCompleted(_ context.Context, id string, completed bool) (models.Task, error) {
	f.calls++
	if f.fail {
		return models.Task{}, errRemote
	}
	i, err := f.find(id)
	if err != nil {
		return models.Task{}, err
	}
	f.rows[i].Completed = completed
	return f.rows[i], nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id, title string, dueDate time.Time) (models.Task, error) {
	f.calls++
	if f.fail {
		return models.Task{}, errRemote
	}
	i, err := f.find(id)
	if err != nil {
		return models.Task{}, err
	}
	f.rows[i].Title = title
	f.rows[i].DueDate = dueDate
	return f.rows[i], nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, id string) error {
	f.calls++
	if f.fail {
		return errRemote
	}
	i, err := f.find(id)
	if err != nil {
		return err
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

type recorder struct {
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.notices = append(r.notices, n)
}

func (r *recorder) last() Notice {
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func seededSyncer(t *testing.T, titles ...string) (*Syncer, *fakeRemote, *recorder) {
	t.Helper()

	remote := &fakeRemote{}
	due := time.Now().Add(time.Hour)
	for i, title := range titles {
		remote.nextID++
		remote.rows = append(remote.rows, models.Task{
			ID:        strconv.Itoa(remote.nextID),
			UserID:    "u1",
			Title:     title,
			Completed: i%2 == 1,
			DueDate:   due,
		})
	}
	remote.rows = append(remote.rows, models.Task{ID: "99", UserID: "u2", Title: "someone else's"})

	rec := &recorder{}
	s := NewSyncer(NewStore(), remote, rec, zerolog.Nop())
	if err := s.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	remote.calls = 0
	return s, remote, rec
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestProjectPartitionsTasks(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.Task
	}{
		{name: "empty"},
		{name: "all pending", tasks: []models.Task{{ID: "1"}, {ID: "2"}}},
		{name: "all completed", tasks: []models.Task{{ID: "1", Completed: true}}},
		{name: "mixed", tasks: []models.Task{
			{ID: "1"}, {ID: "2", Completed: true}, {ID: "3"}, {ID: "4", Completed: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := Project(tt.tasks, FilterAll)
			pending := Project(tt.tasks, FilterPending)
			completed := Project(tt.tasks, FilterCompleted)

			if len(all) != len(tt.tasks) {
				t.Fatalf("all has %d tasks, want %d", len(all), len(tt.tasks))
			}
			if len(pending)+len(completed) != len(all) {
				t.Fatalf("pending %d + completed %d != all %d", len(pending), len(completed), len(all))
			}

			seen := make(map[string]bool)
			for _, task := range pending {
				if task.Completed {
					t.Errorf("completed task %s in pending view", task.ID)
				}
				seen[task.ID] = true
			}
			for _, task := range completed {
				if seen[task.ID] {
					t.Errorf("task %s in both views", task.ID)
				}
			}

			counts := CountOf(tt.tasks)
			if counts.All != len(all) || counts.Pending != len(pending) || counts.Completed != len(completed) {
				t.Errorf("counts = %+v", counts)
			}
		})
	}
}

func TestProjectKeepsOrder(t *testing.T) {
	tasks := []models.Task{{ID: "3"}, {ID: "1", Completed: true}, {ID: "2"}}

	got := fmt.Sprint(ids(Project(tasks, FilterPending)))
	if got != "[3 2]" {
		t.Errorf("pending = %s, want [3 2]", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: FilterAll},
		{in: "all", want: FilterAll},
		{in: "pending", want: FilterPending},
		{in: "completed", want: FilterCompleted},
		{in: "done", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadKeepsOnlyOwnTasks(t *testing.T) {
	s, _, _ := seededSyncer(t, "a", "b", "c")

	if got := fmt.Sprint(ids(s.Store().Tasks())); got != "[1 2 3]" {
		t.Errorf("tasks = %s, want [1 2 3]", got)
	}
	if s.Store().Loading() {
		t.Error("loading flag not cleared")
	}
}

func TestLoadFailureLeavesEmptyStore(t *testing.T) {
	s, remote, _ := seededSyncer(t, "a")
	remote.fail = true

	if err := s.Load(context.Background(), "u1"); !errors.Is(err, errRemote) {
		t.Fatalf("Load() error = %v", err)
	}
	if n := len(s.Store().Tasks()); n != 0 {
		t.Errorf("store has %d tasks after failed load", n)
	}
	if s.Store().Loading() {
		t.Error("loading flag not cleared")
	}
}

func TestCreate(t *testing.T) {
	s, _, rec := seededSyncer(t, "a")
	before := len(s.Store().Tasks())
	start := time.Now()

	task, err := s.Create(context.Background(), CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	all := s.Store().Tasks()
	if len(all) != before+1 {
		t.Fatalf("store has %d tasks, want %d", len(all), before+1)
	}
	if last := all[len(all)-1]; last.ID != task.ID || last.Title != "Buy milk" || last.Completed {
		t.Errorf("appended task = %+v", last)
	}

	want := start.Add(24 * time.Hour)
	if d := task.DueDate.Sub(want); d < 0 || d > time.Minute {
		t.Errorf("due date = %v, want about %v", task.DueDate, want)
	}
	if n := rec.last(); n.Level != NoticeSuccess || n.Title != "Task added" {
		t.Errorf("notice = %+v", n)
	}
}

func TestCreateFailure(t *testing.T) {
	s, remote, rec := seededSyncer(t, "a")
	remote.fail = true

	_, err := s.Create(context.Background(), CreateInput{Title: "Buy milk"})
	if !errors.Is(err, errRemote) {
		t.Fatalf("Create() error = %v", err)
	}
	if n := len(s.Store().Tasks()); n != 1 {
		t.Errorf("store has %d tasks, want 1", n)
	}
	if n := rec.last(); n.Level != NoticeError {
		t.Errorf("notice = %+v, want error", n)
	}
}

func TestEmptyTitleIsRejectedLocally(t *testing.T) {
	s, remote, _ := seededSyncer(t, "a")
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.Create(ctx, CreateInput{Title: title}); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("Create(%q) error = %v", title, err)
		}
		if err := s.Edit(ctx, "1", EditInput{Title: title}); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("Edit(%q) error = %v", title, err)
		}
	}

	if remote.calls != 0 {
		t.Errorf("remote called %d times", remote.calls)
	}
	if task, _ := s.Store().Get("1"); task.Title != "a" {
		t.Errorf("task title = %q after rejected edit", task.Title)
	}
}

func TestCreateWithoutUser(t *testing.T) {
	s := NewSyncer(NewStore(), &fakeRemote{}, nil, zerolog.Nop())

	if _, err := s.Create(context.Background(), CreateInput{Title: "x"}); !errors.Is(err, ErrNoUser) {
		t.Errorf("Create() error = %v, want ErrNoUser", err)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	s, _, rec := seededSyncer(t, "a")
	ctx := context.Background()

	if err := s.ToggleComplete(ctx, "1", true); err != nil {
		t.Fatal(err)
	}
	if task, _ := s.Store().Get("1"); !task.Completed {
		t.Fatal("task not completed")
	}
	if n := rec.last(); n.Title != "Task completed" {
		t.Errorf("notice = %+v", n)
	}

	if err := s.ToggleComplete(ctx, "1", false); err != nil {
		t.Fatal(err)
	}
	if task, _ := s.Store().Get("1"); task.Completed {
		t.Error("task still completed")
	}
	if n := rec.last(); n.Title != "Task marked as pending" {
		t.Errorf("notice = %+v", n)
	}
}

func TestToggleFailureLeavesTask(t *testing.T) {
	s, remote, _ := seededSyncer(t, "a")
	remote.fail = true

	if err := s.ToggleComplete(context.Background(), "1", true); err == nil {
		t.Fatal("ToggleComplete() succeeded")
	}
	if task, _ := s.Store().Get("1"); task.Completed {
		t.Error("task completed despite remote failure")
	}
}

func TestEdit(t *testing.T) {
	s, remote, _ := seededSyncer(t, "a", "b")
	ctx := context.Background()
	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := s.Edit(ctx, "2", EditInput{Title: "renamed", DueDate: &due}); err != nil {
		t.Fatal(err)
	}
	task, _ := s.Store().Get("2")
	if task.Title != "renamed" || !task.DueDate.Equal(due) {
		t.Errorf("task = %+v", task)
	}
	if other, _ := s.Store().Get("1"); other.Title != "a" {
		t.Errorf("other task changed: %+v", other)
	}

	before := time.Now()
	if err := s.Edit(ctx, "1", EditInput{Title: "no date"}); err != nil {
		t.Fatal(err)
	}
	task, _ = s.Store().Get("1")
	if task.DueDate.Before(before) || task.DueDate.After(time.Now()) {
		t.Errorf("due date = %v, want now", task.DueDate)
	}

	remote.fail = true
	if err := s.Edit(ctx, "1", EditInput{Title: "lost"}); err == nil {
		t.Fatal("Edit() succeeded")
	}
	if task, _ := s.Store().Get("1"); task.Title != "no date" {
		t.Errorf("title = %q after failed edit", task.Title)
	}
}

func TestDelete(t *testing.T) {
	s, remote, rec := seededSyncer(t, "a", "b", "c")
	ctx := context.Background()

	if err := s.Delete(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(ids(s.Store().Tasks())); got != "[1 3]" {
		t.Errorf("tasks = %s, want [1 3]", got)
	}
	if n := rec.last(); n.Title != "Task deleted" {
		t.Errorf("notice = %+v", n)
	}

	remote.fail = true
	if err := s.Delete(ctx, "1"); err == nil {
		t.Fatal("Delete() succeeded")
	}
	if got := fmt.Sprint(ids(s.Store().Tasks())); got != "[1 3]" {
		t.Errorf("tasks = %s after failed delete", got)
	}

	if err := s.Delete(ctx, "404"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Delete(404) error = %v", err)
	}
}

func TestReset(t *testing.T) {
	s, _, _ := seededSyncer(t, "a")
	s.Reset()

	if n := len(s.Store().Tasks()); n != 0 {
		t.Errorf("store has %d tasks after reset", n)
	}
	if s.UserID() != "" {
		t.Errorf("user id = %q after reset", s.UserID())
	}
}
