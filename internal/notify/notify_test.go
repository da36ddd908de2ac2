package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/prefs"
)

func TestDue(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: "1", Title: "later", DueDate: now.Add(48 * time.Hour)},
		{ID: "2", Title: "soon", DueDate: now.Add(2 * time.Hour)},
		{ID: "3", Title: "late", DueDate: now.Add(-time.Hour)},
		{ID: "4", Title: "done late", DueDate: now.Add(-time.Hour), Completed: true},
		{ID: "5", Title: "sooner", DueDate: now.Add(time.Hour)},
		{ID: "6", Title: "very late", DueDate: now.Add(-48 * time.Hour)},
	}

	got := Due(tasks, now)

	want := []string{"overdue:6", "overdue:3", "upcoming:5", "upcoming:2"}
	if len(got) != len(want) {
		t.Fatalf("Due() returned %d reminders, want %d: %+v", len(got), len(want), got)
	}
	for i, r := range got {
		if r.ID != want[i] {
			t.Errorf("reminder %d = %s, want %s", i, r.ID, want[i])
		}
	}
	if got[0].Title != "Overdue Task" || got[2].Title != "Upcoming Task" {
		t.Errorf("titles = %q, %q", got[0].Title, got[2].Title)
	}
}

func TestPendingSkipsShown(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	p, err := prefs.Load(ctx, prefs.NewMemoryKV())
	if err != nil {
		t.Fatal(err)
	}
	n := New(p, zerolog.Nop())

	tasks := []models.Task{
		{ID: "1", DueDate: now.Add(-time.Minute)},
		{ID: "2", DueDate: now.Add(time.Minute)},
	}

	pending := n.Pending(tasks, now)
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if err := n.MarkShown(ctx, pending[0]); err != nil {
		t.Fatal(err)
	}

	pending = n.Pending(tasks, now)
	if len(pending) != 1 || pending[0].ID != "upcoming:2" {
		t.Errorf("pending = %+v, want only upcoming:2", pending)
	}
}
