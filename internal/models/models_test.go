package models

import (
	"testing"
	"time"
)

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"past and pending", Task{DueDate: now.Add(-time.Minute)}, true},
		{"past and completed", Task{DueDate: now.Add(-time.Minute), Completed: true}, false},
		{"future and pending", Task{DueDate: now.Add(time.Minute)}, false},
		{"due exactly now", Task{DueDate: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultDueDate(t *testing.T) {
	now := time.Now()
	if got := DefaultDueDate(now); !got.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("DefaultDueDate() = %v, want %v", got, now.Add(24*time.Hour))
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name, email, want string
	}{
		{"Alice", "alice@example.com", "Alice"},
		{"  ", "bob@example.com", "bob"},
		{"", "carol@example.com", "carol"},
		{"", "", "User"},
		{"", "@example.com", "User"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.name, tt.email); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.name, tt.email, got, tt.want)
		}
	}
}
