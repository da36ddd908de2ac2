package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTOML  = "toml"
)

func taskStatus(task models.Task, now time.Time) string {
	switch {
	case task.Completed:
		return "done"
	case task.IsOverdue(now):
		return "overdue"
	}
	return "pending"
}

func printTaskTable(w io.Writer, list []models.Task, counts tasks.Counts, now time.Time) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tTITLE")
		for _, task := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				task.ID,
				taskStatus(task, now),
				tasks.FormatDue(task.DueDate),
				task.Title,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nAll %d · Pending %d · Completed %d\n",
		counts.All, counts.Pending, counts.Completed)
	return nil
}

type exportTask struct {
	ID        string    `json:"id" yaml:"id" toml:"id"`
	Title     string    `json:"title" yaml:"title" toml:"title"`
	Completed bool      `json:"completed" yaml:"completed" toml:"completed"`
	Overdue   bool      `json:"overdue" yaml:"overdue" toml:"overdue"`
	DueDate   time.Time `json:"due_date" yaml:"due_date" toml:"due_date"`
}

type exportDocument struct {
	ExportedAt time.Time    `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	User       string       `json:"user" yaml:"user" toml:"user"`
	Filter     string       `json:"filter" yaml:"filter" toml:"filter"`
	Tasks      []exportTask `json:"tasks" yaml:"tasks" toml:"tasks"`
}

func newExportDocument(user models.User, filter tasks.Filter, list []models.Task, now time.Time) exportDocument {
	doc := exportDocument{
		ExportedAt: now.UTC(),
		User:       user.Email,
		Filter:     string(filter),
		Tasks:      make([]exportTask, len(list)),
	}
	for i, task := range list {
		doc.Tasks[i] = exportTask{
			ID:        task.ID,
			Title:     task.Title,
			Completed: task.Completed,
			Overdue:   task.IsOverdue(now),
			DueDate:   task.DueDate.UTC(),
		}
	}
	return doc
}

func writeDocument(w io.Writer, format string, doc any) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(doc)
	}
	return fmt.Errorf("unknown format %q, want json, yaml or toml", format)
}
