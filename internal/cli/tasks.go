package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

// printNotices shows task notices on the command's output.
func printNotices(cmd *cobra.Command, a *App) {
	a.notices.Set(tasks.NotifierFunc(func(n tasks.Notice) {
		w := cmd.OutOrStdout()
		if n.Level == tasks.NoticeError {
			w = cmd.ErrOrStderr()
		}
		fmt.Fprintf(w, "%s: %s\n", n.Title, n.Description)
	}))
}

func listCmd() *cobra.Command {
	var filter, output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tasks.ParseFilter(filter)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *App) error {
				user, err := a.RequireUser(ctx)
				if err != nil {
					return err
				}

				store := a.syncer.Store()
				list := store.Project(f)
				now := time.Now()

				if output == formatTable {
					return printTaskTable(cmd.OutOrStdout(), list, store.Counts(), now)
				}
				return writeDocument(cmd.OutOrStdout(), output, newExportDocument(user, f, list, now))
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(tasks.FilterAll), "Filter: all, pending or completed")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json, yaml or toml")

	return cmd
}

func addCmd() *cobra.Command {
	var due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task. Without --due the task is due in 24 hours.

--due accepts YYYY-MM-DD, "YYYY-MM-DD HH:MM", today, tomorrow or an offset
such as +2h.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := tasks.ParseDue(due, time.Now())
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.RequireUser(ctx); err != nil {
					return err
				}
				printNotices(cmd, a)

				_, err := a.syncer.Create(ctx, tasks.CreateInput{
					Title:   strings.Join(args, " "),
					DueDate: dueDate,
				})
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date")

	return cmd
}

func doneCmd(completed bool) *cobra.Command {
	use, short := "done <id>...", "Mark tasks as completed"
	if !completed {
		use, short = "undone <id>...", "Mark tasks as pending"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.RequireUser(ctx); err != nil {
					return err
				}
				printNotices(cmd, a)

				for _, id := range args {
					err := a.syncer.ToggleComplete(ctx, id, completed)
					if err != nil {
						return fmt.Errorf("task %s: %w", id, err)
					}
				}
				return nil
			})
		},
	}
}

func editCmd() *cobra.Command {
	var title, due string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title and due date",
		Long: `Change a task's title and due date. Flags that are not given keep the
current value. --due "" sets the due date to now.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.RequireUser(ctx); err != nil {
					return err
				}
				printNotices(cmd, a)

				task, ok := a.syncer.Store().Get(args[0])
				if !ok {
					return fmt.Errorf("task %s: %w", args[0], tasks.ErrUnknownTask)
				}

				in, err := editInput(task, cmd.Flags().Changed("title"), title,
					cmd.Flags().Changed("due"), due, time.Now())
				if err != nil {
					return err
				}
				return a.syncer.Edit(ctx, task.ID, in)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date")

	return cmd
}

func editInput(task models.Task, titleSet bool, title string, dueSet bool, due string, now time.Time) (tasks.EditInput, error) {
	in := tasks.EditInput{
		Title:   task.Title,
		DueDate: &task.DueDate,
	}
	if titleSet {
		in.Title = title
	}
	if dueSet {
		dueDate, err := tasks.ParseDue(due, now)
		if err != nil {
			return tasks.EditInput{}, err
		}
		in.DueDate = dueDate
	}
	return in, nil
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.RequireUser(ctx); err != nil {
					return err
				}
				printNotices(cmd, a)

				for _, id := range args {
					err := a.syncer.Delete(ctx, id)
					if err != nil {
						return fmt.Errorf("task %s: %w", id, err)
					}
				}
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var filter, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tasks.ParseFilter(filter)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *App) error {
				user, err := a.RequireUser(ctx)
				if err != nil {
					return err
				}
				doc := newExportDocument(user, f, a.syncer.Store().Project(f), time.Now())
				return writeDocument(cmd.OutOrStdout(), format, doc)
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(tasks.FilterAll), "Filter: all, pending or completed")
	cmd.Flags().StringVar(&format, "format", formatJSON, "Format: json, yaml or toml")

	return cmd
}
