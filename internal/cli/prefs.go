package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskflow/internal/notify"
	"github.com/adanyl0v/taskflow/internal/prefs"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|toggle]",
		Short: "Show or change the dashboard theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				theme := a.prefs.Theme()
				switch {
				case len(args) == 0:
				case args[0] == "toggle":
					var err error
					theme, err = a.prefs.ToggleTheme(ctx)
					if err != nil {
						return err
					}
				default:
					next, err := prefs.ParseTheme(args[0])
					if err != nil {
						return err
					}
					err = a.prefs.SetTheme(ctx, next)
					if err != nil {
						return err
					}
					theme = next
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
				return nil
			})
		},
	}
}

func remindersCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show overdue and upcoming tasks",
		Long: `Show overdue tasks and pending tasks due within 24 hours. Each reminder
is shown once; --all lists every reminder again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.RequireUser(ctx); err != nil {
					return err
				}

				now := time.Now()
				list := a.syncer.Store().Tasks()
				reminders := a.reminders.Pending(list, now)
				if all {
					reminders = notify.Due(list, now)
				}

				w := cmd.OutOrStdout()
				if len(reminders) == 0 {
					fmt.Fprintln(w, "No reminders.")
					return nil
				}
				for _, r := range reminders {
					fmt.Fprintf(w, "%s: %s - %s (due %s)\n",
						r.Title, r.Task.Title, r.Description, tasks.FormatDue(r.Task.DueDate))
					if err := a.reminders.MarkShown(ctx, r); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include reminders that were already shown")

	return cmd
}
