package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskflow/internal/tasks"
	"github.com/adanyl0v/taskflow/internal/tui"
)

const noticeBuffer = 16

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				notices := make(chan tasks.Notice, noticeBuffer)
				a.notices.Set(tasks.NotifierFunc(func(n tasks.Notice) {
					select {
					case notices <- n:
					default:
						a.logger.Debug().
							Str("title", n.Title).
							Msg("dropped notice")
					}
				}))
				defer a.notices.Set(nil)

				return tui.Run(ctx, tui.Deps{
					Gate:        a.gate,
					Auth:        a.auth,
					Syncer:      a.syncer,
					Prefs:       a.prefs,
					Reminders:   a.reminders,
					Notices:     notices,
					RedirectURL: a.cfg.RedirectURL,
					Logger:      a.logger,
				})
			})
		},
	}
}
