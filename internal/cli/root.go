// Package cli implements the taskflow command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskflow/internal/config"
)

var (
	configPath string
	verbose    bool
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - personal task manager",
		Long: `TaskFlow keeps your to-do list on the taskflow service.

Sign in with "taskflow login", then add, complete, edit and delete tasks
from the command line or from the interactive dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to a YAML or TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(signUpCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(doneCmd(true))
	rootCmd.AddCommand(doneCmd(false))
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(themeCmd())
	rootCmd.AddCommand(remindersCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(dashboardCmd())

	return rootCmd
}

// Execute runs the root command and reports errors on stderr.
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".taskflow", "config.yaml")
}

func newLogger(env string, verbose bool, w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if env == config.EnvLocal {
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = w
		w = consoleWriter
		if verbose {
			level = zerolog.TraceLevel
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "taskflow").
		Logger()
}

// withApp builds the client, starts the session gate and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	cfg, err := config.ReadClient(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, verbose, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.Start(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, a)
}
