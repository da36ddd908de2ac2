package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/session"
)

const authWait = 10 * time.Second

func signUpCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				var err error
				email, password, err = credentials(cmd, email, password)
				if err != nil {
					return err
				}

				signedIn, err := a.auth.SignUp(ctx, auth.SignUpParams{
					Email:       email,
					Password:    password,
					Name:        name,
					RedirectURL: a.cfg.RedirectURL,
				})
				if err != nil {
					return fmt.Errorf("sign up failed: %w", err)
				}
				return reportSignedIn(ctx, cmd, a, signedIn.User.ID, "Account created")
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				var err error
				email, password, err = credentials(cmd, email, password)
				if err != nil {
					return err
				}

				signedIn, err := a.auth.SignInWithPassword(ctx, email, password)
				if err != nil {
					return fmt.Errorf("sign in failed: %w", err)
				}
				return reportSignedIn(ctx, cmd, a, signedIn.User.ID, "Login successful")
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				err := a.auth.SignOut(ctx)
				if errors.Is(err, auth.ErrNoSession) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
					return nil
				}
				if err != nil {
					return fmt.Errorf("sign out failed: %w", err)
				}

				waitCtx, cancel := context.WithTimeout(ctx, authWait)
				defer cancel()
				_, err = a.gate.Wait(waitCtx, session.StateAnonymous)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Logged out. You have been successfully logged out.")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				user, err := a.RequireUser(ctx)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Name:  %s\n", user.Name)
				fmt.Fprintf(w, "Email: %s\n", user.Email)
				fmt.Fprintf(w, "ID:    %s\n", user.ID)
				if user.AvatarURL != "" {
					fmt.Fprintf(w, "Avatar: %s\n", user.AvatarURL)
				}
				return nil
			})
		},
	}
}

// reportSignedIn waits until the gate has resolved userID and greets them.
func reportSignedIn(ctx context.Context, cmd *cobra.Command, a *App, userID, title string) error {
	waitCtx, cancel := context.WithTimeout(ctx, authWait)
	defer cancel()

	for {
		snapshot, changed := a.gate.Watch()
		if snapshot.State == session.StateAuthenticated && snapshot.User.ID == userID {
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Welcome, %s!\n", title, snapshot.User.Name)
			return nil
		}
		select {
		case <-changed:
		case <-waitCtx.Done():
			return waitCtx.Err()
		}
	}
}

// credentials prompts on stdin for whatever was not given as a flag.
func credentials(cmd *cobra.Command, email, password string) (string, string, error) {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()

	var err error
	if email == "" {
		email, err = prompt(in, out, "Email: ")
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = prompt(in, out, "Password: ")
		if err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
