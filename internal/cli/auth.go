package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dreamfront/internal/domain"
	"dreamfront/internal/guard"
)

func (c *cli) newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in to the journal API",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.RequiresAnon),
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		_, unregister := c.terminalController(cmd)
		defer unregister()

		email, _ := cmd.Flags().GetString("email")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}

		snap, err := c.rt.session.Login(cmd.Context(), domain.LoginInput{Email: email, Password: password})
		if err != nil {
			return exitError(exitFailure, "login failed: %s", describe(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(snap.User))
		return nil
	})
	return cmd
}

func (c *cli) newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "signup",
		Short:       "Create an account and log in",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.RequiresAnon),
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("full-name", "", "Full name (optional)")
	cmd.Flags().String("password", "", "Account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		_, unregister := c.terminalController(cmd)
		defer unregister()

		in := domain.SignupInput{}
		in.Email, _ = cmd.Flags().GetString("email")
		in.Username, _ = cmd.Flags().GetString("username")
		in.FullName, _ = cmd.Flags().GetString("full-name")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		in.Password = password

		snap, err := c.rt.session.Signup(cmd.Context(), in)
		if err != nil {
			return exitError(exitFailure, "signup failed: %s", describe(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(snap.User))
		return nil
	})
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "logout",
		Short:       "End the session",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.Public),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		ctrl, unregister := c.terminalController(cmd)
		defer unregister()

		c.rt.session.Initialize(cmd.Context())
		ctrl.SignOut(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	})
	return cmd
}

// passwordFlag returns --password, or the first line of stdin.
func passwordFlag(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", exitError(exitFailure, "a password is required")
	}
	return p, nil
}

// describe renders an error for the terminal, preferring the server detail.
func describe(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Detail != "" {
		return derr.Detail
	}
	return err.Error()
}
