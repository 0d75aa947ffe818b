package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"dreamfront/internal/domain"
	"dreamfront/internal/guard"
)

func (c *cli) newWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged in user",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.RequiresAuth),
	}
	cmd.Flags().Bool("reload", false, "Fetch the user from the API first")
	cmd.Flags().Bool("json", false, "Print the user as JSON")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		_, unregister := c.terminalController(cmd)
		defer unregister()

		snap := c.rt.session.Snapshot()
		if reload, _ := cmd.Flags().GetBool("reload"); reload {
			var err error
			snap, err = c.rt.session.ReloadUser(cmd.Context())
			if err != nil {
				return exitError(exitFailure, "%s", describe(err))
			}
		}
		if snap.User == nil {
			return exitError(exitFailure, "not logged in: %s", hint(domain.RouteLogin))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), snap.User)
		}
		u := snap.User
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", displayName(u))
		fmt.Fprintf(out, "id:       %s\n", u.ID)
		if u.FullName != "" {
			fmt.Fprintf(out, "name:     %s\n", u.FullName)
		}
		fmt.Fprintf(out, "verified: %t\n", u.IsVerified)
		return nil
	})
	return cmd
}

func (c *cli) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "status",
		Short:       "Show the session state",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.Public),
	}
	cmd.Flags().Bool("json", false, "Print the session snapshot as JSON")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		snap := c.rt.session.Initialize(cmd.Context())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), snap)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "state:   %s\n", snap.State)
		if snap.User != nil {
			fmt.Fprintf(out, "user:    %s\n", displayName(snap.User))
		}
		if snap.Credential != nil && !snap.Credential.Expiry.IsZero() {
			fmt.Fprintf(out, "expires: %s\n", snap.Credential.Expiry.UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(out, "store:   %s (%s)\n", c.rt.cfg.Store.Backend, c.rt.cfg.Store.Namespace)
		fmt.Fprintf(out, "api:     %s\n", c.rt.cfg.API.BaseURL)
		return nil
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
