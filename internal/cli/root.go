// Package cli implements the dreamfront command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dreamfront/internal/app"
	"dreamfront/internal/config"
	"dreamfront/internal/domain"
	"dreamfront/internal/guard"
	"dreamfront/internal/logger"
)

// annotationCapability marks a command as needing the runtime and names the
// session capability it requires.
const annotationCapability = "dreamfront/capability"

var capabilities = map[string]guard.Capability{
	guard.Public.String():       guard.Public,
	guard.RequiresAuth.String(): guard.RequiresAuth,
	guard.RequiresAnon.String(): guard.RequiresAnon,
}

func requires(c guard.Capability) map[string]string {
	return map[string]string{annotationCapability: c.String()}
}

// cli holds the state of one invocation.
type cli struct {
	opts Options
	rt   *runtime
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:               "dreamfront",
		Short:             "Dream journal frontend",
		Long:              "dreamfront serves the dream journal pages and keeps the user's session with the journal API.",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().Bool("ephemeral", false, "Keep the session in memory only")

	root.AddCommand(
		c.newServeCmd(),
		c.newLoginCmd(),
		c.newSignupCmd(),
		c.newLogoutCmd(),
		c.newWhoamiCmd(),
		c.newStatusCmd(),
	)
	return root
}

// setup builds the runtime for annotated commands and applies the guard.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	name, ok := cmd.Annotations[annotationCapability]
	if !ok {
		return nil
	}
	capability := capabilities[name]

	load := c.opts.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		cfg.Store.Backend = config.StoreMemory
	}

	level := cfg.LogLevel
	if cmd.Name() != "serve" {
		level = "warn"
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log, err := logger.New(cmd.ErrOrStderr(), level, cfg.LogFormat)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), cfg, log, c.opts.Backend)
	if err != nil {
		return err
	}
	c.rt = rt

	if capability == guard.Public {
		return nil
	}
	snap := rt.session.Initialize(cmd.Context())
	out := guard.Evaluate(snap.State, capability)
	if out.Action != guard.Redirect {
		return nil
	}
	c.close()
	if out.Target == domain.RouteLogin {
		return exitError(exitGuard, "not logged in: %s", hint(out.Target))
	}
	return exitError(exitGuard, "already logged in as %s: run %q first", displayName(snap.User), "dreamfront logout")
}

func (c *cli) close() {
	if c.rt == nil {
		return
	}
	if err := c.rt.Close(); err != nil {
		c.rt.log.Warn("close store", logger.Error(err))
	}
	c.rt = nil
}

// run wraps a command body so the runtime is released however it ends.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer c.close()
		return fn(cmd, args)
	}
}

// terminalController registers a controller that reports to the command's
// stderr.
func (c *cli) terminalController(cmd *cobra.Command) (*app.Controller, func()) {
	return c.rt.controller(
		&hintNavigator{w: cmd.ErrOrStderr()},
		&printNotifier{w: cmd.ErrOrStderr()},
	)
}

func displayName(u *domain.User) string {
	if u == nil {
		return "unknown user"
	}
	if u.Email == "" {
		return u.Username
	}
	return fmt.Sprintf("%s <%s>", u.Username, u.Email)
}
