package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	adapthttp "dreamfront/internal/adapter/http"
	"dreamfront/internal/app"
	"dreamfront/internal/guard"
	"dreamfront/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serve the journal pages and relay API calls",
		Args:        cobra.NoArgs,
		Annotations: requires(guard.Public),
	}
	cmd.Flags().String("addr", "", "Listen address (default $ADDR)")
	cmd.Flags().String("web-dir", "", "Page bundle directory (default $WEB_DIR)")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		rt := c.rt
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = rt.cfg.Addr
		}
		webDir, _ := cmd.Flags().GetString("web-dir")
		if webDir == "" {
			webDir = rt.cfg.WebDir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		flash := adapthttp.NewFlash()
		nav := adapthttp.NewPendingNavigator()
		ctrl, unregister := rt.controller(nav, flash)
		defer unregister()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		srv := &http.Server{
			Handler:           adapthttp.New(rt.session, ctrl, rt.gw, flash, nav, webDir).WithLogger(rt.log).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		rt.log.Info("listening", "addr", ln.Addr().String(), "api", rt.cfg.API.BaseURL)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rt.session.Initialize(gctx)
			return nil
		})
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		g.Go(func() error {
			refreshLoop(gctx, rt.session, rt.cfg.Refresh.Interval, rt.cfg.Refresh.Window, rt.log)
			return nil
		})
		return g.Wait()
	})
	return cmd
}

// refreshLoop refreshes the credential whenever it is about to expire,
// until ctx ends.
func refreshLoop(ctx context.Context, session *app.SessionService, interval, window time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tried, err := session.RefreshIfExpiring(ctx, window)
			switch {
			case err != nil && !app.IsSuperseded(err):
				log.WarnContext(ctx, "credential refresh failed", logger.Error(err))
			case tried && err == nil:
				log.DebugContext(ctx, "credential refreshed ahead of expiry")
			}
		}
	}
}
