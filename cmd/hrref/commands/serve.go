package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/hrref/cmd/hrref/output"
	"github.com/willibrandon/hrref/server"
)

const shutdownGrace = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the employee listings over HTTP",
		Long: `Serve the employee listings over HTTP.

  GET  /employees/cities
  GET  /employees/positions
  POST /update               always 501 (or 400 for an unknown entity)
  GET  /records/{category}   raw records, readable by --store-driver remote
  GET  /healthz
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, console)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().Bool("preload", false, "Resolve every reference category before accepting requests")
	return cmd
}

func runServe(cmd *cobra.Command, console *output.Console) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if cerr := rt.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if rt.cfg.Cache.Preload {
		if err := rt.app.Cache().Preload(ctx); err != nil {
			// Serving continues; /healthz reports the cache as cold.
			console.Warning("preload failed: %v", err)
		}
	}

	srv := server.New(server.Options{
		Addr:         rt.cfg.Server.Addr,
		App:          rt.app,
		Store:        rt.store,
		Logger:       rt.logger,
		RecordsToken: rt.cfg.Server.Token,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()
	console.Info("Listening on %s", rt.cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
