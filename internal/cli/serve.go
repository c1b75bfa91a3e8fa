package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/api"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/metrics"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr            string
	ShutdownTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the revision API over HTTP, with Prometheus metrics on
/metrics and a database health check on /healthz. SIGINT or SIGTERM
drains in-flight requests before exiting.

Example:
  mcr serve --addr :8080 --db ./mcr.db
  MCR_DIALECT=postgres MCR_DB=postgres://localhost/mcr mcr serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	_ = opts.config.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServer(ctx context.Context, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, closeFn, err := opts.openService(ctx, revisions.WithMetrics(metrics.New(reg)))
	if err != nil {
		return err
	}
	defer closeFn()

	srv := api.NewServer(svc, reg, opts.logger)
	addr := opts.config.GetString("addr")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		opts.logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
