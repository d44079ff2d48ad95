package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/cli/config"
	httpctrl "github.com/secmon-lab/stackscout/pkg/controller/http"
	"github.com/secmon-lab/stackscout/pkg/service/worker"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var rtCfg runtimeConfig
	var whCfg config.Warehouse
	var addr string
	var refreshInterval time.Duration

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("STACKSCOUT_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Re-ingest warehouse calls on this interval (disabled when 0)",
			Sources:     cli.EnvVars("STACKSCOUT_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}
	flags = append(flags, rtCfg.Flags()...)
	flags = append(flags, whCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := buildOptions{needEmbedder: true}
			if refreshInterval > 0 {
				opts.warehouse = &whCfg
			}
			rt, err := rtCfg.build(ctx, opts)
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			var refreshWorker *worker.IngestRefreshWorker
			if refreshInterval > 0 {
				refreshWorker = worker.NewIngestRefreshWorker(rt.uc.Ingest, usecase.IngestInput{
					Namespace: rt.pipeline.Namespace,
					Limit:     rt.pipeline.FetchLimit,
					BatchSize: rt.pipeline.BatchSize,
				}, refreshInterval)
				if err := refreshWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start ingest refresh worker")
				}
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithRetrieve(rt.uc.Retrieve),
				httpctrl.WithPipelineConfig(rt.pipeline),
			}
			if rt.uc.Extract != nil {
				httpOpts = append(httpOpts, httpctrl.WithExtract(rt.uc.Extract))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "namespace", rt.pipeline.Namespace)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if refreshWorker != nil {
					refreshWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				waitEvents(shutdownCtx)

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
