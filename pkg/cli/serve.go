package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/graph-generation-service/pkg/api"
	"github.com/yourusername/graph-generation-service/pkg/config"
	"github.com/yourusername/graph-generation-service/pkg/metrics"
	"github.com/yourusername/graph-generation-service/pkg/render"
)

const shutdownGrace = 10 * time.Second

type serveOptions struct {
	addr string
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Serve the graph generation API:

  GET  /health           liveness check
  POST /generate-graphs  render charts to base64 PNGs
  POST /generate-report  render charts into a PDF report
  GET  /chart-types      list supported chart types
  GET  /metrics          Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Server.Addr = opts.addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address, overrides the configuration")

	return cmd
}

// newService wires the dispatcher, metrics and API handler for a configuration
func newService(cfg *config.Config) *api.Handler {
	logger := cfg.NewLogger()
	m := metrics.New()
	dispatcher := render.NewDispatcher(cfg.Renderer, logger, m)
	return api.NewHandler(dispatcher, m, cfg.Limits, logger)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newService(cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Graph generation service listening", "addr", srv.Addr, "maxConcurrentRenders", cfg.Renderer.MaxConcurrentRenders)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
