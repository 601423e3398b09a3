package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/georgia-health-dashboard/internal/adapter/http"
	"github.com/couchcryptid/georgia-health-dashboard/internal/config"
	"github.com/couchcryptid/georgia-health-dashboard/internal/dashboard"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Georgia county health and income dashboard",
		Long: `Joins county-level health and income datasets against Georgia's county
boundaries and serves the resulting choropleth maps, trend charts and
correlation plot as SVG.

Configuration is read from the environment (HTTP_ADDR, CATALOG_PATH,
DATA_DIR, GEOJSON_URL, KAFKA_BROKERS, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newRenderCmd(), newListCmd())
	return root
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, nil, err
	}
	return cfg, observability.NewLogger(cfg), nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	a, err := newApp(cfg, logger, metrics, true)
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		return err
	}
	defer a.close()

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.dash, cfg.RenderCacheTTL, metrics, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The schedule is checked before anything starts listening.
	stopReloads := func() {}
	if cfg.ReloadSchedule != "" {
		stopReloads, err = dashboard.ScheduleReloads(ctx, a.dash, cfg.ReloadSchedule, logger)
		if err != nil {
			return err
		}
	}
	defer stopReloads()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load. Views report loading until they settle; readiness
	// follows.
	go func() {
		if err := a.dash.LoadAll(ctx); err != nil {
			logger.Warn("initial load finished with errors", "error", err)
			return
		}
		logger.Info("initial load finished", "views", len(a.dash.Views()))
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render VIEW",
		Short: "Load one view and write it as SVG",
		Long: `Loads a single view from the catalog and writes its SVG to --out, or to
standard output. A view that fails to load is written as its error panel and
the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger, observability.NewMetrics(), false)
			if err != nil {
				return err
			}
			defer a.close()

			v, ok := a.dash.View(args[0])
			if !ok {
				return fmt.Errorf("unknown view %q", args[0])
			}
			loadErr := v.Load(cmd.Context())

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := v.WriteSVG(w); err != nil {
				return fmt.Errorf("render %s: %w", v.Name(), err)
			}
			if loadErr != nil {
				return fmt.Errorf("load %s: %w", v.Name(), loadErr)
			}
			if s := v.Snapshot(); s.Warning != "" {
				logger.Warn("view rendered with warning", "view", v.Name(), "warning", s.Warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog's views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger, observability.NewMetrics(), false)
			if err != nil {
				return err
			}
			defer a.close()

			for _, v := range a.dash.Views() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-12s %s\n", v.Name(), v.Kind(), v.Title())
			}
			return nil
		},
	}
}
