package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/observability"
	"menulens/internal/pipeline"
	"menulens/internal/relay"
	serverHTTP "menulens/internal/server/http"
)

// writeMargin is added to the upstream timeout so the proxy can always write
// the timeout failure before its own write deadline.
const writeMargin = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy hop in front of the recognition webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, map[string]string{
				"server.addr":      "addr",
				"upstream.url":     "upstream-url",
				"upstream.timeout": "upstream-timeout",
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().String("upstream-url", "", "Recognition webhook URL")
	cmd.Flags().Duration("upstream-timeout", 0, "Budget for one webhook call (default 85s)")
	return cmd
}

func runServe(ctx context.Context, rt *appRuntime) error {
	cfg := rt.cfg
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := rt.logger
	if rt.meta.ConfigFile != "" {
		logger.Info("loaded config from %s", rt.meta.ConfigFile)
	}

	tracing, err := observability.NewTracerProvider(rt.obs.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownQuietly(logger, "tracer", tracing.Shutdown, cfg.Server.ShutdownTimeout)

	metrics, err := observability.NewMetricsCollector(rt.obs.Metrics)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	rejections := observability.NewRejectionMetrics()

	upstream, err := relay.New(cfg.UpstreamRelay(), relay.WithLogger(logging.NewComponentLogger("relay")))
	if err != nil {
		return err
	}
	proc := pipeline.New(
		menu.NewValidator(cfg.Policy()),
		upstream,
		pipeline.WithHop("upstream"),
		pipeline.WithMetrics(metrics, rejections),
		pipeline.WithLogger(logging.NewComponentLogger("pipeline")),
	)

	router := serverHTTP.NewRouter(serverHTTP.RouterConfig{
		ReleaseMode:     cfg.IsProduction(),
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxFileSize:     cfg.Upload.MaxFileSize,
		DefaultLanguage: cfg.Upload.DefaultLanguage,
		Version:         appVersion(),
		UpstreamURL:     cfg.Upstream.URL,
	}, serverHTTP.RouterDeps{
		Processor: proc,
		Logger:    logging.NewComponentLogger("http"),
		Tracer:    tracing.Tracer(),
	})
	server := serverHTTP.NewServer(serverHTTP.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Upstream.Timeout + writeMargin,
	}, router, logging.NewComponentLogger("http"))

	logger.Info("relaying to %s with a %s budget", cfg.Upstream.URL, cfg.Upstream.Timeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(metrics.Serve)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown: %v", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("proxy stopped")
	return nil
}

func shutdownQuietly(logger logging.Logger, name string, fn func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("%s shutdown: %v", name, err)
	}
}
