package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ontology/internal/config"
	"ontology/internal/handler"
	"ontology/internal/hub"
	"ontology/internal/loader"
	"ontology/internal/logging"
	"ontology/internal/metrics"
	"ontology/internal/provider"
	"ontology/internal/ratelimit"
	"ontology/internal/service"
	"ontology/internal/watcher"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, cfgPath, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	if cfgPath != "" {
		log.WithField("path", cfgPath).Info("loaded config")
	} else {
		log.Info("no config file found, using defaults")
	}
	log.Info(cfg.Summary())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inner, err := openProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open provider: %w", err)
	}
	defer inner.Close()

	var m *metrics.Metrics
	var opts []service.Option
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts = append(opts, service.WithObserver(m.ObserveProviderCall))
	}

	bus := service.NewEventBus()
	p := service.New(inner, bus, opts...)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	sseHub := hub.New(log)
	wg.Add(2)
	go func() { defer wg.Done(); sseHub.Run(ctx) }()
	go func() { defer wg.Done(); sseHub.Forward(ctx, bus) }()

	if cfg.Seed.Path != "" {
		reload := seedLoader(p, bus, cfg.Seed.Path, log)
		if err := reload(ctx); err != nil {
			return err
		}
		if cfg.Seed.Watch {
			w := watcher.New(cfg.Seed.Path, reload, log)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("seed watcher stopped")
				}
			}()
		}
	}

	limiter := ratelimit.New(ratelimit.Config{
		GlobalRPS:     cfg.RateLimit.GlobalRPS,
		GlobalBurst:   cfg.RateLimit.GlobalBurst,
		ClientLimit:   cfg.RateLimit.PerClientLimit,
		ClientWindow:  cfg.RateLimit.Window.Duration(),
		RedisAddr:     cfg.RateLimit.RedisAddr,
		RedisPassword: cfg.RateLimit.RedisPassword,
	})
	defer limiter.Close()

	h, err := buildHandler(cfg, p, m, sseHub, limiter, log)
	if err != nil {
		return err
	}

	// Request contexts are not derived from ctx, so in-flight requests
	// drain during Shutdown. SSE streams end when sseHub stops with ctx.
	return run(ctx, newServer(cfg, h), cfg.Server.ShutdownTimeout.Duration(), log)
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}
}

// buildHandler mounts the API on a mux and wraps it in middleware
func buildHandler(cfg *config.Config, p provider.DataProvider, m *metrics.Metrics, stream http.Handler, limiter *ratelimit.Limiter, log logrus.FieldLogger) (http.Handler, error) {
	ips, err := handler.NewClientIPResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, err
	}

	opts := []handler.Option{
		handler.WithLogger(log),
		handler.WithStream(stream),
		handler.WithExposeInternalErrors(cfg.ExposeInternalErrors()),
		handler.WithRequestTimeout(cfg.Server.RequestTimeout.Duration()),
	}
	if m != nil {
		opts = append(opts, handler.WithMetrics(m), handler.WithMetricsPath(cfg.Metrics.Path))
	}

	mux := http.NewServeMux()
	handler.New(p, opts...).Routes(mux)

	mws := []handler.Middleware{
		handler.RequestID,
		logging.RequestLogger(log),
		handler.Recover(log),
		handler.CORS(cfg.Server.CORSOrigins),
		handler.RateLimit(limiter, ips, m, log, "/healthz", cfg.Metrics.Path),
	}
	if m != nil {
		// innermost, so r.Pattern is set by the mux before labelling
		mws = append(mws, m.Instrument)
	}
	return handler.Chain(mux, mws...), nil
}

// seedLoader returns a reload function that imports the seed file and
// announces the import on the bus
func seedLoader(p provider.DataProvider, bus *service.EventBus, path string, log logrus.FieldLogger) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := loader.Load(ctx, p, path)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"path":    path,
			"created": res.Created,
			"updated": res.Updated,
			"skipped": res.Skipped,
		}).Info("seed imported")
		bus.Publish(service.Event{Type: service.EventSnapshotImported, Payload: res})
		return nil
	}
}

// run serves until ctx is cancelled, then shuts down gracefully within
// timeout
func run(ctx context.Context, srv *http.Server, timeout time.Duration, log logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, srv, ln, timeout, log)
}

// serve runs srv on ln until ctx is cancelled, then waits up to timeout
// for in-flight requests to finish
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, log logrus.FieldLogger) error {
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("server listening")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
