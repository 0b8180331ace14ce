package main

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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	applicanthandler "ktp/internal/applicant/handler"
	applicantmetrics "ktp/internal/applicant/metrics"
	"ktp/internal/applicant/persistence/memory"
	pgstore "ktp/internal/applicant/persistence/postgres"
	redisstore "ktp/internal/applicant/persistence/redis"
	sqlitestore "ktp/internal/applicant/persistence/sqlite"
	"ktp/internal/applicant/service"
	"ktp/internal/platform/config"
	"ktp/internal/platform/httpserver"
	"ktp/internal/platform/metrics"
	"ktp/internal/platform/middleware"
	"ktp/internal/platform/postgres"
	platformredis "ktp/internal/platform/redis"
	"ktp/internal/platform/tracing"
	"ktp/pkg/platform/httputil"
	"ktp/pkg/platform/middleware/requesttime"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveRun(ctx, cfg, commonRun(cfg))
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(cfg.Tracing, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(backend.gateway,
		service.WithLogger(logger),
		service.WithMetrics(applicantmetrics.New(reg)),
		service.WithSyncTimeout(cfg.Storage.SyncTimeout),
	)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	router := newRouter(routerDeps{
		logger:   logger,
		handler:  applicanthandler.New(svc, logger),
		registry: reg,
		metrics:  metrics.New(reg),
		timeout:  cfg.Server.RequestTimeout,
		health:   backend.health,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	}
	logger.Info("starting ktp",
		"addr", ln.Addr().String(),
		"storage_backend", cfg.Storage.Backend,
	)
	return runServer(ctx, httpserver.New(cfg.Server.Addr, router), ln, cfg.Server.ShutdownTimeout, logger)
}

// backend is the selected gateway plus its lifecycle hooks.
type backend struct {
	gateway service.Gateway
	health  func(context.Context) error
	close   func() error
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, error) {
	noop := func() error { return nil }
	healthy := func(context.Context) error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage; applicants are lost on restart")
		return backend{gateway: memory.New(), health: healthy, close: noop}, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return backend{}, err
		}
		store := pgstore.New(db, pgstore.WithTimeout(cfg.Storage.SyncTimeout))
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return backend{}, err
		}
		return backend{gateway: store, health: db.PingContext, close: db.Close}, nil

	case config.BackendSQLite:
		store, err := sqlitestore.New(cfg.SQLite.Path)
		if err != nil {
			return backend{}, err
		}
		return backend{gateway: store, health: healthy, close: store.Close}, nil

	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return backend{}, err
		}
		store := redisstore.New(client.Client, redisstore.WithKey(cfg.Redis.Key))
		return backend{gateway: store, health: client.Health, close: client.Close}, nil

	default:
		return backend{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

type routerDeps struct {
	logger   *slog.Logger
	handler  *applicanthandler.Handler
	registry *prometheus.Registry
	metrics  *metrics.HTTP
	timeout  time.Duration
	health   func(context.Context) error
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Latency(deps.metrics))

	r.Handle("/metrics", metrics.Handler(deps.registry))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.health(r.Context()); err != nil {
			deps.logger.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if deps.timeout > 0 {
			r.Use(chimiddleware.Timeout(deps.timeout))
		}
		r.Use(middleware.ContentTypeJSON)
		deps.handler.Register(r)
	})
	return r
}

// runServer serves on ln until ctx is cancelled, then drains connections
// within shutdownTimeout.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
