// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/cardgrid/internal/analysis"
	"github.com/starford/cardgrid/internal/annotation"
	"github.com/starford/cardgrid/internal/api"
	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/fetch"
	"github.com/starford/cardgrid/internal/pipeline"
	"github.com/starford/cardgrid/internal/render"
	"github.com/starford/cardgrid/internal/sse"
	"github.com/starford/cardgrid/internal/storage"
)

// readyProbeKey is read by the readiness check; it never exists.
const readyProbeKey = "cardgrid:ready-probe"

// setup applies options and installs the structured JSON logger.
func setup(opts []Option) (*Config, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app.config, logger, nil
}

// newService opens the annotation backend and wires the pipeline.
func newService(cfg *Config, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Service, storage.Provider, error) {
	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	store := annotation.New(backend,
		annotation.WithPrefix(cfg.Storage.KeyPrefix),
		annotation.WithLogger(logger))

	fetcher := fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
	})
	analyzer := analysis.New(cfg.Analysis.BaseURL, cfg.Analysis.Timeout)

	opts = append([]pipeline.Option{
		pipeline.WithMaxInFlight(cfg.Fetch.MaxInFlight),
		pipeline.WithLogger(logger),
	}, opts...)
	return pipeline.NewService(fetcher, analyzer, store, opts...), backend, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("analysis_url", cfg.Analysis.BaseURL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Live annotation events.
	hub := sse.NewHub(2 * time.Second)
	defer hub.Close()

	svc, backend, err := newService(cfg, logger, pipeline.WithNotifier(hub.Notify))
	if err != nil {
		return err
	}
	defer backend.Close()

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := backend.Get(readyProbeKey); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api; the SSE endpoint shares their auth.
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, hub))

	// HTML grid and forms.
	r.Mount("/", api.NewViewRouter(svc, renderer))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the fs backend for annotations edited by other processes.
	if fsBackend, ok := backend.(*storage.FS); ok && cfg.Storage.Watch {
		g.Go(func() error {
			if err := fsBackend.Watch(gCtx, logger, svc.ExternalChange); err != nil {
				logger.Warn("storage watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
