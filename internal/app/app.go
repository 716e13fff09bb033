package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"vaxboard/internal/config"
	"vaxboard/internal/dataset"
	apierrors "vaxboard/internal/errors"
	"vaxboard/internal/infrastructure"
	customMiddleware "vaxboard/internal/middleware"
	"vaxboard/internal/pipeline"
	"vaxboard/internal/services"
	transporthttp "vaxboard/internal/transport/http"
)

const (
	// AppName is the application name
	AppName = "vaxboard"
	// Version is the application version
	Version = "v1.0.0"
)

// Application holds all application components
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Store            *dataset.Store
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	Router     chi.Router
	Server     *http.Server
	FrontendFS fs.FS
}

// NewApplication creates and wires the application. frontendFS may be
// nil, in which case no static frontend is served.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	slog.SetDefault(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		logger.Warn("failed to create business metrics", slog.String("error", err.Error()))
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	dataFile := a.Config.GetDataFile()
	a.Store = dataset.NewStore(dataFile, a.Logger)

	p := pipeline.New(a.Logger, a.Metrics)
	a.DashboardService = services.NewDashboardService(
		a.Store, p, a.Config.Dashboard.DefaultCountryCount, a.Logger)
	a.HealthService = services.NewHealthService(a.Store, Version, a.Logger)

	return nil
}

// warmUpDataset preloads the dataset so the first request does not pay
// the parse cost. A missing file is only a warning; requests report it
// per call and the file can appear later.
func (a *Application) warmUpDataset(ctx context.Context) {
	if _, err := a.Store.Get(ctx); err != nil {
		if errors.Is(err, dataset.ErrFileNotFound) {
			a.Logger.WarnContext(ctx, "dataset file not found, dashboard requests will fail until it appears",
				slog.String("path", a.Store.Path()))
			return
		}
		a.Logger.ErrorContext(ctx, "dataset warm-up failed", slog.String("error", err.Error()))
	}
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These are safe before the group because they don't wrap the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.HTTPMetrics(a.Metrics))
		r.Use(customMiddleware.WithBusinessMetrics(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))

		a.setupAPIRoutes(r, errorHandler)

		if a.FrontendFS != nil {
			a.setupFrontendRoutes(r)
		}
	})

	// Prometheus metrics endpoint outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	dashboardHandler := transporthttp.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, map[string]string{
				"name":    AppName,
				"version": Version,
			})
		})
	})
}

// setupFrontendRoutes serves the embedded single page frontend.
func (a *Application) setupFrontendRoutes(r chi.Router) {
	fileServer := http.FileServer(http.FS(a.FrontendFS))

	r.Get("/", a.serveIndex)
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := strings.TrimPrefix(req.URL.Path, "/")
		if _, err := fs.Stat(a.FrontendFS, path); err != nil {
			// SPA fallback: unknown paths get the index page.
			a.serveIndex(w, req)
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}

func (a *Application) serveIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(a.FrontendFS, "index.html")
	if err != nil {
		http.Error(w, "frontend not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and warms up the dataset cache.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_file", a.Store.Path()),
		slog.String("level", a.Config.Logging.Level))

	go a.warmUpDataset(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down telemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	shutdownParent, shutdownCancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer shutdownCancel()

	return a.Stop(shutdownParent)
}
