package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	metricnoop "go.opentelemetry.io/otel/metric/noop"

	"creditfile/internal/config"
	apierrors "creditfile/internal/errors"
	"creditfile/internal/features"
	"creditfile/internal/infrastructure"
	customMiddleware "creditfile/internal/middleware"
	"creditfile/internal/scoring"
	"creditfile/internal/services"
	handlers "creditfile/internal/transport/http"
	"creditfile/pkg/contracts"
)

// Application wires configuration, telemetry, services and the HTTP server
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Reports       *services.ReportService
	Health        *services.HealthService
	Router        *chi.Mux
	Server        *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// New creates an application from a loaded configuration. Telemetry is
// initialized here, so callers must Stop the application when done.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
	}

	if cfg.Telemetry.MetricsEnabled {
		metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			providers.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		a.Metrics = metrics
	}

	if err := a.initializeServices(); err != nil {
		providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds the report pipeline and health service
func (a *Application) initializeServices() error {
	reports, err := NewReportService(a.Config.Pipeline, a.Logger,
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithMetrics(a.Metrics))
	if err != nil {
		return err
	}
	a.Reports = reports
	a.Health = services.NewHealthService(contracts.Version, a.Config.Paths, reports, a.Logger)
	return nil
}

// NewReportService builds the report pipeline from the pipeline settings:
// the vocabulary and model artifacts when configured, the embedded
// defaults otherwise
func NewReportService(cfg config.PipelineConfig, logger *slog.Logger, opts ...services.ReportServiceOption) (*services.ReportService, error) {
	vectorizer := features.DefaultBagOfWords()
	if cfg.VocabularyFile != "" {
		loaded, err := features.LoadBagOfWords(cfg.VocabularyFile)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to load vocabulary", err).
				WithContext("file", cfg.VocabularyFile)
		}
		vectorizer = loaded
	}

	engine, err := features.NewEngine(vectorizer,
		features.WithInterestRate(cfg.InterestRate),
		features.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create feature engine: %w", err)
	}

	base := []services.ReportServiceOption{
		services.WithWorkers(cfg.Workers),
		services.WithLogger(logger),
	}
	if cfg.Score {
		model, scaler, err := loadModel(cfg.ModelFile, engine.FeatureNames())
		if err != nil {
			return nil, err
		}
		base = append(base, services.WithScorer(scoring.NewScorer(model, scaler)))
		if cfg.ModelFile == "" {
			logger.Warn("Scoring with the built-in baseline model; its weights are not trained, set pipeline.model_file for real scores",
				slog.String("model", model.Name))
		}
		logger.Debug("Credit scoring enabled",
			slog.String("model", model.Name),
			slog.String("model_file", cfg.ModelFile))
	}

	return services.NewReportService(engine, append(base, opts...)...)
}

func loadModel(path string, names []string) (*scoring.LinearModel, scoring.MinMaxScaler, error) {
	if path == "" {
		return scoring.DefaultModel(names)
	}
	model, scaler, err := scoring.LoadModel(path, names)
	if err != nil {
		return nil, scoring.MinMaxScaler{}, apierrors.NewConfigError("failed to load model", err).
			WithContext("file", path)
	}
	return model, scaler, nil
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID → RealIP → OTel → ErrorMiddleware → SecurityHeaders → RateLimit → Timeout → BodyLimit
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
	r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())

		r.Group(func(r chi.Router) {
			if rl := a.Config.Server.RateLimit; rl.Enabled {
				r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
			}
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(customMiddleware.BodyLimit(a.Config.Server.MaxUploadSize, errorHandler))
			r.Use(customMiddleware.ContentTypeValidator(errorHandler, "multipart/form-data"))

			reportHandler := handlers.NewReportHandler(a.Reports, a.Config.Server.MaxUploadSize, a.Logger, errorHandler)
			r.Mount("/v1", reportHandler.Routes())
		})
	})

	a.Router = r
}

// createServer wraps the router in otelhttp so every request gets a server span
func (a *Application) createServer() {
	opts := []otelhttp.Option{
		otelhttp.WithMeterProvider(metricnoop.NewMeterProvider()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if tp := a.OTelProviders.TracerProvider; tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	handler := otelhttp.NewHandler(a.Router, infrastructure.ServiceName, opts...)

	a.Server = &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(a.Config.Server.Port)),
		Handler:      handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start binds the server address and serves in the background
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	a.Logger.InfoContext(ctx, "Server started",
		slog.String("address", ln.Addr().String()),
		slog.String("version", contracts.Version),
		slog.Int("workers", a.Config.Pipeline.Workers),
		slog.Bool("scoring", a.Reports.Scoring()),
		slog.Bool("metrics", a.OTelProviders.PrometheusHTTP != nil))

	go func() {
		err := a.Server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveErr <- err
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled or the server fails, then shuts down
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return errors.Join(err, a.OTelProviders.Shutdown(context.Background()))
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case serveErr = <-a.serveErr:
		if serveErr != nil {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", serveErr.Error()))
		}
	}
	return errors.Join(serveErr, a.Stop(ctx))
}
