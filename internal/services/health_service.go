package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"creditfile/internal/config"
	"creditfile/internal/infrastructure"
	"creditfile/internal/validation"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	reports   *ReportService
	validator *validation.FileValidator
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. reports may be nil before
// the pipeline is wired.
func NewHealthService(version string, paths config.PathsConfig, reports *ReportService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		reports:   reports,
		validator: validation.NewFileValidator(logger),
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether reports can be processed and exported
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"pipeline": hs.checkPipeline(),
			"output":   hs.checkOutput(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "Service not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.reports == nil {
		return ServiceHealth{Status: "not_ready", Message: "report pipeline not initialized"}
	}
	msg := fmt.Sprintf("%d features published", len(hs.reports.FeatureNames()))
	if hs.reports.Scoring() {
		msg += ", scoring enabled"
	}
	return ServiceHealth{Status: "ready", Message: msg}
}

func (hs *HealthService) checkOutput() ServiceHealth {
	if hs.paths.OutputDir == "" {
		return ServiceHealth{Status: "ready", Message: "no output directory configured"}
	}
	if err := hs.validator.ValidateOutputDirectory(hs.paths.OutputDir); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{Status: "ready", Message: "output directory writable"}
}
