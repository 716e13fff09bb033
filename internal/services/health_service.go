package services

import (
	"context"
	"log/slog"
	"time"

	"vaxboard/internal/config"
	"vaxboard/internal/dataset"
)

// HealthStatus represents the overall health of the service
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthService reports liveness and readiness of the dashboard.
type HealthService struct {
	store     *dataset.Store
	version   string
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service.
func NewHealthService(store *dataset.Store, version string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		version:   version,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Check runs all health checks. A missing dataset file degrades the
// service but does not make it unhealthy, since the file can appear
// later without a restart.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	if config.FileExists(s.store.Path()) {
		status.Checks["dataset_file"] = CheckResult{Status: "ok"}
	} else {
		status.Checks["dataset_file"] = CheckResult{
			Status:  "missing",
			Message: "dataset file not found at " + s.store.Path(),
		}
		status.Status = "degraded"
	}

	if s.store.Loaded() {
		status.Checks["dataset_cache"] = CheckResult{Status: "ok"}
	} else {
		status.Checks["dataset_cache"] = CheckResult{
			Status:  "cold",
			Message: "dataset not loaded yet",
		}
	}

	return status
}
