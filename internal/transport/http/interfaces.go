package http

import (
	"context"

	"vaxboard/internal/pipeline"
	"vaxboard/internal/services"
	"vaxboard/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the
// handlers depend on.
type DashboardServiceInterface interface {
	FilterOptions(ctx context.Context) (*services.FilterOptions, error)
	Summary(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error)
	Stats(ctx context.Context, criteria pipeline.FilterCriteria) (*services.StatsReport, error)
	Latest(ctx context.Context, criteria pipeline.FilterCriteria) ([]domain.VaccinationRecord, error)
	Chart(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error)
}

// HealthServiceInterface defines the health operations the handlers
// depend on.
type HealthServiceInterface interface {
	Check(ctx context.Context) *services.HealthStatus
}
