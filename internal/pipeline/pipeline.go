package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vaxboard/internal/infrastructure"
	"vaxboard/pkg/contracts/domain"
)

// ErrEmptyFilterResult indicates the criteria matched no records. The
// pipeline fails closed instead of producing partial views.
var ErrEmptyFilterResult = errors.New("no records match the selected filters")

// Result carries the three views derived from one filter pass. Filtered
// keeps dataset order, Latest holds one row per country, and Clean holds
// only rows with all four metric values present.
type Result struct {
	Criteria FilterCriteria
	Filtered []domain.VaccinationRecord
	Latest   []domain.VaccinationRecord
	Clean    []domain.VaccinationRecord
}

// Pipeline derives filtered views from a dataset.
type Pipeline struct {
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// New creates a pipeline. Metrics may be nil in tests.
func New(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, metrics: metrics}
}

// Run applies the criteria to the dataset and derives all views. It
// returns ErrEmptyFilterResult when nothing matches.
func (p *Pipeline) Run(ctx context.Context, ds *domain.Dataset, criteria FilterCriteria) (*Result, error) {
	start := time.Now()

	filtered := Filter(ds.Records, criteria)
	empty := len(filtered) == 0

	if p.metrics != nil {
		infrastructure.RecordPipelineRun(ctx, p.metrics, time.Since(start), empty)
	}

	if empty {
		p.logger.WarnContext(ctx, "filter matched no records",
			slog.Any("countries", criteria.Countries),
			slog.String("from", criteria.From.Format("2006-01-02")),
			slog.String("to", criteria.To.Format("2006-01-02")),
		)
		return nil, ErrEmptyFilterResult
	}

	result := &Result{
		Criteria: criteria,
		Filtered: filtered,
		Latest:   LatestPerCountry(filtered),
		Clean:    CleanNumeric(filtered),
	}

	p.logger.DebugContext(ctx, "pipeline run completed",
		slog.Int("filtered", len(result.Filtered)),
		slog.Int("latest", len(result.Latest)),
		slog.Int("clean", len(result.Clean)),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}
