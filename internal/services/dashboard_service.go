package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vaxboard/internal/dataset"
	"vaxboard/internal/pipeline"
	"vaxboard/pkg/contracts/domain"
)

// Chart names exposed by the dashboard.
const (
	ChartDailyTrend           = "daily-trend"
	ChartCountryTotals        = "country-totals"
	ChartDistribution         = "distribution"
	ChartCorrelation          = "correlation"
	ChartFullyVaccinatedShare = "fully-vaccinated-share"
)

// ChartNames lists every chart the dashboard can render.
var ChartNames = []string{
	ChartDailyTrend,
	ChartCountryTotals,
	ChartDistribution,
	ChartCorrelation,
	ChartFullyVaccinatedShare,
}

// FilterOptions describes the selectable filter space of the loaded
// dataset. Countries keep dataset order; the default selection is the
// first few of them.
type FilterOptions struct {
	Countries        []string `json:"countries"`
	DefaultCountries []string `json:"default_countries"`
	MinDate          string   `json:"min_date"`
	MaxDate          string   `json:"max_date"`
	Charts           []string `json:"charts"`
}

// Summary holds the headline numbers for the current selection. The
// vaccination totals are summed over each country's newest row.
type Summary struct {
	Countries             int    `json:"countries"`
	TotalVaccinations     int64  `json:"total_vaccinations"`
	PeopleVaccinated      int64  `json:"people_vaccinated"`
	PeopleFullyVaccinated int64  `json:"people_fully_vaccinated"`
	DailyVaccinations     int64  `json:"daily_vaccinations"`
	Records               int    `json:"records"`
	From                  string `json:"from"`
	To                    string `json:"to"`
}

// StatsReport is the describe() table over the gap-free rows of the
// current selection.
type StatsReport struct {
	Rows    int                      `json:"rows"`
	Columns []pipeline.ColumnStats   `json:"columns"`
	Daily   *pipeline.MetricCounters `json:"daily_vaccinations,omitempty"`
}

// TrendSeries is one country's daily vaccination line. Values align
// with Dates and keep nil for missing observations so plots show gaps.
type TrendSeries struct {
	Country string     `json:"country"`
	Dates   []string   `json:"dates"`
	Values  []*float64 `json:"values"`
}

// TrendChart feeds the per-country daily vaccination lines.
type TrendChart struct {
	Series []TrendSeries `json:"series"`
}

// BarChart feeds the total vaccinations per country bars.
type BarChart struct {
	Countries []string   `json:"countries"`
	Values    []*float64 `json:"values"`
}

// BoxSeries is one country's daily vaccination sample for the
// distribution boxes.
type BoxSeries struct {
	Country string    `json:"country"`
	Values  []float64 `json:"values"`
}

// BoxChart feeds the per-country distribution boxes.
type BoxChart struct {
	Series []BoxSeries `json:"series"`
}

// ScatterPoint relates people vaccinated to people fully vaccinated for
// one gap-free row, sized by the daily pace.
type ScatterPoint struct {
	Country               string  `json:"country"`
	Date                  string  `json:"date"`
	PeopleVaccinated      float64 `json:"people_vaccinated"`
	PeopleFullyVaccinated float64 `json:"people_fully_vaccinated"`
	DailyVaccinations     float64 `json:"daily_vaccinations"`
}

// ScatterChart feeds the correlation scatter.
type ScatterChart struct {
	Points []ScatterPoint `json:"points"`
}

// PieChart feeds the fully vaccinated share pie. Countries without a
// fully vaccinated figure are left out.
type PieChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// DashboardService derives all dashboard views from the vaccination
// dataset.
type DashboardService struct {
	store               *dataset.Store
	pipeline            *pipeline.Pipeline
	defaultCountryCount int
	logger              *slog.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(store *dataset.Store, p *pipeline.Pipeline, defaultCountryCount int, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultCountryCount <= 0 {
		defaultCountryCount = 5
	}
	return &DashboardService{
		store:               store,
		pipeline:            p,
		defaultCountryCount: defaultCountryCount,
		logger:              logger,
	}
}

// FilterOptions returns the selectable countries, the default
// selection, and the dataset's date bounds.
func (s *DashboardService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	return &FilterOptions{
		Countries:        ds.Countries,
		DefaultCountries: ds.DefaultCountries(s.defaultCountryCount),
		MinDate:          ds.MinDate.Format("2006-01-02"),
		MaxDate:          ds.MaxDate.Format("2006-01-02"),
		Charts:           ChartNames,
	}, nil
}

// Summary computes the headline numbers for the selection.
func (s *DashboardService) Summary(ctx context.Context, criteria pipeline.FilterCriteria) (*Summary, error) {
	result, err := s.run(ctx, criteria)
	if err != nil {
		return nil, err
	}

	total, _ := pipeline.SumMetric(result.Latest, domain.ColumnTotalVaccinations)
	people, _ := pipeline.SumMetric(result.Latest, domain.ColumnPeopleVaccinated)
	fully, _ := pipeline.SumMetric(result.Latest, domain.ColumnPeopleFullyVaccinated)
	daily, _ := pipeline.SumMetric(result.Latest, domain.ColumnDailyVaccinations)

	return &Summary{
		Countries:             pipeline.UniqueCountries(result.Filtered),
		TotalVaccinations:     int64(total),
		PeopleVaccinated:      int64(people),
		PeopleFullyVaccinated: int64(fully),
		DailyVaccinations:     int64(daily),
		Records:               len(result.Filtered),
		From:                  result.Criteria.From.Format("2006-01-02"),
		To:                    result.Criteria.To.Format("2006-01-02"),
	}, nil
}

// Stats computes descriptive statistics over the gap-free rows.
func (s *DashboardService) Stats(ctx context.Context, criteria pipeline.FilterCriteria) (*StatsReport, error) {
	result, err := s.run(ctx, criteria)
	if err != nil {
		return nil, err
	}

	report := &StatsReport{
		Rows:    len(result.Clean),
		Columns: pipeline.Describe(result.Clean),
	}
	if counters, ok := pipeline.Counters(result.Clean, domain.ColumnDailyVaccinations); ok {
		report.Daily = &counters
	}
	return report, nil
}

// Latest returns each selected country's newest row.
func (s *DashboardService) Latest(ctx context.Context, criteria pipeline.FilterCriteria) ([]domain.VaccinationRecord, error) {
	result, err := s.run(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return result.Latest, nil
}

// Chart builds the payload for the named chart. Unknown names return
// ErrUnknownChart.
func (s *DashboardService) Chart(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error) {
	result, err := s.run(ctx, criteria)
	if err != nil {
		return nil, err
	}

	switch name {
	case ChartDailyTrend:
		return buildTrendChart(result.Filtered), nil
	case ChartCountryTotals:
		return buildBarChart(result.Latest), nil
	case ChartDistribution:
		return buildBoxChart(result.Clean), nil
	case ChartCorrelation:
		return buildScatterChart(result.Clean), nil
	case ChartFullyVaccinatedShare:
		return buildPieChart(result.Latest), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
}

// run loads the dataset, fills in criteria defaults, and executes the
// filter pipeline, translating lower-level errors into service errors.
func (s *DashboardService) run(ctx context.Context, criteria pipeline.FilterCriteria) (*pipeline.Result, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	criteria, err = s.normalize(ds, criteria)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, ds, criteria)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyFilterResult) {
			return nil, ErrEmptyFilterResult
		}
		return nil, err
	}

	return result, nil
}

func (s *DashboardService) dataset(ctx context.Context) (*domain.Dataset, error) {
	ds, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, s.store.Path())
		}
		s.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrDatasetLoad, err)
	}
	return ds, nil
}

// normalize fills unset criteria fields from the dataset: the default
// country selection and the full date range.
func (s *DashboardService) normalize(ds *domain.Dataset, criteria pipeline.FilterCriteria) (pipeline.FilterCriteria, error) {
	if len(criteria.Countries) == 0 {
		criteria.Countries = ds.DefaultCountries(s.defaultCountryCount)
	}
	if criteria.From.IsZero() {
		criteria.From = ds.MinDate
	}
	if criteria.To.IsZero() {
		criteria.To = ds.MaxDate
	}
	if criteria.From.After(criteria.To) {
		return criteria, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			criteria.From.Format("2006-01-02"), criteria.To.Format("2006-01-02"))
	}
	return criteria, nil
}

func buildTrendChart(records []domain.VaccinationRecord) *TrendChart {
	order := make([]string, 0, 8)
	byCountry := make(map[string]*TrendSeries, 8)
	for _, record := range records {
		series, exists := byCountry[record.Country]
		if !exists {
			series = &TrendSeries{Country: record.Country}
			byCountry[record.Country] = series
			order = append(order, record.Country)
		}
		series.Dates = append(series.Dates, record.Date.Format("2006-01-02"))
		series.Values = append(series.Values, record.DailyVaccinations)
	}

	chart := &TrendChart{Series: make([]TrendSeries, 0, len(order))}
	for _, country := range order {
		chart.Series = append(chart.Series, *byCountry[country])
	}
	return chart
}

func buildBarChart(latest []domain.VaccinationRecord) *BarChart {
	chart := &BarChart{
		Countries: make([]string, 0, len(latest)),
		Values:    make([]*float64, 0, len(latest)),
	}
	for _, record := range latest {
		chart.Countries = append(chart.Countries, record.Country)
		chart.Values = append(chart.Values, record.TotalVaccinations)
	}
	return chart
}

func buildBoxChart(clean []domain.VaccinationRecord) *BoxChart {
	order := make([]string, 0, 8)
	byCountry := make(map[string]*BoxSeries, 8)
	for _, record := range clean {
		series, exists := byCountry[record.Country]
		if !exists {
			series = &BoxSeries{Country: record.Country}
			byCountry[record.Country] = series
			order = append(order, record.Country)
		}
		series.Values = append(series.Values, *record.DailyVaccinations)
	}

	chart := &BoxChart{Series: make([]BoxSeries, 0, len(order))}
	for _, country := range order {
		chart.Series = append(chart.Series, *byCountry[country])
	}
	return chart
}

func buildScatterChart(clean []domain.VaccinationRecord) *ScatterChart {
	chart := &ScatterChart{Points: make([]ScatterPoint, 0, len(clean))}
	for _, record := range clean {
		chart.Points = append(chart.Points, ScatterPoint{
			Country:               record.Country,
			Date:                  record.Date.Format("2006-01-02"),
			PeopleVaccinated:      *record.PeopleVaccinated,
			PeopleFullyVaccinated: *record.PeopleFullyVaccinated,
			DailyVaccinations:     *record.DailyVaccinations,
		})
	}
	return chart
}

func buildPieChart(latest []domain.VaccinationRecord) *PieChart {
	chart := &PieChart{
		Labels: make([]string, 0, len(latest)),
		Values: make([]float64, 0, len(latest)),
	}
	for _, record := range latest {
		if record.PeopleFullyVaccinated == nil {
			continue
		}
		chart.Labels = append(chart.Labels, record.Country)
		chart.Values = append(chart.Values, *record.PeopleFullyVaccinated)
	}
	return chart
}
