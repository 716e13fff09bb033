package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "vaxboard/internal/errors"
	"vaxboard/internal/pipeline"
	"vaxboard/internal/services"
	"vaxboard/pkg/contracts/domain"
)

// mockDashboardService implements DashboardServiceInterface with
// overridable function fields.
type mockDashboardService struct {
	filterOptions func(ctx context.Context) (*services.FilterOptions, error)
	summary       func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error)
	stats         func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.StatsReport, error)
	latest        func(ctx context.Context, criteria pipeline.FilterCriteria) ([]domain.VaccinationRecord, error)
	chart         func(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error)
}

func (m *mockDashboardService) FilterOptions(ctx context.Context) (*services.FilterOptions, error) {
	return m.filterOptions(ctx)
}

func (m *mockDashboardService) Summary(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
	return m.summary(ctx, criteria)
}

func (m *mockDashboardService) Stats(ctx context.Context, criteria pipeline.FilterCriteria) (*services.StatsReport, error) {
	return m.stats(ctx, criteria)
}

func (m *mockDashboardService) Latest(ctx context.Context, criteria pipeline.FilterCriteria) ([]domain.VaccinationRecord, error) {
	return m.latest(ctx, criteria)
}

func (m *mockDashboardService) Chart(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error) {
	return m.chart(ctx, name, criteria)
}

func newTestRouter(svc DashboardServiceInterface) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api/dashboard", handler.Routes())
	return r
}

func doRequest(t *testing.T, router chi.Router, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestGetFilterOptions(t *testing.T) {
	svc := &mockDashboardService{
		filterOptions: func(ctx context.Context) (*services.FilterOptions, error) {
			return &services.FilterOptions{
				Countries:        []string{"Albania", "Belgium"},
				DefaultCountries: []string{"Albania"},
				MinDate:          "2021-01-10",
				MaxDate:          "2021-01-12",
				Charts:           services.ChartNames,
			}, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/filters")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "2021-01-10", data["min_date"])
}

func TestGetSummary(t *testing.T) {
	var gotCriteria pipeline.FilterCriteria
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			gotCriteria = criteria
			return &services.Summary{Countries: 2, TotalVaccinations: 410}, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc),
		"/api/dashboard/summary?country=Albania,Belgium&from=2021-01-10&to=2021-01-11")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])

	assert.Equal(t, []string{"Albania", "Belgium"}, gotCriteria.Countries)
	assert.Equal(t, "2021-01-10", gotCriteria.From.Format("2006-01-02"))
	assert.Equal(t, "2021-01-11", gotCriteria.To.Format("2006-01-02"))
}

func TestGetSummary_RepeatedCountryParams(t *testing.T) {
	var gotCriteria pipeline.FilterCriteria
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			gotCriteria = criteria
			return &services.Summary{}, nil
		},
	}

	rec, _ := doRequest(t, newTestRouter(svc),
		"/api/dashboard/summary?country=Albania&country=Belgium")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Albania", "Belgium"}, gotCriteria.Countries)
}

func TestGetSummary_InvalidDate(t *testing.T) {
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/summary?from=10-01-2021")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestGetSummary_EmptyFilterResult(t *testing.T) {
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			return nil, services.ErrEmptyFilterResult
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/summary?country=Atlantis")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	assert.Contains(t, body["detail"].(string), "No records match")
}

func TestGetSummary_DatasetMissing(t *testing.T) {
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			return nil, services.ErrDatasetNotFound
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/summary")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["detail"].(string), "dataset")
}

func TestGetSummary_InvalidDateRange(t *testing.T) {
	svc := &mockDashboardService{
		summary: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.Summary, error) {
			return nil, services.ErrInvalidDateRange
		},
	}

	rec, _ := doRequest(t, newTestRouter(svc), "/api/dashboard/summary?from=2021-01-12&to=2021-01-10")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStats(t *testing.T) {
	svc := &mockDashboardService{
		stats: func(ctx context.Context, criteria pipeline.FilterCriteria) (*services.StatsReport, error) {
			return &services.StatsReport{
				Rows: 3,
				Columns: []pipeline.ColumnStats{
					{Column: domain.ColumnTotalVaccinations, Count: 3, Mean: 150},
				},
			}, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/stats")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetLatest(t *testing.T) {
	svc := &mockDashboardService{
		latest: func(ctx context.Context, criteria pipeline.FilterCriteria) ([]domain.VaccinationRecord, error) {
			return []domain.VaccinationRecord{{Country: "Albania"}}, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/latest")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetChart(t *testing.T) {
	var gotName string
	svc := &mockDashboardService{
		chart: func(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error) {
			gotName = name
			return &services.BarChart{Countries: []string{"Albania"}}, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/charts/country-totals")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "country-totals", body["chart"])
	assert.Equal(t, services.ChartCountryTotals, gotName)
}

func TestGetChart_UnknownName(t *testing.T) {
	svc := &mockDashboardService{
		chart: func(ctx context.Context, name string, criteria pipeline.FilterCriteria) (any, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec, body := doRequest(t, newTestRouter(svc), "/api/dashboard/charts/heatmap")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["detail"].(string), "heatmap")
}
