package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vaxboard/internal/errors"
	custommiddleware "vaxboard/internal/middleware"
	"vaxboard/internal/pipeline"
	"vaxboard/internal/services"
)

// DashboardHandler handles dashboard HTTP requests with RFC 7807 compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	validation   *custommiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validation:   custommiddleware.NewValidationMiddleware(logger),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/filters", h.GetFilterOptions)
	r.Get("/summary", h.GetSummary)
	r.Get("/stats", h.GetStats)
	r.Get("/latest", h.GetLatest)

	r.Route("/charts/{chart}", func(r chi.Router) {
		r.Use(h.ChartCtx)
		r.Get("/", h.GetChart)
	})

	return r
}

// ChartCtx middleware validates the chart name parameter
func (h *DashboardHandler) ChartCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chart := chi.URLParam(r, "chart")
		for _, name := range services.ChartNames {
			if chart == name {
				next.ServeHTTP(w, r)
				return
			}
		}

		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"CHART_NOT_FOUND",
			fmt.Sprintf("Unknown chart: %s", chart),
			map[string]interface{}{"charts": services.ChartNames},
		))
	})
}

// criteriaQuery is the raw filter selection from the query string.
type criteriaQuery struct {
	Countries []string `json:"country" validate:"omitempty,dive,countryname"`
	From      string   `json:"from" validate:"omitempty,isodate"`
	To        string   `json:"to" validate:"omitempty,isodate"`
}

// parseCriteria reads the filter selection from the query string.
// Countries may repeat or arrive comma separated; absent fields stay
// zero and get their defaults from the service.
func (h *DashboardHandler) parseCriteria(r *http.Request) (pipeline.FilterCriteria, error) {
	query := r.URL.Query()

	raw := criteriaQuery{
		From: strings.TrimSpace(query.Get("from")),
		To:   strings.TrimSpace(query.Get("to")),
	}
	for _, value := range query["country"] {
		for _, country := range strings.Split(value, ",") {
			if country = strings.TrimSpace(country); country != "" {
				raw.Countries = append(raw.Countries, country)
			}
		}
	}

	if err := h.validation.ValidateStruct(raw); err != nil {
		return pipeline.FilterCriteria{}, err
	}

	criteria := pipeline.FilterCriteria{Countries: raw.Countries}
	if raw.From != "" {
		criteria.From, _ = time.Parse("2006-01-02", raw.From)
	}
	if raw.To != "" {
		criteria.To, _ = time.Parse("2006-01-02", raw.To)
	}

	return criteria, nil
}

// GetFilterOptions handles GET /api/dashboard/filters
func (h *DashboardHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), criteria)
	if err != nil {
		h.handleServiceError(w, r, err, criteria.Countries)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetStats handles GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Stats(r.Context(), criteria)
	if err != nil {
		h.handleServiceError(w, r, err, criteria.Countries)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
		"count":  len(report.Columns),
	})
}

// GetLatest handles GET /api/dashboard/latest
func (h *DashboardHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	latest, err := h.service.Latest(r.Context(), criteria)
	if err != nil {
		h.handleServiceError(w, r, err, criteria.Countries)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   latest,
		"count":  len(latest),
	})
}

// GetChart handles GET /api/dashboard/charts/{chart}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	chart := chi.URLParam(r, "chart")

	criteria, err := h.parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	payload, err := h.service.Chart(r.Context(), chart, criteria)
	if err != nil {
		h.handleServiceError(w, r, err, criteria.Countries)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"chart":  chart,
		"data":   payload,
	})
}

// handleServiceError maps service errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, countries []string) {
	h.logger.ErrorContext(r.Context(), "dashboard request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		h.errorHandler.HandleError(w, r, apierrors.DatasetNotFoundError(err.Error()))
	case errors.Is(err, services.ErrDatasetLoad):
		h.errorHandler.HandleError(w, r, apierrors.DatasetLoadError(err))
	case errors.Is(err, services.ErrEmptyFilterResult):
		h.errorHandler.HandleError(w, r, apierrors.EmptyFilterResultError(countries))
	case errors.Is(err, services.ErrInvalidDateRange):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("from", "from date must not be after to date"))
	case errors.Is(err, services.ErrUnknownChart):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("chart"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
