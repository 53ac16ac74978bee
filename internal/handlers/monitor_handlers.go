package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
	"eco-monitor/internal/services"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// Browse endpoint row caps, mirroring the reporting layer's expectations
const (
	measurementsLimit = 1000
	forecastsLimit    = 100
	alertsLimit       = 100
	analysesLimit     = 100
)

// MonitorHandler handles the monitoring API endpoints
type MonitorHandler struct {
	tasks   *services.TaskRouter
	data    *services.DataService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(
	tasks *services.TaskRouter,
	data *services.DataService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *MonitorHandler {
	return &MonitorHandler{
		tasks:   tasks,
		data:    data,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RunTask handles POST /api/run-agent/{task_type}. The task runs
// synchronously; the response is the task envelope. An engine failure
// keeps the envelope shape but comes back as a 500.
func (h *MonitorHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/run-agent").Observe(duration.Seconds())
	}()

	taskType := mux.Vars(r)["task_type"]
	locationFilter := r.URL.Query().Get("location")

	envelope, err := h.tasks.Run(ctx, taskType, locationFilter)
	if err != nil {
		var routingErr *models.RoutingError
		if errors.As(err, &routingErr) {
			h.metrics.RecordAPIError("unknown_task", "/api/run-agent")
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}

		h.logger.Error(ctx, "[API_RUN_TASK_ERROR] Task dispatch failed", logging.Fields{
			"task_type": taskType,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/run-agent")
		h.sendError(w, r, "failed to run task", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if envelope.Status == models.StatusError {
		status = http.StatusInternalServerError
		h.metrics.RecordAPIError("task_failed", "/api/run-agent")
	}

	h.metrics.RecordAPIRequest("/api/run-agent", "POST", strconv.Itoa(status))
	h.sendJSON(w, envelope, status)
}

// GetMeasurements handles GET /api/data/measurements
func (h *MonitorHandler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/data/measurements").Observe(duration.Seconds())
	}()

	hours, ok := h.parseHours(w, r, 24)
	if !ok {
		return
	}

	filter := repository.MeasurementFilter{
		Since: time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Limit: measurementsLimit,
	}
	if location := r.URL.Query().Get("location"); location != "" {
		filter.LocationName = &location
	}

	measurements, err := h.data.GetMeasurements(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_MEASUREMENTS_ERROR] Failed to get measurements", logging.Fields{
			"hours": hours,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/measurements")
		h.sendError(w, r, "failed to retrieve measurements", http.StatusInternalServerError)
		return
	}
	if measurements == nil {
		measurements = []*models.Measurement{}
	}

	h.metrics.RecordAPIRequest("/api/data/measurements", "GET", "200")
	h.sendJSON(w, measurements, http.StatusOK)
}

// GetForecasts handles GET /api/data/forecasts
func (h *MonitorHandler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/data/forecasts").Observe(duration.Seconds())
	}()

	forecasts, err := h.data.GetForecasts(ctx, forecastsLimit)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_FORECASTS_ERROR] Failed to get forecasts", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/forecasts")
		h.sendError(w, r, "failed to retrieve forecasts", http.StatusInternalServerError)
		return
	}
	if forecasts == nil {
		forecasts = []*models.Forecast{}
	}

	h.metrics.RecordAPIRequest("/api/data/forecasts", "GET", "200")
	h.sendJSON(w, forecasts, http.StatusOK)
}

// GetAlerts handles GET /api/data/alerts
func (h *MonitorHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/data/alerts").Observe(duration.Seconds())
	}()

	activeOnly := true
	if activeStr := r.URL.Query().Get("active_only"); activeStr != "" {
		parsed, err := strconv.ParseBool(activeStr)
		if err != nil {
			h.sendError(w, r, "invalid active_only, expected a boolean", http.StatusBadRequest)
			return
		}
		activeOnly = parsed
	}

	alerts, err := h.data.GetAlerts(ctx, repository.AlertFilter{
		ActiveOnly: activeOnly,
		Limit:      alertsLimit,
	})
	if err != nil {
		h.logger.Error(ctx, "[API_GET_ALERTS_ERROR] Failed to get alerts", logging.Fields{
			"active_only": activeOnly,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/alerts")
		h.sendError(w, r, "failed to retrieve alerts", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}

	h.metrics.RecordAPIRequest("/api/data/alerts", "GET", "200")
	h.sendJSON(w, alerts, http.StatusOK)
}

// GetAnalyses handles GET /api/data/analyses
func (h *MonitorHandler) GetAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/data/analyses").Observe(duration.Seconds())
	}()

	hours, ok := h.parseHours(w, r, 168)
	if !ok {
		return
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	analyses, err := h.data.GetAnalyses(ctx, since, analysesLimit)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_ANALYSES_ERROR] Failed to get analyses", logging.Fields{
			"hours": hours,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/analyses")
		h.sendError(w, r, "failed to retrieve analyses", http.StatusInternalServerError)
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}

	h.metrics.RecordAPIRequest("/api/data/analyses", "GET", "200")
	h.sendJSON(w, analyses, http.StatusOK)
}

// GetCurrentStatus handles GET /api/data/current
func (h *MonitorHandler) GetCurrentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/data/current").Observe(duration.Seconds())
	}()

	status, err := h.data.GetCurrentStatus(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_CURRENT_ERROR] Failed to get current status", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/current")
		h.sendError(w, r, "failed to retrieve current status", http.StatusInternalServerError)
		return
	}
	if status.Locations == nil {
		status.Locations = []string{}
	}

	h.metrics.RecordAPIRequest("/api/data/current", "GET", "200")
	h.sendJSON(w, status, http.StatusOK)
}

// ResolveAlert handles POST /api/alerts/{id}/resolve
func (h *MonitorHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		h.sendError(w, r, "invalid alert id", http.StatusBadRequest)
		return
	}

	if err := h.data.ResolveAlert(ctx, id); err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, err.Error(), http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_RESOLVE_ALERT_ERROR] Failed to resolve alert", logging.Fields{
			"alert_id": id,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/alerts/resolve")
		h.sendError(w, r, "failed to resolve alert", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/alerts/resolve", "POST", "200")
	h.sendJSON(w, map[string]interface{}{
		"status": "resolved",
		"id":     id,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *MonitorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.data.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Store unreachable", logging.Fields{}, err)
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// parseHours reads the hours query parameter, 400ing out of range values
func (h *MonitorHandler) parseHours(w http.ResponseWriter, r *http.Request, defaultHours int) (int, bool) {
	hoursStr := r.URL.Query().Get("hours")
	if hoursStr == "" {
		return defaultHours, true
	}

	hours, err := strconv.Atoi(hoursStr)
	if err != nil || hours < 1 || hours > 744 {
		h.sendError(w, r, "invalid hours, expected integer between 1 and 744", http.StatusBadRequest)
		return 0, false
	}
	return hours, true
}

// sendJSON sends a JSON response
func (h *MonitorHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *MonitorHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all monitoring API routes
func (h *MonitorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/run-agent/{task_type}", h.RunTask).Methods("POST")
	router.HandleFunc("/api/data/measurements", h.GetMeasurements).Methods("GET")
	router.HandleFunc("/api/data/forecasts", h.GetForecasts).Methods("GET")
	router.HandleFunc("/api/data/alerts", h.GetAlerts).Methods("GET")
	router.HandleFunc("/api/data/analyses", h.GetAnalyses).Methods("GET")
	router.HandleFunc("/api/data/current", h.GetCurrentStatus).Methods("GET")
	router.HandleFunc("/api/alerts/{id}/resolve", h.ResolveAlert).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
