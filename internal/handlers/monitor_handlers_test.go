package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/internal/openmeteo"
	"eco-monitor/internal/repository"
	"eco-monitor/internal/services"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

var (
	handlerLogger  = newHandlerTestLogger()
	handlerMetrics = metrics.NewCollector("eco_monitor_handlers_test")
)

func newHandlerTestLogger() *logging.StructuredLogger {
	l := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	l.SetOutput(io.Discard)
	return l
}

// quietSource reports no hourly data for any coordinate
type quietSource struct{}

func (quietSource) FetchAirQuality(ctx context.Context, lat, lon float64) (*openmeteo.AirQualityResponse, error) {
	return &openmeteo.AirQualityResponse{Latitude: lat, Longitude: lon}, nil
}

func (quietSource) FetchWeather(ctx context.Context, lat, lon float64) (*openmeteo.WeatherResponse, error) {
	return &openmeteo.WeatherResponse{Latitude: lat, Longitude: lon}, nil
}

// calmGenerator answers every prompt with the same line
type calmGenerator struct{}

func (calmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "Air stays calm.", nil
}

// brokenStore fails measurement reads and health checks
type brokenStore struct {
	*repository.MemoryRepository
}

func (s *brokenStore) GetRecentMeasurements(ctx context.Context, filter repository.MeasurementFilter) ([]*models.Measurement, error) {
	return nil, errors.New("store offline")
}

func (s *brokenStore) HealthCheck(ctx context.Context) error {
	return errors.New("store offline")
}

func newTestRouter(repo repository.AirQualityRepository) *mux.Router {
	locations := []config.Location{
		{Name: "Moscow (Center)", Latitude: 55.7558, Longitude: 37.6176},
	}
	thresholds := config.AQIThresholds{
		Good:               50,
		Moderate:           100,
		UnhealthySensitive: 150,
		Unhealthy:          200,
		VeryUnhealthy:      300,
	}

	collection := services.NewCollectionService(quietSource{}, repo, locations, handlerLogger, handlerMetrics)
	analysis := services.NewAnalysisService(repo, calmGenerator{}, handlerLogger, handlerMetrics)
	forecast := services.NewForecastService(repo, handlerLogger, handlerMetrics)
	alerts := services.NewAlertService(repo, thresholds, handlerLogger, handlerMetrics)
	tasks := services.NewTaskRouter(collection, analysis, forecast, alerts, handlerLogger, handlerMetrics)
	data := services.NewDataService(repo, handlerLogger, handlerMetrics)

	handler := NewMonitorHandler(tasks, data, handlerLogger, handlerMetrics)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func seedMeasurement(t *testing.T, repo repository.AirQualityRepository, location string, age time.Duration, pm25 float64) {
	t.Helper()
	v := pm25
	_, err := repo.InsertMeasurementsBatch(context.Background(), []*models.Measurement{{
		LocationName: location,
		Latitude:     55.7558,
		Longitude:    37.6176,
		Timestamp:    time.Now().UTC().Add(-age).Truncate(time.Second),
		PM25:         &v,
	}})
	require.NoError(t, err)
}

func seedAlert(t *testing.T, repo repository.AirQualityRepository, location string) *models.Alert {
	t.Helper()
	alert := &models.Alert{
		LocationName: location,
		Latitude:     55.7558,
		Longitude:    37.6176,
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityDanger,
		Message:      "High pollution level: PM2.5=155.0, AQI=204",
		Value:        155.0,
		Threshold:    100.0,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.SaveAlert(context.Background(), alert))
	return alert
}

func TestRunTask_UnknownTaskRejected(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodPost, "/api/run-agent/evacuate")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Bad Request", resp.Error)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Message, `unknown task type "evacuate"`)
}

func TestRunTask_CollectReturnsEnvelope(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodPost, "/api/run-agent/collect_data")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Status  string                 `json:"status"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, "Collected 0 measurements from 1 locations (last 24 hours)", resp.Message)
	assert.Equal(t, float64(0), resp.Data["saved"])
	assert.Equal(t, float64(1), resp.Data["locations_total"])
}

func TestRunTask_NoDataOmitsDataKey(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodPost, "/api/run-agent/forecast")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"data"`)

	var resp models.TaskEnvelope
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, "Insufficient data for forecasting", resp.Message)
}

func TestRunTask_EngineFailureKeepsEnvelopeShape(t *testing.T) {
	router := newTestRouter(&brokenStore{repository.NewMemoryRepository()})

	rec := doRequest(router, http.MethodPost, "/api/run-agent/forecast")

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp models.TaskEnvelope
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "store offline")
}

func TestRunTask_AnalyzeForwardsLocationFilter(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedMeasurement(t, repo, "Kazan (Center)", 2*time.Hour, 18.0)
	seedMeasurement(t, repo, "Kazan (Center)", 1*time.Hour, 20.0)
	seedMeasurement(t, repo, "Moscow (Center)", 1*time.Hour, 12.0)
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodPost, "/api/run-agent/analyze?location=Kazan")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			LocationFilter string `json:"location_filter"`
			Locations      []struct {
				Location string `json:"location"`
			} `json:"analysis"`
		} `json:"data"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, "Kazan", resp.Data.LocationFilter)
	require.Len(t, resp.Data.Locations, 1)
	assert.Equal(t, "Kazan (Center)", resp.Data.Locations[0].Location)
}

func TestGetMeasurements_WindowAndLocationFilters(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedMeasurement(t, repo, "Moscow (Center)", 10*time.Minute, 18.0)
	seedMeasurement(t, repo, "Kazan (Center)", 30*time.Minute, 25.0)
	seedMeasurement(t, repo, "Moscow (Center)", 30*time.Hour, 40.0)
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/api/data/measurements")

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.Measurement
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Moscow (Center)", rows[0].LocationName)
	assert.Equal(t, "Kazan (Center)", rows[1].LocationName)

	rec = doRequest(router, http.MethodGet, "/api/data/measurements?location="+url.QueryEscape("Kazan (Center)"))
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kazan (Center)", rows[0].LocationName)

	rec = doRequest(router, http.MethodGet, "/api/data/measurements?hours=48")
	decodeBody(t, rec, &rows)
	assert.Len(t, rows, 3)
}

func TestGetMeasurements_InvalidHoursRejected(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	for _, hours := range []string{"0", "-3", "900", "soon"} {
		rec := doRequest(router, http.MethodGet, "/api/data/measurements?hours="+hours)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "hours=%s", hours)
	}
}

func TestGetMeasurements_EmptyStoreEncodesEmptyArray(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodGet, "/api/data/measurements")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetForecasts_ReturnsStoredRows(t *testing.T) {
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.SaveForecast(context.Background(), &models.Forecast{
		LocationName:  "Moscow (Center)",
		Latitude:      55.7558,
		Longitude:     37.6176,
		ForecastTime:  time.Now().UTC().Add(24 * time.Hour),
		PredictedPM25: 42.5,
		PredictedPM10: 63.75,
		PredictedAQI:  118,
		Confidence:    0.75,
	}))
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/api/data/forecasts")

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.Forecast
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Moscow (Center)", rows[0].LocationName)
	assert.InDelta(t, 42.5, rows[0].PredictedPM25, 1e-9)
	assert.Equal(t, 118, rows[0].PredictedAQI)
}

func TestGetAlerts_ActiveOnlyByDefault(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAlert(t, repo, "Moscow (Center)")
	resolved := seedAlert(t, repo, "Kazan (Center)")
	require.NoError(t, repo.ResolveAlert(context.Background(), resolved.ID))
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/api/data/alerts")

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.Alert
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Moscow (Center)", rows[0].LocationName)
	assert.True(t, rows[0].IsActive)

	rec = doRequest(router, http.MethodGet, "/api/data/alerts?active_only=false")
	decodeBody(t, rec, &rows)
	assert.Len(t, rows, 2)

	rec = doRequest(router, http.MethodGet, "/api/data/alerts?active_only=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnalyses_DefaultWeekWindow(t *testing.T) {
	repo := repository.NewMemoryRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.SaveAnalysesBatch(context.Background(), []*models.Analysis{
		{
			AnalysisType: models.AnalysisTypeWeeklyTrend,
			LocationName: "Moscow (Center)",
			PM25Trend:    "stable",
			PM25Avg:      17.4,
			Summary:      "Air stays calm.",
			PeriodStart:  now.Add(-169 * time.Hour),
			PeriodEnd:    now.Add(-time.Hour),
			CreatedAt:    now.Add(-time.Hour),
		},
		{
			AnalysisType: models.AnalysisTypeWeeklyTrend,
			LocationName: "Moscow (Center)",
			PM25Trend:    "increasing",
			PM25Avg:      21.2,
			Summary:      "Air stays calm.",
			PeriodStart:  now.Add(-368 * time.Hour),
			PeriodEnd:    now.Add(-200 * time.Hour),
			CreatedAt:    now.Add(-200 * time.Hour),
		},
	}))
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/api/data/analyses")

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.Analysis
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "stable", rows[0].PM25Trend)

	rec = doRequest(router, http.MethodGet, "/api/data/analyses?hours=744")
	decodeBody(t, rec, &rows)
	assert.Len(t, rows, 2)
}

func TestGetCurrentStatus_SummarizesTrailingHour(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedMeasurement(t, repo, "Moscow (Center)", 10*time.Minute, 18.0)
	seedMeasurement(t, repo, "Kazan (Center)", 30*time.Minute, 25.0)
	seedMeasurement(t, repo, "Moscow (Center)", 2*time.Hour, 40.0)
	seedAlert(t, repo, "Kazan (Center)")
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/api/data/current")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Timestamp         time.Time `json:"timestamp"`
		MeasurementsCount int       `json:"measurements_count"`
		ActiveAlertsCount int       `json:"active_alerts_count"`
		Locations         []string  `json:"locations"`
	}
	decodeBody(t, rec, &resp)
	assert.WithinDuration(t, time.Now().UTC(), resp.Timestamp, time.Minute)
	assert.Equal(t, 2, resp.MeasurementsCount)
	assert.Equal(t, 1, resp.ActiveAlertsCount)
	assert.ElementsMatch(t, []string{"Moscow (Center)", "Kazan (Center)"}, resp.Locations)
}

func TestGetCurrentStatus_EmptyStoreEncodesEmptyLocations(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodGet, "/api/data/current")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locations":[]`)
}

func TestResolveAlert_MarksAlertResolved(t *testing.T) {
	repo := repository.NewMemoryRepository()
	alert := seedAlert(t, repo, "Moscow (Center)")
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodPost, fmt.Sprintf("/api/alerts/%d/resolve", alert.ID))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		ID     int64  `json:"id"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "resolved", resp.Status)
	assert.Equal(t, alert.ID, resp.ID)

	active, err := repo.GetAlerts(context.Background(), repository.AlertFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestResolveAlert_UnknownIDReturns404(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodPost, "/api/alerts/99/resolve")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "alert not found: 99", resp.Message)
}

func TestResolveAlert_MalformedIDReturns400(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodPost, "/api/alerts/banana/resolve")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck_ReportsStoreState(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := doRequest(router, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])

	router = newTestRouter(&brokenStore{repository.NewMemoryRepository()})
	rec = doRequest(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, "degraded", resp["status"])
}

func TestRequestIDMiddleware_AssignsAndPropagates(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value("request_id").(string)
	})

	handler := RequestIDMiddleware(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-fixed-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-fixed-42", seen)
	assert.Equal(t, "req-fixed-42", rec.Header().Get("X-Request-ID"))
}
