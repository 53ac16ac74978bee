package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
)

// stationSeries seeds count hourly readings ending now, oldest first
// valued start, start+step, ...
func stationSeries(t *testing.T, repo repository.AirQualityRepository, location string, start, step float64, count int) {
	t.Helper()
	measurements := make([]*models.Measurement, 0, count)
	for i := 0; i < count; i++ {
		age := time.Duration(count-1-i) * time.Hour
		measurements = append(measurements, reading(location, age, start+step*float64(i)))
	}
	seedMeasurements(t, repo, measurements...)
}

func findForecast(t *testing.T, entries []models.ForecastEntry, location string) models.ForecastEntry {
	t.Helper()
	for _, e := range entries {
		if e.Location == location {
			return e
		}
	}
	t.Fatalf("no forecast for %s", location)
	return models.ForecastEntry{}
}

func TestForecast_ProjectsRisingTrendPastLastObservation(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Station-A", 10, 2, 20)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, message, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Forecasts, 1)
	entry := result.Forecasts[0]
	assert.Equal(t, "Station-A", entry.Location)
	assert.Equal(t, 96.0, entry.PredictedPM25, "least squares through 10..48 extrapolated 24 steps ahead")
	assert.Greater(t, entry.PredictedPM25, 48.0, "prediction must exceed the last observed value")
	assert.Equal(t, 171, entry.PredictedAQI)
	assert.Equal(t, 0, result.Skipped)
	assert.Contains(t, message, "24-hour forecast:")
	assert.Contains(t, message, "Station-A: PM2.5=96.0, AQI=171")

	stored, err := repo.GetRecentForecasts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	forecast := stored[0]
	assert.Equal(t, "Station-A", forecast.LocationName)
	assert.Equal(t, 96.0, forecast.PredictedPM25)
	assert.Equal(t, 144.0, forecast.PredictedPM10)
	assert.Equal(t, 171, forecast.PredictedAQI)
	assert.Equal(t, 0.75, forecast.Confidence)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), forecast.ForecastTime, time.Minute)
}

func TestForecast_InsufficientTotalReadings(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Station-A", 10, 1, 9)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, message, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "Insufficient data for forecasting", message)

	stored, err := repo.GetRecentForecasts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, stored, "a short-circuited run persists nothing")
}

func TestForecast_SkipsSparseLocations(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Dense", 20, 0, 6)
	stationSeries(t, repo, "Sparse", 30, 0, 4)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, _, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Forecasts, 1)
	entry := findForecast(t, result.Forecasts, "Dense")
	assert.Equal(t, 20.0, entry.PredictedPM25, "constant series projects flat")
	assert.Equal(t, 1, result.Skipped)

	stored, err := repo.GetRecentForecasts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Dense", stored[0].LocationName)
}

func TestForecast_ClipsExtremeProjection(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Station-X", 0, 50, 10)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, _, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Forecasts, 1)
	assert.Equal(t, 500.0, result.Forecasts[0].PredictedPM25, "projection is clipped to the scale ceiling")
	assert.Equal(t, 499, result.Forecasts[0].PredictedAQI)
}

func TestForecast_ClipsNegativeProjectionToZero(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Station-Y", 90, -10, 10)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, _, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Forecasts, 1)
	assert.Equal(t, 0.0, result.Forecasts[0].PredictedPM25)
	assert.Equal(t, 0, result.Forecasts[0].PredictedAQI)
}

func TestForecast_ReadingsWithoutPM25CountAsZero(t *testing.T) {
	repo := repository.NewMemoryRepository()
	stationSeries(t, repo, "Other", 20, 0, 5)
	gappy := make([]*models.Measurement, 0, 5)
	for i := 0; i < 5; i++ {
		m := reading("Gappy", time.Duration(i)*time.Hour, 0)
		m.PM25 = nil
		gappy = append(gappy, m)
	}
	seedMeasurements(t, repo, gappy...)
	svc := NewForecastService(repo, testLogger, testMetrics)

	result, _, err := svc.Forecast(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Forecasts, 2)
	entry := findForecast(t, result.Forecasts, "Gappy")
	assert.Equal(t, 0.0, entry.PredictedPM25)
	assert.Equal(t, 0, entry.PredictedAQI)
}
