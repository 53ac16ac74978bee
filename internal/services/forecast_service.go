package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"eco-monitor/internal/airquality"
	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

const (
	forecastWindowHours    = 48
	forecastHorizonHours   = 24
	forecastMinTotalPoints = 10
	forecastMinPerLocation = 5
)

// ForecastService projects each location's PM2.5 a day ahead with a
// least-squares fit over its trailing two-day series.
type ForecastService struct {
	repo    repository.AirQualityRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewForecastService creates a new forecast service
func NewForecastService(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ForecastService {
	return &ForecastService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// forecastSeries is one location's chronological PM2.5 history
type forecastSeries struct {
	latitude  float64
	longitude float64
	points    []forecastPoint
}

type forecastPoint struct {
	timestamp time.Time
	pm25      float64
}

// Forecast fits a least-squares line through each location's trailing
// 48-hour PM2.5 series and persists the value extrapolated 24 steps past
// the last observation, clipped to [0, 500]. Readings without PM2.5
// contribute zero-valued points. Locations with fewer than 5 points are
// skipped; with fewer than 10 readings overall, the run short-circuits
// and persists nothing.
func (s *ForecastService) Forecast(ctx context.Context) (*models.ForecastResult, string, error) {
	s.logger.Info(ctx, "[FORECAST_START] Starting forecast", logging.Fields{
		"window_hours": forecastWindowHours,
		"stage":        "INITIALIZATION",
	})

	since := time.Now().UTC().Add(-forecastWindowHours * time.Hour)
	measurements, err := s.repo.GetRecentMeasurements(ctx, repository.MeasurementFilter{Since: since})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load measurements: %w", err)
	}

	if len(measurements) < forecastMinTotalPoints {
		skip := &models.InsufficientDataError{Operation: "forecast", Needed: forecastMinTotalPoints, Got: len(measurements)}
		s.logger.Warn(ctx, "[FORECAST_SKIP] Not enough readings to forecast", logging.Fields{
			"reason": skip.Error(),
		})
		return nil, "Insufficient data for forecasting", nil
	}

	order := make([]string, 0)
	byLocation := make(map[string]*forecastSeries)

	for _, m := range measurements {
		series, ok := byLocation[m.LocationName]
		if !ok {
			series = &forecastSeries{latitude: m.Latitude, longitude: m.Longitude}
			byLocation[m.LocationName] = series
			order = append(order, m.LocationName)
		}

		value := 0.0
		if m.PM25 != nil {
			value = *m.PM25
		}
		series.points = append(series.points, forecastPoint{timestamp: m.Timestamp, pm25: value})
	}

	forecastTime := time.Now().UTC().Add(forecastHorizonHours * time.Hour)
	result := &models.ForecastResult{
		Forecasts: make([]models.ForecastEntry, 0, len(order)),
	}

	for _, location := range order {
		series := byLocation[location]
		if len(series.points) < forecastMinPerLocation {
			result.Skipped++
			continue
		}

		sort.Slice(series.points, func(i, j int) bool {
			return series.points[i].timestamp.Before(series.points[j].timestamp)
		})

		values := make([]float64, len(series.points))
		for i, p := range series.points {
			values[i] = p.pm25
		}

		slope, intercept := airquality.LeastSquares(values)
		horizon := float64(len(values) + forecastHorizonHours - 1)
		predicted := airquality.Clip(airquality.Extrapolate(slope, intercept, horizon), 0, 500)
		predictedAQI := airquality.AQI(predicted)

		forecast := &models.Forecast{
			LocationName:  location,
			Latitude:      series.latitude,
			Longitude:     series.longitude,
			ForecastTime:  forecastTime,
			PredictedPM25: predicted,
			PredictedPM10: predicted * 1.5,
			PredictedAQI:  predictedAQI,
			Confidence:    0.75,
			CreatedAt:     time.Now().UTC(),
		}

		if err := s.repo.SaveForecast(ctx, forecast); err != nil {
			s.logger.Error(ctx, "[FORECAST_SAVE_ERROR] Failed to save forecast", logging.Fields{
				"location": location,
			}, &models.PersistenceError{Entity: "forecast", Err: err})
			continue
		}

		result.Forecasts = append(result.Forecasts, models.ForecastEntry{
			Location:      location,
			PredictedPM25: predicted,
			PredictedAQI:  predictedAQI,
		})
	}

	s.logger.Info(ctx, "[FORECAST_COMPLETE] Forecast completed", logging.Fields{
		"forecasts": len(result.Forecasts),
		"skipped":   result.Skipped,
		"stage":     "COMPLETE",
	})

	var b strings.Builder
	b.WriteString("24-hour forecast:")
	for _, f := range result.Forecasts {
		fmt.Fprintf(&b, "\n%s: PM2.5=%.1f, AQI=%d", f.Location, f.PredictedPM25, f.PredictedAQI)
	}

	return result, b.String(), nil
}
