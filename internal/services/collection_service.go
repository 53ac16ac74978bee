package services

import (
	"context"
	"fmt"
	"time"

	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/internal/openmeteo"
	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// ReadingsSource provides hourly air quality and weather series for a
// coordinate. *openmeteo.Client is the production implementation.
type ReadingsSource interface {
	FetchAirQuality(ctx context.Context, lat, lon float64) (*openmeteo.AirQualityResponse, error)
	FetchWeather(ctx context.Context, lat, lon float64) (*openmeteo.WeatherResponse, error)
}

// collectionWindowHours bounds how many trailing hourly points are kept per location
const collectionWindowHours = 24

// CollectionService pulls hourly readings for every monitoring location
// and stores them through the deduplicating batch insert.
type CollectionService struct {
	source    ReadingsSource
	repo      repository.AirQualityRepository
	locations []config.Location
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewCollectionService creates a new collection service
func NewCollectionService(source ReadingsSource, repo repository.AirQualityRepository, locations []config.Location, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CollectionService {
	return &CollectionService{
		source:    source,
		repo:      repo,
		locations: locations,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// Collect fetches the trailing day of hourly readings for every
// configured location and inserts them as one deduplicated batch.
// A location whose fetch fails is logged and skipped; the batch goes
// ahead with whatever the remaining locations produced.
func (s *CollectionService) Collect(ctx context.Context) (*models.CollectResult, string, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[COLLECT_START] Starting data collection", logging.Fields{
		"locations": len(s.locations),
		"stage":     "INITIALIZATION",
	})

	collected := make([]*models.Measurement, 0, len(s.locations)*collectionWindowHours)
	locationsOK := 0

	for _, location := range s.locations {
		measurements, err := s.collectLocation(ctx, location)
		if err != nil {
			s.logger.Error(ctx, "[COLLECT_LOCATION_ERROR] Collection failed for location", logging.Fields{
				"location": location.Name,
				"stage":    "FETCH",
			}, err)
			s.metrics.RecordCollectionError("fetch_error")
			continue
		}

		collected = append(collected, measurements...)
		locationsOK++
	}

	s.metrics.CollectionLocationsSeen.Set(float64(locationsOK))

	saved := 0
	if len(collected) > 0 {
		var err error
		saved, err = s.repo.InsertMeasurementsBatch(ctx, collected)
		if err != nil {
			return nil, "", fmt.Errorf("failed to store measurements: %w", err)
		}
	}

	s.logger.Info(ctx, "[COLLECT_COMPLETE] Data collection completed", logging.Fields{
		"collected":        len(collected),
		"saved":            saved,
		"locations_total":  len(s.locations),
		"locations_ok":     locationsOK,
		"duration_seconds": time.Since(startTime).Seconds(),
		"stage":            "COMPLETE",
	})

	result := &models.CollectResult{
		Saved:          saved,
		LocationsTotal: len(s.locations),
		LocationsOK:    locationsOK,
	}
	message := fmt.Sprintf("Collected %d measurements from %d locations (last 24 hours)", saved, len(s.locations))

	return result, message, nil
}

// collectLocation fetches both hourly series for one location and merges
// them into measurements. Both series must be present; a source that
// returned no hourly block contributes nothing. Series are aligned from
// their tails, so a shorter weather series leaves the oldest hours with
// nil weather fields rather than dropping them.
func (s *CollectionService) collectLocation(ctx context.Context, location config.Location) ([]*models.Measurement, error) {
	air, err := s.source.FetchAirQuality(ctx, location.Latitude, location.Longitude)
	if err != nil {
		return nil, err
	}

	weather, err := s.source.FetchWeather(ctx, location.Latitude, location.Longitude)
	if err != nil {
		return nil, err
	}

	if air.Hourly == nil || weather.Hourly == nil {
		return nil, nil
	}

	count := len(air.Hourly.Time)
	if count > collectionWindowHours {
		count = collectionWindowHours
	}

	now := time.Now().UTC()
	measurements := make([]*models.Measurement, 0, count)

	for back := count; back >= 1; back-- {
		raw := air.Hourly.Time[len(air.Hourly.Time)-back]
		timestamp, err := openmeteo.ParseHourlyTime(raw)
		if err != nil {
			s.logger.Error(ctx, "[COLLECT_HOUR_ERROR] Skipping hour with bad timestamp", logging.Fields{
				"location":  location.Name,
				"timestamp": raw,
			}, err)
			s.metrics.RecordCollectionError("parse_error")
			continue
		}

		measurements = append(measurements, &models.Measurement{
			LocationName: location.Name,
			Latitude:     location.Latitude,
			Longitude:    location.Longitude,
			Timestamp:    timestamp,
			PM25:         valueFromEnd(air.Hourly.PM25, back),
			PM10:         valueFromEnd(air.Hourly.PM10, back),
			NO2:          valueFromEnd(air.Hourly.NitrogenDioxide, back),
			O3:           valueFromEnd(air.Hourly.Ozone, back),
			CO:           valueFromEnd(air.Hourly.CarbonMonoxide, back),
			Temperature:  valueFromEnd(weather.Hourly.Temperature2M, back),
			Humidity:     valueFromEnd(weather.Hourly.RelativeHumidity2M, back),
			CreatedAt:    now,
		})
	}

	s.logger.Debug(ctx, "[COLLECT_LOCATION] Collected hourly points", logging.Fields{
		"location": location.Name,
		"points":   len(measurements),
	})

	return measurements, nil
}

// valueFromEnd returns the element back positions from the end of the
// series, nil when the series is missing or too short.
func valueFromEnd(series []*float64, back int) *float64 {
	idx := len(series) - back
	if idx < 0 || idx >= len(series) {
		return nil
	}
	return series[idx]
}
