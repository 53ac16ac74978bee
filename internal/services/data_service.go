package services

import (
	"context"
	"fmt"
	"time"

	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// DataService serves the read side of the API: browse queries over the
// persisted monitoring data and the external alert lifecycle operation.
// All writes stay with the task engines.
type DataService struct {
	repo    repository.AirQualityRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDataService creates a new data service
func NewDataService(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DataService {
	return &DataService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetMeasurements retrieves recent measurements with filtering
func (s *DataService) GetMeasurements(ctx context.Context, filter repository.MeasurementFilter) ([]*models.Measurement, error) {
	return s.repo.GetRecentMeasurements(ctx, filter)
}

// GetForecasts retrieves the latest forecasts
func (s *DataService) GetForecasts(ctx context.Context, limit int) ([]*models.Forecast, error) {
	return s.repo.GetRecentForecasts(ctx, limit)
}

// GetAlerts retrieves alerts with filtering
func (s *DataService) GetAlerts(ctx context.Context, filter repository.AlertFilter) ([]*models.Alert, error) {
	return s.repo.GetAlerts(ctx, filter)
}

// GetAnalyses retrieves analyses created since the cutoff
func (s *DataService) GetAnalyses(ctx context.Context, since time.Time, limit int) ([]*models.Analysis, error) {
	return s.repo.GetRecentAnalyses(ctx, since, limit)
}

// CurrentStatus summarizes the live state of the pipeline
type CurrentStatus struct {
	Timestamp         time.Time `json:"timestamp"`
	MeasurementsCount int       `json:"measurements_count"`
	ActiveAlertsCount int       `json:"active_alerts_count"`
	Locations         []string  `json:"locations"`
}

// GetCurrentStatus reports the trailing-hour measurement count, the
// number of standing active alerts, and the locations that delivered
// data within the hour.
func (s *DataService) GetCurrentStatus(ctx context.Context) (*CurrentStatus, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-time.Hour)

	count, err := s.repo.CountMeasurementsSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count measurements: %w", err)
	}

	alerts, err := s.repo.GetAlerts(ctx, repository.AlertFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	locations, err := s.repo.ListActiveLocations(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list active locations: %w", err)
	}

	return &CurrentStatus{
		Timestamp:         now,
		MeasurementsCount: count,
		ActiveAlertsCount: len(alerts),
		Locations:         locations,
	}, nil
}

// ResolveAlert marks an alert resolved. Engines never resolve alerts;
// resolution happens only through this operation.
func (s *DataService) ResolveAlert(ctx context.Context, id int64) error {
	if err := s.repo.ResolveAlert(ctx, id); err != nil {
		return err
	}

	s.logger.Info(ctx, "[ALERT_RESOLVED] Alert marked resolved", logging.Fields{
		"alert_id": id,
	})
	return nil
}

// HealthCheck verifies the store is reachable
func (s *DataService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
