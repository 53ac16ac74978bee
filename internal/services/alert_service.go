package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eco-monitor/internal/airquality"
	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// alertWindowHours is the trailing window of readings each check examines
const alertWindowHours = 1

// AlertService raises alerts for readings whose AQI breaches the
// configured thresholds. A location with a standing active alert of the
// same type is not alerted again until that alert is resolved.
type AlertService struct {
	repo       repository.AirQualityRepository
	thresholds config.AQIThresholds
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewAlertService creates a new alert service
func NewAlertService(repo repository.AirQualityRepository, thresholds config.AQIThresholds, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AlertService {
	return &AlertService{
		repo:       repo,
		thresholds: thresholds,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// CheckAlerts scans the trailing hour of readings. Each reading with a
// non-nil PM2.5 whose AQI exceeds the moderate threshold raises a
// warning alert, escalated to danger past the unhealthy threshold.
func (s *AlertService) CheckAlerts(ctx context.Context) (*models.AlertCheckResult, string, error) {
	s.logger.Info(ctx, "[ALERT_CHECK_START] Checking for alerts", logging.Fields{
		"window_hours": alertWindowHours,
		"stage":        "INITIALIZATION",
	})

	since := time.Now().UTC().Add(-alertWindowHours * time.Hour)
	measurements, err := s.repo.GetRecentMeasurements(ctx, repository.MeasurementFilter{Since: since})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load recent measurements: %w", err)
	}

	if len(measurements) == 0 {
		return nil, "No recent data to check", nil
	}

	result := &models.AlertCheckResult{
		Created: make([]models.AlertEntry, 0),
		Checked: len(measurements),
	}

	for _, m := range measurements {
		if m.PM25 == nil {
			continue
		}

		aqi := airquality.AQI(*m.PM25)
		if aqi <= s.thresholds.Moderate {
			continue
		}

		severity := models.SeverityWarning
		if aqi > s.thresholds.Unhealthy {
			severity = models.SeverityDanger
		}

		standing, err := s.repo.GetActiveAlertByType(ctx, m.LocationName, models.AlertTypeHighAQI)
		if err != nil {
			s.logger.Error(ctx, "[ALERT_LOOKUP_ERROR] Failed to check standing alerts", logging.Fields{
				"location": m.LocationName,
			}, err)
			continue
		}
		if standing != nil {
			result.Suppressed++
			s.metrics.AlertsSuppressedTotal.Inc()
			continue
		}

		alert := &models.Alert{
			LocationName: m.LocationName,
			Latitude:     m.Latitude,
			Longitude:    m.Longitude,
			AlertType:    models.AlertTypeHighAQI,
			Severity:     severity,
			Message:      fmt.Sprintf("High pollution level: PM2.5=%.1f, AQI=%d", *m.PM25, aqi),
			Value:        *m.PM25,
			Threshold:    float64(s.thresholds.Moderate),
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}

		if err := s.repo.SaveAlert(ctx, alert); err != nil {
			s.logger.Error(ctx, "[ALERT_SAVE_ERROR] Failed to save alert", logging.Fields{
				"location": m.LocationName,
				"severity": severity,
			}, &models.PersistenceError{Entity: "alert", Err: err})
			continue
		}

		s.metrics.RecordAlertRaised(severity)
		s.logger.Warn(ctx, "[ALERT_RAISED] Threshold breach detected", logging.Fields{
			"location": alert.LocationName,
			"severity": alert.Severity,
			"aqi":      aqi,
		})

		result.Created = append(result.Created, models.AlertEntry{
			Location: alert.LocationName,
			Severity: alert.Severity,
			Message:  alert.Message,
		})
	}

	s.logger.Info(ctx, "[ALERT_CHECK_COMPLETE] Alert check completed", logging.Fields{
		"checked":    result.Checked,
		"created":    len(result.Created),
		"suppressed": result.Suppressed,
		"stage":      "COMPLETE",
	})

	return result, alertCheckMessage(result), nil
}

func alertCheckMessage(result *models.AlertCheckResult) string {
	if len(result.Created) == 0 {
		if result.Suppressed > 0 {
			return fmt.Sprintf("No new alerts, %d readings already covered by standing alerts", result.Suppressed)
		}
		return "All readings within normal range, no alerts"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created %d alerts", len(result.Created))
	for _, a := range result.Created {
		fmt.Fprintf(&b, "\n%s: %s - %s", strings.ToUpper(a.Severity), a.Location, a.Message)
	}
	return b.String()
}
