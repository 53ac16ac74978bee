package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"eco-monitor/internal/models"
	"eco-monitor/pkg/database"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// AirQualityRepository provides data access for the monitoring store
type AirQualityRepository interface {
	// Measurement operations
	InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) (int, error)
	GetRecentMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, error)
	CountMeasurementsSince(ctx context.Context, since time.Time) (int, error)
	ListActiveLocations(ctx context.Context, since time.Time) ([]string, error)

	// Forecast operations
	SaveForecast(ctx context.Context, forecast *models.Forecast) error
	GetRecentForecasts(ctx context.Context, limit int) ([]*models.Forecast, error)

	// Alert operations
	SaveAlert(ctx context.Context, alert *models.Alert) error
	GetAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error)
	GetActiveAlertByType(ctx context.Context, locationName, alertType string) (*models.Alert, error)
	ResolveAlert(ctx context.Context, id int64) error

	// Analysis operations
	SaveAnalysesBatch(ctx context.Context, analyses []*models.Analysis) error
	GetRecentAnalyses(ctx context.Context, since time.Time, limit int) ([]*models.Analysis, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// MeasurementFilter defines filters for querying measurements.
// Since is the inclusive lower bound on timestamp; Limit 0 means no limit.
type MeasurementFilter struct {
	Since        time.Time
	LocationName *string
	Limit        int
}

// AlertFilter defines filters for querying alerts
type AlertFilter struct {
	ActiveOnly bool
	Since      *time.Time
	Limit      int
}

// airQualityRepository implements AirQualityRepository
type airQualityRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAirQualityRepository creates a new air quality repository
func NewAirQualityRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AirQualityRepository {
	return &airQualityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// InsertMeasurementsBatch inserts measurements in a single transaction,
// skipping rows whose (location_name, timestamp) already exists. It
// returns the number of rows actually inserted.
func (r *airQualityRepository) InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) (int, error) {
	if len(measurements) == 0 {
		return 0, nil
	}

	inserted := 0
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.CollectionBatchSize.Observe(float64(len(measurements)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(measurements),
			"inserted":    inserted,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (
			location_name, latitude, longitude, timestamp,
			pm25, pm10, no2, o3, co, temperature, humidity,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (location_name, timestamp) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, m := range measurements {
		result, err := stmt.ExecContext(ctx,
			m.LocationName,
			m.Latitude,
			m.Longitude,
			m.Timestamp,
			m.PM25,
			m.PM10,
			m.NO2,
			m.O3,
			m.CO,
			m.Temperature,
			m.Humidity,
			m.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert measurement: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(rows)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.CollectionRecordsTotal.Add(float64(inserted))

	return inserted, nil
}

// GetRecentMeasurements retrieves measurements newest first
func (r *airQualityRepository) GetRecentMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, error) {
	query := `
		SELECT id, location_name, latitude, longitude, timestamp,
		       pm25, pm10, no2, o3, co, temperature, humidity,
		       created_at
		FROM measurements
		WHERE timestamp >= $1
	`
	args := []interface{}{filter.Since}
	argNum := 2

	if filter.LocationName != nil {
		query += fmt.Sprintf(" AND location_name = $%d", argNum)
		args = append(args, *filter.LocationName)
		argNum++
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	var measurements []*models.Measurement
	err := r.db.SelectContext(ctx, "get_recent_measurements", &measurements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get measurements: %w", err)
	}

	return measurements, nil
}

// CountMeasurementsSince counts measurements at or after the cutoff
func (r *airQualityRepository) CountMeasurementsSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM measurements WHERE timestamp >= $1`

	var count int
	err := r.db.GetContext(ctx, "count_measurements", &count, query, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count measurements: %w", err)
	}

	return count, nil
}

// ListActiveLocations lists the distinct locations reporting since the cutoff
func (r *airQualityRepository) ListActiveLocations(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT location_name
		FROM measurements
		WHERE timestamp >= $1
		ORDER BY location_name
	`

	var locations []string
	err := r.db.SelectContext(ctx, "list_active_locations", &locations, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return locations, nil
}

// SaveForecast persists a forecast
func (r *airQualityRepository) SaveForecast(ctx context.Context, forecast *models.Forecast) error {
	query := `
		INSERT INTO forecasts (
			location_name, latitude, longitude, forecast_time,
			predicted_pm25, predicted_pm10, predicted_aqi, confidence,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		forecast.LocationName,
		forecast.Latitude,
		forecast.Longitude,
		forecast.ForecastTime,
		forecast.PredictedPM25,
		forecast.PredictedPM10,
		forecast.PredictedAQI,
		forecast.Confidence,
		forecast.CreatedAt,
	).Scan(&forecast.ID)

	if err != nil {
		return fmt.Errorf("failed to save forecast: %w", err)
	}

	return nil
}

// GetRecentForecasts retrieves the latest forecasts, newest first
func (r *airQualityRepository) GetRecentForecasts(ctx context.Context, limit int) ([]*models.Forecast, error) {
	query := `
		SELECT id, location_name, latitude, longitude, forecast_time,
		       predicted_pm25, predicted_pm10, predicted_aqi, confidence,
		       created_at
		FROM forecasts
		ORDER BY created_at DESC
		LIMIT $1
	`

	var forecasts []*models.Forecast
	err := r.db.SelectContext(ctx, "get_recent_forecasts", &forecasts, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get forecasts: %w", err)
	}

	return forecasts, nil
}

// SaveAlert persists an alert
func (r *airQualityRepository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			location_name, latitude, longitude,
			alert_type, severity, message,
			value, threshold, is_active,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		alert.LocationName,
		alert.Latitude,
		alert.Longitude,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.Value,
		alert.Threshold,
		alert.IsActive,
		alert.CreatedAt,
	).Scan(&alert.ID)

	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_SAVE_ALERT] Alert saved", logging.Fields{
		"location": alert.LocationName,
		"severity": alert.Severity,
	})

	return nil
}

// GetAlerts retrieves alerts with filtering, newest first
func (r *airQualityRepository) GetAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	query := `
		SELECT id, location_name, latitude, longitude,
		       alert_type, severity, message,
		       value, threshold, is_active,
		       created_at, resolved_at
		FROM alerts
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.Since)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	var alerts []*models.Alert
	err := r.db.SelectContext(ctx, "get_alerts", &alerts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	return alerts, nil
}

// GetActiveAlertByType retrieves the most recent active alert for a
// location and alert type. A nil alert with nil error means no active
// alert stands; absence is the normal case here, not a failure.
func (r *airQualityRepository) GetActiveAlertByType(ctx context.Context, locationName, alertType string) (*models.Alert, error) {
	query := `
		SELECT id, location_name, latitude, longitude,
		       alert_type, severity, message,
		       value, threshold, is_active,
		       created_at, resolved_at
		FROM alerts
		WHERE location_name = $1 AND alert_type = $2 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`

	var alert models.Alert
	err := r.db.GetContext(ctx, "get_active_alert_by_type", &alert, query, locationName, alertType)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get active alert: %w", err)
	}

	return &alert, nil
}

// ResolveAlert marks an alert inactive, keeping the first resolution time
func (r *airQualityRepository) ResolveAlert(ctx context.Context, id int64) error {
	query := `
		UPDATE alerts
		SET is_active = FALSE, resolved_at = COALESCE(resolved_at, $2)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, "resolve_alert", query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if rows == 0 {
		return &NotFoundError{
			Resource: "alert",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	return nil
}

// SaveAnalysesBatch persists analyses in a single transaction, skipping
// rows whose (location_name, created_at) already exists
func (r *airQualityRepository) SaveAnalysesBatch(ctx context.Context, analyses []*models.Analysis) error {
	if len(analyses) == 0 {
		return nil
	}

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analyses (
			analysis_type, location_name,
			pm25_trend, pm25_avg, anomalies_count,
			summary, detailed_analysis,
			period_start, period_end, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (location_name, created_at) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, a := range analyses {
		_, err := stmt.ExecContext(ctx,
			a.AnalysisType,
			a.LocationName,
			a.PM25Trend,
			a.PM25Avg,
			a.AnomaliesCount,
			a.Summary,
			a.DetailedAnalysis,
			a.PeriodStart,
			a.PeriodEnd,
			a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analysis: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_SAVE_ANALYSES] Analyses batch saved", logging.Fields{
		"count": len(analyses),
	})

	return nil
}

// GetRecentAnalyses retrieves analyses created since the cutoff, newest first
func (r *airQualityRepository) GetRecentAnalyses(ctx context.Context, since time.Time, limit int) ([]*models.Analysis, error) {
	query := `
		SELECT id, analysis_type, location_name,
		       pm25_trend, pm25_avg, anomalies_count,
		       summary, detailed_analysis,
		       period_start, period_end, created_at
		FROM analyses
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var analyses []*models.Analysis
	err := r.db.SelectContext(ctx, "get_recent_analyses", &analyses, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}

	return analyses, nil
}

// HealthCheck performs a repository health check
func (r *airQualityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
