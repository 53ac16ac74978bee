package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"eco-monitor/internal/models"
)

// MemoryRepository is an in-memory AirQualityRepository for tests and
// local development without Postgres. It mirrors the SQL implementation's
// semantics: duplicate (location, timestamp) measurements are skipped,
// reads come back newest first, resolution keeps the first resolved time.
// Safe for concurrent use.
type MemoryRepository struct {
	mu              sync.RWMutex
	measurements    []*models.Measurement
	forecasts       []*models.Forecast
	alerts          []*models.Alert
	analyses        []*models.Analysis
	measurementKeys map[string]struct{}
	analysisKeys    map[string]struct{}
	nextID          int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		measurementKeys: make(map[string]struct{}),
		analysisKeys:    make(map[string]struct{}),
	}
}

func (r *MemoryRepository) allocID() int64 {
	r.nextID++
	return r.nextID
}

func measurementKey(locationName string, ts time.Time) string {
	return locationName + "|" + ts.UTC().Format(time.RFC3339Nano)
}

func analysisKey(locationName string, createdAt time.Time) string {
	return locationName + "|" + createdAt.UTC().Format(time.RFC3339Nano)
}

// InsertMeasurementsBatch inserts measurements, skipping duplicates on
// (location_name, timestamp), and returns the number actually inserted
func (r *MemoryRepository) InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, m := range measurements {
		key := measurementKey(m.LocationName, m.Timestamp)
		if _, exists := r.measurementKeys[key]; exists {
			continue
		}
		stored := *m
		stored.ID = r.allocID()
		r.measurements = append(r.measurements, &stored)
		r.measurementKeys[key] = struct{}{}
		inserted++
	}

	return inserted, nil
}

// GetRecentMeasurements retrieves measurements newest first
func (r *MemoryRepository) GetRecentMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Measurement
	for _, m := range r.measurements {
		if m.Timestamp.Before(filter.Since) {
			continue
		}
		if filter.LocationName != nil && m.LocationName != *filter.LocationName {
			continue
		}
		result = append(result, m)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// CountMeasurementsSince counts measurements at or after the cutoff
func (r *MemoryRepository) CountMeasurementsSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.measurements {
		if !m.Timestamp.Before(since) {
			count++
		}
	}

	return count, nil
}

// ListActiveLocations lists the distinct locations reporting since the cutoff
func (r *MemoryRepository) ListActiveLocations(ctx context.Context, since time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, m := range r.measurements {
		if !m.Timestamp.Before(since) {
			seen[m.LocationName] = struct{}{}
		}
	}

	locations := make([]string, 0, len(seen))
	for name := range seen {
		locations = append(locations, name)
	}
	sort.Strings(locations)

	return locations, nil
}

// SaveForecast persists a forecast
func (r *MemoryRepository) SaveForecast(ctx context.Context, forecast *models.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	forecast.ID = r.allocID()
	stored := *forecast
	r.forecasts = append(r.forecasts, &stored)

	return nil
}

// GetRecentForecasts retrieves the latest forecasts, newest first
func (r *MemoryRepository) GetRecentForecasts(ctx context.Context, limit int) ([]*models.Forecast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Forecast, len(r.forecasts))
	copy(result, r.forecasts)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// SaveAlert persists an alert
func (r *MemoryRepository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert.ID = r.allocID()
	stored := *alert
	r.alerts = append(r.alerts, &stored)

	return nil
}

// GetAlerts retrieves alerts with filtering, newest first
func (r *MemoryRepository) GetAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Alert
	for _, a := range r.alerts {
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		if filter.Since != nil && a.CreatedAt.Before(*filter.Since) {
			continue
		}
		result = append(result, a)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// GetActiveAlertByType retrieves the most recent active alert for a
// location and alert type, or nil when none stands
func (r *MemoryRepository) GetActiveAlertByType(ctx context.Context, locationName, alertType string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *models.Alert
	for _, a := range r.alerts {
		if !a.IsActive || a.LocationName != locationName || a.AlertType != alertType {
			continue
		}
		if newest == nil || a.CreatedAt.After(newest.CreatedAt) {
			newest = a
		}
	}

	return newest, nil
}

// ResolveAlert marks an alert inactive, keeping the first resolved time
func (r *MemoryRepository) ResolveAlert(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.alerts {
		if a.ID != id {
			continue
		}
		a.IsActive = false
		if a.ResolvedAt == nil {
			now := time.Now().UTC()
			a.ResolvedAt = &now
		}
		return nil
	}

	return &NotFoundError{
		Resource: "alert",
		ID:       strconv.FormatInt(id, 10),
	}
}

// SaveAnalysesBatch persists analyses, skipping duplicates on
// (location_name, created_at)
func (r *MemoryRepository) SaveAnalysesBatch(ctx context.Context, analyses []*models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range analyses {
		key := analysisKey(a.LocationName, a.CreatedAt)
		if _, exists := r.analysisKeys[key]; exists {
			continue
		}
		stored := *a
		stored.ID = r.allocID()
		r.analyses = append(r.analyses, &stored)
		r.analysisKeys[key] = struct{}{}
	}

	return nil
}

// GetRecentAnalyses retrieves analyses created since the cutoff, newest first
func (r *MemoryRepository) GetRecentAnalyses(ctx context.Context, since time.Time, limit int) ([]*models.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Analysis
	for _, a := range r.analyses {
		if a.CreatedAt.Before(since) {
			continue
		}
		result = append(result, a)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// HealthCheck always succeeds for the in-memory store
func (r *MemoryRepository) HealthCheck(ctx context.Context) error {
	return nil
}
