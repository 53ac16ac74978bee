package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-monitor/internal/models"
)

func measurementAt(location string, ts time.Time, pm25 float64) *models.Measurement {
	return &models.Measurement{
		LocationName: location,
		Latitude:     55.7558,
		Longitude:    37.6176,
		Timestamp:    ts,
		PM25:         floatPtr(pm25),
		CreatedAt:    ts,
	}
}

func TestMemoryRepository_InsertIdempotence(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	batch := []*models.Measurement{
		measurementAt("Moscow (Center)", now, 14.2),
		measurementAt("Moscow (North)", now, 11.0),
	}

	inserted, err := repo.InsertMeasurementsBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Re-inserting the same (location, timestamp) pairs contributes nothing
	inserted, err = repo.InsertMeasurementsBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	stored, err := repo.GetRecentMeasurements(ctx, MeasurementFilter{Since: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestMemoryRepository_PartialDuplicateBatch(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		measurementAt("Delhi (Center)", now, 88.0),
	})
	require.NoError(t, err)

	inserted, err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		measurementAt("Delhi (Center)", now, 88.0),
		measurementAt("Delhi (Center)", now.Add(time.Hour), 91.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestMemoryRepository_MeasurementsNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose
	_, err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		measurementAt("Beijing (Center)", base.Add(time.Hour), 30.0),
		measurementAt("Beijing (Center)", base.Add(3*time.Hour), 35.0),
		measurementAt("Beijing (Center)", base.Add(2*time.Hour), 32.0),
	})
	require.NoError(t, err)

	stored, err := repo.GetRecentMeasurements(ctx, MeasurementFilter{Since: base})
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, base.Add(3*time.Hour), stored[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Hour), stored[1].Timestamp)
	assert.Equal(t, base.Add(time.Hour), stored[2].Timestamp)
}

func TestMemoryRepository_MeasurementFilterWindowAndLocation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		measurementAt("Tokyo (Center)", base.Add(-2*time.Hour), 9.0),
		measurementAt("Tokyo (Center)", base.Add(time.Hour), 10.0),
		measurementAt("Tokyo (North)", base.Add(time.Hour), 12.0),
	})
	require.NoError(t, err)

	location := "Tokyo (Center)"
	stored, err := repo.GetRecentMeasurements(ctx, MeasurementFilter{
		Since:        base,
		LocationName: &location,
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, location, stored[0].LocationName)

	count, err := repo.CountMeasurementsSince(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryRepository_ListActiveLocationsSorted(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		measurementAt("Tokyo (Center)", base.Add(time.Hour), 10.0),
		measurementAt("Beijing (Center)", base.Add(time.Hour), 30.0),
		measurementAt("Beijing (Center)", base.Add(2*time.Hour), 31.0),
		measurementAt("Moscow (Center)", base.Add(-3*time.Hour), 14.0),
	})
	require.NoError(t, err)

	locations, err := repo.ListActiveLocations(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beijing (Center)", "Tokyo (Center)"}, locations)
}

func TestMemoryRepository_AlertLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	alert := &models.Alert{
		LocationName: "Delhi (Center)",
		Latitude:     28.6139,
		Longitude:    77.209,
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityDanger,
		Message:      "High pollution level: PM2.5=155.0, AQI=204",
		Value:        155.0,
		Threshold:    100.0,
		IsActive:     true,
		CreatedAt:    now,
	}

	require.NoError(t, repo.SaveAlert(ctx, alert))
	assert.NotZero(t, alert.ID)

	standing, err := repo.GetActiveAlertByType(ctx, "Delhi (Center)", models.AlertTypeHighAQI)
	require.NoError(t, err)
	require.NotNil(t, standing)
	assert.Equal(t, alert.ID, standing.ID)

	require.NoError(t, repo.ResolveAlert(ctx, alert.ID))

	standing, err = repo.GetActiveAlertByType(ctx, "Delhi (Center)", models.AlertTypeHighAQI)
	require.NoError(t, err)
	assert.Nil(t, standing)

	resolved, err := repo.GetAlerts(ctx, AlertFilter{})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.False(t, resolved[0].IsActive)
	require.NotNil(t, resolved[0].ResolvedAt)

	// Resolving again keeps the first resolution time
	firstResolved := *resolved[0].ResolvedAt
	require.NoError(t, repo.ResolveAlert(ctx, alert.ID))
	resolved, err = repo.GetAlerts(ctx, AlertFilter{})
	require.NoError(t, err)
	assert.Equal(t, firstResolved, *resolved[0].ResolvedAt)
}

func TestMemoryRepository_ResolveUnknownAlert(t *testing.T) {
	repo := NewMemoryRepository()

	err := repo.ResolveAlert(context.Background(), 404)

	require.Error(t, err)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "alert", notFound.Resource)
}

func TestMemoryRepository_ActiveAlertNewestWins(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	older := &models.Alert{
		LocationName: "Paris (Center)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityWarning,
		IsActive:     true,
		CreatedAt:    now.Add(-2 * time.Hour),
	}
	newer := &models.Alert{
		LocationName: "Paris (Center)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityDanger,
		IsActive:     true,
		CreatedAt:    now,
	}

	require.NoError(t, repo.SaveAlert(ctx, older))
	require.NoError(t, repo.SaveAlert(ctx, newer))

	standing, err := repo.GetActiveAlertByType(ctx, "Paris (Center)", models.AlertTypeHighAQI)
	require.NoError(t, err)
	require.NotNil(t, standing)
	assert.Equal(t, models.SeverityDanger, standing.Severity)
}

func TestMemoryRepository_AlertFilters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	active := &models.Alert{
		LocationName: "Delhi (Center)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityWarning,
		IsActive:     true,
		CreatedAt:    now,
	}
	resolved := &models.Alert{
		LocationName: "Delhi (South)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityWarning,
		IsActive:     true,
		CreatedAt:    now.Add(-time.Hour),
	}
	activeButOld := &models.Alert{
		LocationName: "Delhi (North)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityWarning,
		IsActive:     true,
		CreatedAt:    now.Add(-48 * time.Hour),
	}
	require.NoError(t, repo.SaveAlert(ctx, active))
	require.NoError(t, repo.SaveAlert(ctx, resolved))
	require.NoError(t, repo.SaveAlert(ctx, activeButOld))
	require.NoError(t, repo.ResolveAlert(ctx, resolved.ID))

	dayAgo := now.Add(-24 * time.Hour)
	alerts, err := repo.GetAlerts(ctx, AlertFilter{ActiveOnly: true, Since: &dayAgo})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Delhi (Center)", alerts[0].LocationName)

	all, err := repo.GetAlerts(ctx, AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryRepository_AnalysesBatchDeduplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	analysis := &models.Analysis{
		AnalysisType:   models.AnalysisTypeWeeklyTrend,
		LocationName:   "Moscow (Center)",
		PM25Trend:      "stable",
		PM25Avg:        15.5,
		AnomaliesCount: 0,
		PeriodStart:    now.Add(-168 * time.Hour),
		PeriodEnd:      now,
		CreatedAt:      now,
	}

	require.NoError(t, repo.SaveAnalysesBatch(ctx, []*models.Analysis{analysis, analysis}))

	stored, err := repo.GetRecentAnalyses(ctx, now.Add(-time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMemoryRepository_ForecastsNewestFirstWithLimit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		forecast := &models.Forecast{
			LocationName:  "Tokyo (Center)",
			ForecastTime:  now.Add(24 * time.Hour),
			PredictedPM25: float64(10 + i),
			PredictedAQI:  41,
			Confidence:    0.75,
			CreatedAt:     now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.SaveForecast(ctx, forecast))
	}

	forecasts, err := repo.GetRecentForecasts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, forecasts, 2)
	assert.Equal(t, 12.0, forecasts[0].PredictedPM25)
	assert.Equal(t, 11.0, forecasts[1].PredictedPM25)
}
