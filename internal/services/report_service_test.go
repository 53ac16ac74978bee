package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eco-monitor/internal/models"
	"eco-monitor/internal/repository"
)

func TestExportWorkbook_RoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.SaveAnalysesBatch(ctx, []*models.Analysis{{
		AnalysisType:     models.AnalysisTypeWeeklyTrend,
		LocationName:     "Moscow (Center)",
		PM25Trend:        "stable",
		PM25Avg:          17.4,
		Summary:          "Air stays clean.",
		DetailedAnalysis: "Nothing unusual this week.",
		PeriodStart:      now.Add(-168 * time.Hour),
		PeriodEnd:        now,
		CreatedAt:        now,
	}}))
	require.NoError(t, repo.SaveAlert(ctx, &models.Alert{
		LocationName: "Kazan (Center)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityDanger,
		Message:      "High pollution level: PM2.5=155.0, AQI=204",
		Value:        155.0,
		Threshold:    100,
		IsActive:     true,
		CreatedAt:    now,
	}))
	resolvedAt := now.Add(-time.Hour)
	require.NoError(t, repo.SaveAlert(ctx, &models.Alert{
		LocationName: "Kazan (North)",
		AlertType:    models.AlertTypeHighAQI,
		Severity:     models.SeverityWarning,
		Message:      "High pollution level: PM2.5=60.0, AQI=152",
		Value:        60.0,
		Threshold:    100,
		IsActive:     false,
		CreatedAt:    now.Add(-2 * time.Hour),
		ResolvedAt:   &resolvedAt,
	}))
	require.NoError(t, repo.SaveForecast(ctx, &models.Forecast{
		LocationName:  "Moscow (Center)",
		ForecastTime:  now.Add(24 * time.Hour),
		PredictedPM25: 42.5,
		PredictedPM10: 63.75,
		PredictedAQI:  118,
		Confidence:    0.75,
		CreatedAt:     now,
	}))

	data, err := NewReportService(repo, testLogger).ExportWorkbook(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Analyses", "Active Alerts", "Forecasts"}, f.GetSheetList())

	header, err := f.GetCellValue("Analyses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Location", header)
	location, err := f.GetCellValue("Analyses", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Moscow (Center)", location)
	trend, err := f.GetCellValue("Analyses", "B2")
	require.NoError(t, err)
	assert.Equal(t, "stable", trend)

	alertRows, err := f.GetRows("Active Alerts")
	require.NoError(t, err)
	require.Len(t, alertRows, 2, "resolved alerts stay out of the report")
	assert.Equal(t, "Kazan (Center)", alertRows[1][0])
	assert.Equal(t, "danger", alertRows[1][1])

	forecastLocation, err := f.GetCellValue("Forecasts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Moscow (Center)", forecastLocation)
	forecastAQI, err := f.GetCellValue("Forecasts", "E2")
	require.NoError(t, err)
	assert.Equal(t, "118", forecastAQI)
}

func TestExportWorkbook_EmptyStoreStillRenders(t *testing.T) {
	repo := repository.NewMemoryRepository()

	data, err := NewReportService(repo, testLogger).ExportWorkbook(context.Background())

	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Analyses", "Active Alerts", "Forecasts"}, f.GetSheetList())
	rows, err := f.GetRows("Forecasts")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "headers only")
}
