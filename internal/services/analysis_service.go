package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eco-monitor/internal/airquality"
	"eco-monitor/internal/models"
	"eco-monitor/internal/narrative"
	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

const (
	// analysisWindowHours is the trailing week the analysis covers
	analysisWindowHours = 168

	// AllLocations bypasses location filtering when passed as the filter
	AllLocations = "all"

	// anomalyMinPoints is the minimum series length for anomaly scoring
	anomalyMinPoints = 4
)

// AnalysisService computes weekly per-location PM2.5 statistics and has
// the narrative generator turn them into prose.
type AnalysisService struct {
	repo      repository.AirQualityRepository
	generator narrative.Generator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(repo repository.AirQualityRepository, generator narrative.Generator, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		repo:      repo,
		generator: generator,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// locationReadings accumulates one location's series in fetch order
// (newest first)
type locationReadings struct {
	pm25 []float64
	temp []float64
}

// Analyze pulls the trailing week of readings, optionally narrowed to
// locations whose name starts with locationFilter ("" and "all" select
// everything), and computes trend, anomaly count, and PM2.5/temperature
// statistics per location. Narrative text comes from the generator; if
// generation fails, fixed fallback text is used and the numeric rows are
// persisted regardless, all in one batch.
func (s *AnalysisService) Analyze(ctx context.Context, locationFilter string) (*models.AnalyzeResult, string, error) {
	s.logger.Info(ctx, "[ANALYZE_START] Starting analysis", logging.Fields{
		"window_hours":    analysisWindowHours,
		"location_filter": locationFilter,
		"stage":           "INITIALIZATION",
	})

	periodEnd := time.Now().UTC()
	periodStart := periodEnd.Add(-analysisWindowHours * time.Hour)

	measurements, err := s.repo.GetRecentMeasurements(ctx, repository.MeasurementFilter{Since: periodStart})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load measurements: %w", err)
	}

	if len(measurements) == 0 {
		return nil, "No data available for analysis", nil
	}

	focused := locationFilter != "" && locationFilter != AllLocations
	if focused {
		filtered := make([]*models.Measurement, 0, len(measurements))
		for _, m := range measurements {
			if strings.HasPrefix(m.LocationName, locationFilter) {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) == 0 {
			return nil, fmt.Sprintf("No data for %s", locationFilter), nil
		}
		measurements = filtered
	}

	order := make([]string, 0)
	byLocation := make(map[string]*locationReadings)

	for _, m := range measurements {
		readings, ok := byLocation[m.LocationName]
		if !ok {
			readings = &locationReadings{}
			byLocation[m.LocationName] = readings
			order = append(order, m.LocationName)
		}
		if m.PM25 != nil {
			readings.pm25 = append(readings.pm25, *m.PM25)
		}
		if m.Temperature != nil {
			readings.temp = append(readings.temp, *m.Temperature)
		}
	}

	rows := make([]models.LocationAnalysis, 0, len(order))
	for _, location := range order {
		readings := byLocation[location]

		// Readings arrive newest first; trend needs chronological order.
		pm25 := make([]float64, len(readings.pm25))
		for i, v := range readings.pm25 {
			pm25[len(pm25)-1-i] = v
		}

		trend := string(airquality.TrendNoData)
		if len(pm25) > 0 {
			trend = string(airquality.ClassifyTrend(pm25))
		}

		anomalies := 0
		if len(pm25) >= anomalyMinPoints {
			anomalies = len(airquality.DetectAnomalies(pm25, airquality.DefaultAnomalyThreshold))
		}

		rows = append(rows, models.LocationAnalysis{
			Location:       location,
			PM25Trend:      trend,
			AnomaliesCount: anomalies,
			AvgPM25:        mean(pm25),
			MinPM25:        minOf(pm25),
			MaxPM25:        maxOf(pm25),
			AvgTemp:        mean(readings.temp),
		})
	}

	scope := "the monitored cities"
	if focused {
		scope = locationFilter
	}

	findings := narrative.FormatFindings(rows)
	summary, detailed := s.generateNarrative(ctx, scope, findings, focused)

	analyses := make([]*models.Analysis, 0, len(rows))
	for _, row := range rows {
		analyses = append(analyses, &models.Analysis{
			AnalysisType:     models.AnalysisTypeWeeklyTrend,
			LocationName:     row.Location,
			PM25Trend:        row.PM25Trend,
			PM25Avg:          row.AvgPM25,
			AnomaliesCount:   row.AnomaliesCount,
			Summary:          summary,
			DetailedAnalysis: detailed,
			PeriodStart:      periodStart,
			PeriodEnd:        periodEnd,
			CreatedAt:        periodEnd,
		})
	}

	if err := s.repo.SaveAnalysesBatch(ctx, analyses); err != nil {
		return nil, "", fmt.Errorf("failed to persist analyses: %w", err)
	}

	s.logger.Info(ctx, "[ANALYZE_COMPLETE] Analysis completed", logging.Fields{
		"locations":       len(rows),
		"location_filter": locationFilter,
		"stage":           "COMPLETE",
	})

	result := &models.AnalyzeResult{
		Locations:        rows,
		Summary:          summary,
		DetailedAnalysis: detailed,
		LocationFilter:   locationFilter,
		Persisted:        len(analyses),
	}

	scopeSuffix := ""
	if focused {
		scopeSuffix = " for " + locationFilter
	}
	message := fmt.Sprintf("Analysis%s complete: %s", scopeSuffix, summary)

	return result, message, nil
}

// generateNarrative produces the summary and detailed text. A failure of
// either call yields the fixed fallback pair; the caller persists the
// numeric rows either way.
func (s *AnalysisService) generateNarrative(ctx context.Context, scope, findings string, focused bool) (string, string) {
	summary, err := s.generator.Generate(ctx, narrative.BuildSummaryPrompt(scope, findings))
	if err == nil {
		var detailed string
		detailed, err = s.generator.Generate(ctx, narrative.BuildDetailedPrompt(scope, findings, focused))
		if err == nil {
			return summary, detailed
		}
	}

	s.logger.Error(ctx, "[ANALYZE_NARRATIVE_ERROR] Narrative generation failed, using fallback", logging.Fields{
		"scope": scope,
	}, err)

	return "Analysis complete, one week of data collected.",
		fmt.Sprintf("Detailed analysis temporarily unavailable. Error: %v", err)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
