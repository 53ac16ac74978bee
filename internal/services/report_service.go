package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"eco-monitor/internal/repository"
	"eco-monitor/pkg/logging"
)

const (
	reportAnalysisWindowHours = 168
	reportRowLimit            = 100
	reportTimeLayout          = "2006-01-02 15:04"
)

// ReportService exports the persisted monitoring data as an Excel
// workbook for the reporting layer. It only reads; the engines own all
// writes.
type ReportService struct {
	repo   repository.AirQualityRepository
	logger *logging.StructuredLogger
}

// NewReportService creates a new report service
func NewReportService(repo repository.AirQualityRepository, logger *logging.StructuredLogger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger,
	}
}

// reportSheet is one workbook sheet: headers, column widths, data rows
type reportSheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

// ExportWorkbook builds a workbook with the trailing week of analyses,
// the standing active alerts, and the latest forecasts.
func (s *ReportService) ExportWorkbook(ctx context.Context) ([]byte, error) {
	sheets := make([]reportSheet, 0, 3)

	analysesSheet, err := s.buildAnalysesSheet(ctx)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, analysesSheet)

	alertsSheet, err := s.buildAlertsSheet(ctx)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, alertsSheet)

	forecastsSheet, err := s.buildForecastsSheet(ctx)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, forecastsSheet)

	workbook, err := renderWorkbook(sheets)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[REPORT_EXPORT] Workbook generated", logging.Fields{
		"analyses":  len(analysesSheet.rows),
		"alerts":    len(alertsSheet.rows),
		"forecasts": len(forecastsSheet.rows),
	})

	return workbook, nil
}

func (s *ReportService) buildAnalysesSheet(ctx context.Context) (reportSheet, error) {
	since := time.Now().UTC().Add(-reportAnalysisWindowHours * time.Hour)
	analyses, err := s.repo.GetRecentAnalyses(ctx, since, reportRowLimit)
	if err != nil {
		return reportSheet{}, fmt.Errorf("failed to load analyses: %w", err)
	}

	sheet := reportSheet{
		name:    "Analyses",
		headers: []string{"Location", "PM2.5 Trend", "Avg PM2.5", "Anomalies", "Period Start", "Period End", "Summary"},
		widths:  []float64{25, 15, 12, 12, 18, 18, 60},
	}
	for _, a := range analyses {
		sheet.rows = append(sheet.rows, []interface{}{
			a.LocationName,
			a.PM25Trend,
			a.PM25Avg,
			a.AnomaliesCount,
			a.PeriodStart.Format(reportTimeLayout),
			a.PeriodEnd.Format(reportTimeLayout),
			a.Summary,
		})
	}
	return sheet, nil
}

func (s *ReportService) buildAlertsSheet(ctx context.Context) (reportSheet, error) {
	alerts, err := s.repo.GetAlerts(ctx, repository.AlertFilter{ActiveOnly: true, Limit: reportRowLimit})
	if err != nil {
		return reportSheet{}, fmt.Errorf("failed to load alerts: %w", err)
	}

	sheet := reportSheet{
		name:    "Active Alerts",
		headers: []string{"Location", "Severity", "Message", "PM2.5", "Threshold", "Created"},
		widths:  []float64{25, 12, 50, 10, 12, 18},
	}
	for _, a := range alerts {
		sheet.rows = append(sheet.rows, []interface{}{
			a.LocationName,
			a.Severity,
			a.Message,
			a.Value,
			a.Threshold,
			a.CreatedAt.Format(reportTimeLayout),
		})
	}
	return sheet, nil
}

func (s *ReportService) buildForecastsSheet(ctx context.Context) (reportSheet, error) {
	forecasts, err := s.repo.GetRecentForecasts(ctx, reportRowLimit)
	if err != nil {
		return reportSheet{}, fmt.Errorf("failed to load forecasts: %w", err)
	}

	sheet := reportSheet{
		name:    "Forecasts",
		headers: []string{"Location", "Forecast Time", "PM2.5", "PM10", "AQI", "Confidence", "Created"},
		widths:  []float64{25, 18, 10, 10, 8, 12, 18},
	}
	for _, f := range forecasts {
		sheet.rows = append(sheet.rows, []interface{}{
			f.LocationName,
			f.ForecastTime.Format(reportTimeLayout),
			f.PredictedPM25,
			f.PredictedPM10,
			f.PredictedAQI,
			f.Confidence,
			f.CreatedAt.Format(reportTimeLayout),
		})
	}
	return sheet, nil
}

// renderWorkbook writes the sheets into a new workbook with styled,
// frozen header rows.
func renderWorkbook(sheets []reportSheet) ([]byte, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for sheetIdx, sheet := range sheets {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if sheetIdx == 0 {
			f.SetActiveSheet(index)
		}

		for col, header := range sheet.headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet.name, cell, header); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheet.name, cell, cell, headerStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header style: %w", err)
			}

			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if col < len(sheet.widths) {
				if err := f.SetColWidth(sheet.name, name, name, sheet.widths[col]); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set column width: %w", err)
				}
			}
		}

		for rowIdx, row := range sheet.rows {
			for col, value := range row {
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to convert coordinates: %w", err)
				}
				if err := f.SetCellValue(sheet.name, cell, value); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
				}
			}
		}

		if err := f.SetPanes(sheet.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to freeze panes: %w", err)
		}
	}

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	return buf.Bytes(), nil
}
