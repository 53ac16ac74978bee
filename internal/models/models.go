package models

import (
	"time"
)

// Alert severities, ordered by urgency
const (
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// AlertTypeHighAQI is the only alert type the alert engine raises today
const AlertTypeHighAQI = "high_aqi"

// AnalysisTypeWeeklyTrend is the analysis kind produced by the analysis engine
const AnalysisTypeWeeklyTrend = "weekly_trend"

// Measurement represents a single air quality reading at a monitoring point.
// Pollutant and weather fields are pointers: the upstream source reports
// gaps as nulls, and a present zero is a real reading, not a gap.
// A (location_name, timestamp) pair is unique; re-inserting it is a no-op.
type Measurement struct {
	ID           int64     `json:"id" db:"id"`
	LocationName string    `json:"location_name" db:"location_name"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	PM25         *float64  `json:"pm25,omitempty" db:"pm25"`
	PM10         *float64  `json:"pm10,omitempty" db:"pm10"`
	NO2          *float64  `json:"no2,omitempty" db:"no2"`
	O3           *float64  `json:"o3,omitempty" db:"o3"`
	CO           *float64  `json:"co,omitempty" db:"co"`
	Temperature  *float64  `json:"temperature,omitempty" db:"temperature"`
	Humidity     *float64  `json:"humidity,omitempty" db:"humidity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Forecast represents a 24-hour PM2.5 projection for one location
type Forecast struct {
	ID            int64     `json:"id" db:"id"`
	LocationName  string    `json:"location_name" db:"location_name"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	ForecastTime  time.Time `json:"forecast_time" db:"forecast_time"`
	PredictedPM25 float64   `json:"predicted_pm25" db:"predicted_pm25"`
	PredictedPM10 float64   `json:"predicted_pm10" db:"predicted_pm10"`
	PredictedAQI  int       `json:"predicted_aqi" db:"predicted_aqi"`
	Confidence    float64   `json:"confidence" db:"confidence"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Alert represents a standing notification of a threshold breach.
// The engines never resolve alerts; ResolvedAt and IsActive change only
// through the external resolve operation.
type Alert struct {
	ID           int64      `json:"id" db:"id"`
	LocationName string     `json:"location_name" db:"location_name"`
	Latitude     float64    `json:"latitude" db:"latitude"`
	Longitude    float64    `json:"longitude" db:"longitude"`
	AlertType    string     `json:"alert_type" db:"alert_type"`
	Severity     string     `json:"severity" db:"severity"`
	Message      string     `json:"message" db:"message"`
	Value        float64    `json:"value" db:"value"`
	Threshold    float64    `json:"threshold" db:"threshold"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Analysis represents one location's row of a weekly trend analysis run.
// A (location_name, created_at) pair is unique.
type Analysis struct {
	ID               int64     `json:"id" db:"id"`
	AnalysisType     string    `json:"analysis_type" db:"analysis_type"`
	LocationName     string    `json:"location_name" db:"location_name"`
	PM25Trend        string    `json:"pm25_trend" db:"pm25_trend"`
	PM25Avg          float64   `json:"pm25_avg" db:"pm25_avg"`
	AnomaliesCount   int       `json:"anomalies_count" db:"anomalies_count"`
	Summary          string    `json:"summary" db:"summary"`
	DetailedAnalysis string    `json:"detailed_analysis" db:"detailed_analysis"`
	PeriodStart      time.Time `json:"period_start" db:"period_start"`
	PeriodEnd        time.Time `json:"period_end" db:"period_end"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
