package models

// TaskType identifies a pipeline task
type TaskType string

const (
	TaskCollectData TaskType = "collect_data"
	TaskAnalyze     TaskType = "analyze"
	TaskForecast    TaskType = "forecast"
	TaskCheckAlerts TaskType = "check_alerts"
)

// ValidTaskTypes returns the fixed task set in routing order
func ValidTaskTypes() []TaskType {
	return []TaskType{TaskCollectData, TaskAnalyze, TaskForecast, TaskCheckAlerts}
}

// ParseTaskType validates a task name. Unrecognized names are rejected,
// never mapped to a default.
func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(s) {
	case TaskCollectData, TaskAnalyze, TaskForecast, TaskCheckAlerts:
		return TaskType(s), nil
	default:
		return "", &RoutingError{TaskType: s}
	}
}

// Task statuses carried in the envelope
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TaskEnvelope is the uniform result of a routed task run
type TaskEnvelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    TaskData `json:"data,omitempty"`
}

// TaskData is the closed set of task result payloads
type TaskData interface {
	taskData()
}

// CollectResult is the collection task payload
type CollectResult struct {
	Saved          int `json:"saved"`
	LocationsTotal int `json:"locations_total"`
	LocationsOK    int `json:"locations_ok"`
}

func (CollectResult) taskData() {}

// LocationAnalysis holds one location's computed statistics
type LocationAnalysis struct {
	Location       string  `json:"location"`
	PM25Trend      string  `json:"pm25_trend"`
	AnomaliesCount int     `json:"anomalies_count"`
	AvgPM25        float64 `json:"avg_pm25"`
	MinPM25        float64 `json:"min_pm25"`
	MaxPM25        float64 `json:"max_pm25"`
	AvgTemp        float64 `json:"avg_temp"`
}

// AnalyzeResult is the analysis task payload
type AnalyzeResult struct {
	Locations        []LocationAnalysis `json:"analysis"`
	Summary          string             `json:"summary"`
	DetailedAnalysis string             `json:"detailed_analysis"`
	LocationFilter   string             `json:"location_filter,omitempty"`
	Persisted        int                `json:"persisted"`
}

func (AnalyzeResult) taskData() {}

// ForecastEntry holds one location's prediction
type ForecastEntry struct {
	Location      string  `json:"location"`
	PredictedPM25 float64 `json:"pm25"`
	PredictedAQI  int     `json:"aqi"`
}

// ForecastResult is the forecast task payload
type ForecastResult struct {
	Forecasts []ForecastEntry `json:"forecasts"`
	Skipped   int             `json:"skipped"`
}

func (ForecastResult) taskData() {}

// AlertEntry holds one raised alert
type AlertEntry struct {
	Location string `json:"location"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AlertCheckResult is the alert check task payload
type AlertCheckResult struct {
	Created    []AlertEntry `json:"alerts"`
	Suppressed int          `json:"suppressed"`
	Checked    int          `json:"checked"`
}

func (AlertCheckResult) taskData() {}
