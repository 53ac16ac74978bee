package services

import (
	"context"

	"github.com/google/uuid"

	"eco-monitor/internal/models"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

// TaskRouter dispatches task names to their engines, one engine per
// call, and wraps each outcome in the uniform response envelope. It
// holds nothing but the routing table.
type TaskRouter struct {
	collection *CollectionService
	analysis   *AnalysisService
	forecast   *ForecastService
	alerts     *AlertService
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewTaskRouter creates a new task router
func NewTaskRouter(collection *CollectionService, analysis *AnalysisService, forecast *ForecastService, alerts *AlertService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TaskRouter {
	return &TaskRouter{
		collection: collection,
		analysis:   analysis,
		forecast:   forecast,
		alerts:     alerts,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Run executes one task synchronously and returns its envelope. An
// unrecognized task name is rejected with a RoutingError. An engine
// failure comes back as an error envelope, not an error return. The
// location filter applies to the analyze task and is ignored elsewhere.
func (r *TaskRouter) Run(ctx context.Context, name, locationFilter string) (*models.TaskEnvelope, error) {
	taskType, err := models.ParseTaskType(name)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx = context.WithValue(ctx, "run_id", runID)

	timer := r.metrics.NewTimer(r.metrics.TaskDuration.WithLabelValues(string(taskType)))
	defer timer.ObserveDuration()

	r.logger.Info(ctx, "[TASK_START] Running task", logging.Fields{
		"task_type": string(taskType),
	})

	var (
		message string
		data    models.TaskData
		runErr  error
	)

	switch taskType {
	case models.TaskCollectData:
		var result *models.CollectResult
		result, message, runErr = r.collection.Collect(ctx)
		if result != nil {
			data = result
		}
	case models.TaskAnalyze:
		var result *models.AnalyzeResult
		result, message, runErr = r.analysis.Analyze(ctx, locationFilter)
		if result != nil {
			data = result
		}
	case models.TaskForecast:
		var result *models.ForecastResult
		result, message, runErr = r.forecast.Forecast(ctx)
		if result != nil {
			data = result
		}
	case models.TaskCheckAlerts:
		var result *models.AlertCheckResult
		result, message, runErr = r.alerts.CheckAlerts(ctx)
		if result != nil {
			data = result
		}
	}

	if runErr != nil {
		r.metrics.RecordTaskRun(string(taskType), "error")
		r.logger.Error(ctx, "[TASK_ERROR] Task failed", logging.Fields{
			"task_type": string(taskType),
		}, runErr)
		return &models.TaskEnvelope{Status: models.StatusError, Message: runErr.Error()}, nil
	}

	r.metrics.RecordTaskRun(string(taskType), "success")
	r.logger.Info(ctx, "[TASK_COMPLETE] Task completed", logging.Fields{
		"task_type": string(taskType),
	})

	return &models.TaskEnvelope{Status: models.StatusSuccess, Message: message, Data: data}, nil
}
