package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/internal/narrative"
	"eco-monitor/internal/openmeteo"
	"eco-monitor/internal/repository"
	"eco-monitor/internal/services"
	"eco-monitor/pkg/database"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

func main() {
	// Parse command-line flags
	taskName := flag.String("task", "", "Task to run: collect_data, analyze, forecast or check_alerts")
	location := flag.String("location", "", "Location filter for the analyze task (prefix match, or 'all')")
	flag.Parse()

	if *taskName == "" {
		fmt.Fprintln(os.Stderr, "Usage: tasks -task <collect_data|analyze|forecast|check_alerts> [-location <name>]")
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("eco-monitor-tasks", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[TASKS_START] Running monitoring task", logging.Fields{
		"version":  "1.0.0",
		"task":     *taskName,
		"location": *location,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("eco_monitor_tasks")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[TASKS_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository
	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)

	// Initialize external clients
	source := openmeteo.NewClient(cfg.OpenMeteo, logger)
	generator := narrative.NewGroqClient(cfg.Narrative, logger, metricsCollector)

	// Initialize task engines
	collection := services.NewCollectionService(source, repo, cfg.Monitoring.Locations(), logger, metricsCollector)
	analysis := services.NewAnalysisService(repo, generator, logger, metricsCollector)
	forecast := services.NewForecastService(repo, logger, metricsCollector)
	alerts := services.NewAlertService(repo, cfg.Monitoring.Thresholds, logger, metricsCollector)
	tasks := services.NewTaskRouter(collection, analysis, forecast, alerts, logger, metricsCollector)

	// Run the task
	envelope, err := tasks.Run(ctx, *taskName, *location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task dispatch failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		logger.Fatal(ctx, "[TASKS_ERROR] Failed to encode result", logging.Fields{}, err)
	}
	fmt.Println(string(out))

	if envelope.Status != models.StatusSuccess {
		os.Exit(1)
	}

	logger.Info(ctx, "[TASKS_COMPLETE] Task completed", logging.Fields{
		"task":    *taskName,
		"message": envelope.Message,
	})
}
