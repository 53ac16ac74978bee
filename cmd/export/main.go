package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"eco-monitor/internal/config"
	"eco-monitor/internal/repository"
	"eco-monitor/internal/services"
	"eco-monitor/pkg/database"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

func main() {
	// Parse command-line flags
	outPath := flag.String("out", "", "Output path for the xlsx report (default: eco_report_<date>.xlsx)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("eco-monitor-export", "1.0.0", logLevel)

	ctx := context.Background()

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("eco_monitor_export")

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
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and report service
	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
	reports := services.NewReportService(repo, logger)

	// Build the workbook
	data, err := reports.ExportWorkbook(ctx)
	if err != nil {
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to build report", logging.Fields{}, err)
	}

	path := *outPath
	if path == "" {
		path = fmt.Sprintf("eco_report_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to write report file", logging.Fields{
			"path": path,
		}, err)
	}

	fmt.Printf("Report written to %s (%d bytes)\n", path, len(data))

	logger.Info(ctx, "[EXPORT_COMPLETE] Report exported", logging.Fields{
		"path":  path,
		"bytes": len(data),
	})
}
