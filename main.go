package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxi-report/config"
	"taxi-report/models"
	"taxi-report/scraper/tlc"
	"taxi-report/services"
	"taxi-report/storage"
	"taxi-report/utils"
)

func main() {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("Unknown log level %q, keeping info", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Yellow Taxi Report starting ===")
	logger.Info("Config: range %s..%s | data dir: %s | concurrency: %d | rate: %dms",
		cfg.StartDate, cfg.EndDate, cfg.DataDir, cfg.MaxConcurrency, cfg.RateLimitMs)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	excelWriter, err := storage.NewExcelWriter(cfg.ExcelOutputPath)
	if err != nil {
		logger.Error("Failed to create Excel writer: %v", err)
		os.Exit(1)
	}

	stage := time.Now()
	source := tlc.New(cfg, logger)
	rawTrips, err := source.Load(ctx)
	if err != nil {
		logger.Error("Loading trip data failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Loaded %d raw trips in %v", len(rawTrips), time.Since(stage).Round(time.Millisecond))

	stage = time.Now()
	report, err := services.NewReportService(logger).Build(rawTrips, cfg.StartDate, cfg.EndDate)
	if err != nil {
		logger.Error("Building report failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Cleaned and aggregated in %v", time.Since(stage).Round(time.Millisecond))

	stage = time.Now()
	if err := csvWriter.WriteWeekly(report.Weekly); err != nil {
		logger.Error("CSV write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Weekly metrics saved to %s", csvWriter.Path())

	if err := excelWriter.WriteMonthly(report.Monthly); err != nil {
		logger.Error("Excel write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Monthly metrics saved to %s", excelWriter.Path())
	logger.Info("Exported in %v", time.Since(stage).Round(time.Millisecond))

	if cfg.PostgresEnabled {
		storeRun(ctx, cfg, logger, report)
	}

	services.NewSummaryPrinter(os.Stdout).Print(report)

	fmt.Printf("  Done. Weekly CSV → %s | Monthly workbook → %s\n\n",
		csvWriter.Path(), excelWriter.Path())
}

// storeRun persists the report to PostgreSQL. Failures are logged only; the
// file exports have already been written.
func storeRun(ctx context.Context, cfg *config.Config, logger *utils.Logger, report *models.Report) {
	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}

	var pg storage.RunWriter
	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retry, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return
	}
	defer pg.Close()

	runID, err := pg.Write(ctx, report)
	if err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	logger.Info("Report stored in PostgreSQL (run %s)", runID)
}
