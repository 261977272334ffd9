package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"taxi-report/models"
	"taxi-report/utils"
)

const insertBatchSize = 500

const schema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		run_id       UUID        PRIMARY KEY,
		start_date   DATE        NOT NULL,
		end_date     DATE        NOT NULL,
		raw_trips    INTEGER     NOT NULL,
		clean_trips  INTEGER     NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS weekly_metrics (
		run_id               UUID          NOT NULL REFERENCES report_runs(run_id) ON DELETE CASCADE,
		year_week            VARCHAR(8)    NOT NULL,
		min_trip_time        NUMERIC(12,2),
		max_trip_time        NUMERIC(12,2),
		mean_trip_time       NUMERIC(12,2),
		min_trip_distance    NUMERIC(12,2),
		max_trip_distance    NUMERIC(12,2),
		mean_trip_distance   NUMERIC(12,2),
		min_trip_amount      NUMERIC(12,2),
		max_trip_amount      NUMERIC(12,2),
		mean_trip_amount     NUMERIC(12,2),
		total_services       INTEGER       NOT NULL,
		percentage_variation NUMERIC(12,2),
		PRIMARY KEY (run_id, year_week)
	);

	CREATE TABLE IF NOT EXISTS monthly_metrics (
		run_id     UUID          NOT NULL REFERENCES report_runs(run_id) ON DELETE CASCADE,
		rate_class VARCHAR(16)   NOT NULL,
		year_month CHAR(7)       NOT NULL,
		day_type   VARCHAR(8)    NOT NULL,
		services   INTEGER       NOT NULL,
		distances  NUMERIC(14,2) NOT NULL,
		passengers INTEGER       NOT NULL,
		PRIMARY KEY (run_id, rate_class, year_month, day_type)
	);

	CREATE INDEX IF NOT EXISTS idx_report_runs_range ON report_runs(start_date, end_date);
`

type runRow struct {
	RunID       uuid.UUID `db:"run_id"`
	StartDate   string    `db:"start_date"`
	EndDate     string    `db:"end_date"`
	RawTrips    int       `db:"raw_trips"`
	CleanTrips  int       `db:"clean_trips"`
	GeneratedAt time.Time `db:"generated_at"`
}

type weeklyRecord struct {
	RunID uuid.UUID `db:"run_id"`
	models.WeeklyRow
}

type monthlyRecord struct {
	RunID     uuid.UUID `db:"run_id"`
	RateClass string    `db:"rate_class"`
	models.MonthlyRow
}

// PostgresWriter persists report runs to PostgreSQL.
type PostgresWriter struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewPostgresWriter connects to PostgreSQL, retrying while the server comes
// up, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresWriter, error) {
	var db *sqlx.DB
	err := retry.Do(ctx, "postgres-connect", func() error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, schema)
	return err
}

// Write stores the run header and every weekly and monthly row in one
// transaction, returning the new run id.
func (pw *PostgresWriter) Write(ctx context.Context, report *models.Report) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := pw.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := runRow{
		RunID:       runID,
		StartDate:   report.StartDate.String(),
		EndDate:     report.EndDate.String(),
		RawTrips:    report.RawCount,
		CleanTrips:  report.CleanCount,
		GeneratedAt: report.GeneratedAt,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO report_runs (run_id, start_date, end_date, raw_trips, clean_trips, generated_at)
		VALUES (:run_id, :start_date, :end_date, :raw_trips, :clean_trips, :generated_at)
	`, run); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert run: %w", err)
	}

	weekly := make([]weeklyRecord, 0, len(report.Weekly))
	for _, row := range report.Weekly {
		weekly = append(weekly, weeklyRecord{RunID: runID, WeeklyRow: row})
	}
	if err := insertBatches(ctx, tx, `
		INSERT INTO weekly_metrics (run_id, year_week,
			min_trip_time, max_trip_time, mean_trip_time,
			min_trip_distance, max_trip_distance, mean_trip_distance,
			min_trip_amount, max_trip_amount, mean_trip_amount,
			total_services, percentage_variation)
		VALUES (:run_id, :year_week,
			:min_trip_time, :max_trip_time, :mean_trip_time,
			:min_trip_distance, :max_trip_distance, :mean_trip_distance,
			:min_trip_amount, :max_trip_amount, :mean_trip_amount,
			:total_services, :percentage_variation)
	`, weekly); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert weekly: %w", err)
	}

	var monthly []monthlyRecord
	for _, class := range models.RateClasses {
		for _, row := range report.Monthly[class] {
			monthly = append(monthly, monthlyRecord{RunID: runID, RateClass: class.String(), MonthlyRow: row})
		}
	}
	if err := insertBatches(ctx, tx, `
		INSERT INTO monthly_metrics (run_id, rate_class, year_month, day_type, services, distances, passengers)
		VALUES (:run_id, :rate_class, :year_month, :day_type, :services, :distances, :passengers)
	`, monthly); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert monthly: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: commit: %w", err)
	}

	pw.logger.Info("[postgres] Stored run %s: %d weekly rows, %d monthly rows", runID, len(weekly), len(monthly))
	return runID, nil
}

// insertBatches runs a named batch insert per chunk of rows.
func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for i := 0; i < len(rows); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.NamedExecContext(ctx, query, rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// FetchWeekly returns the weekly rows stored for a run, in week order.
func (pw *PostgresWriter) FetchWeekly(ctx context.Context, runID uuid.UUID) ([]models.WeeklyRow, error) {
	var rows []models.WeeklyRow
	err := pw.db.SelectContext(ctx, &rows, `
		SELECT year_week,
			min_trip_time, max_trip_time, mean_trip_time,
			min_trip_distance, max_trip_distance, mean_trip_distance,
			min_trip_amount, max_trip_amount, mean_trip_amount,
			total_services, percentage_variation
		FROM weekly_metrics
		WHERE run_id = $1
		ORDER BY year_week
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch weekly: %w", err)
	}
	return rows, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
