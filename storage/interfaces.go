package storage

import (
	"context"

	"github.com/google/uuid"

	"taxi-report/models"
)

// WeeklyWriter is the interface any weekly report sink must satisfy.
type WeeklyWriter interface {
	WriteWeekly(rows []models.WeeklyRow) error
}

// MonthlyWriter is the interface any monthly report sink must satisfy.
type MonthlyWriter interface {
	WriteMonthly(tables map[models.RateClass][]models.MonthlyRow) error
}

// RunWriter persists a whole report run and returns its id.
type RunWriter interface {
	Write(ctx context.Context, report *models.Report) (uuid.UUID, error)
	Close() error
}

var (
	_ WeeklyWriter  = (*CSVWriter)(nil)
	_ MonthlyWriter = (*ExcelWriter)(nil)
	_ RunWriter     = (*PostgresWriter)(nil)
)
