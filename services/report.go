package services

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/models"
	"taxi-report/utils"
)

// ReportService runs the cleaning and aggregation pipeline over an in-memory
// batch of raw trips.
type ReportService struct {
	logger  *utils.Logger
	cleaner *Cleaner
	weekly  *WeeklyAggregator
	monthly *MonthlyAggregator
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{
		logger:  logger,
		cleaner: NewCleaner(logger),
		weekly:  NewWeeklyAggregator(logger),
		monthly: NewMonthlyAggregator(logger),
	}
}

// Build cleans raw for [start, end] and produces the weekly and monthly
// report. An inverted range fails before any work is done; an empty batch
// yields an empty report.
func (s *ReportService) Build(raw []models.RawTrip, start, end civil.Date) (*models.Report, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("report %s..%s: %w", start, end, ErrInvalidRange)
	}
	if len(raw) == 0 {
		s.logger.Warn("[report] %v, reporting empty periods", ErrEmptyInput)
	}

	weeks, err := GenerateWeeks(start, end)
	if err != nil {
		return nil, err
	}
	months, err := GenerateMonths(start, end)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[report] Range %s..%s: %d weeks, %d months", start, end, len(weeks), len(months))

	trips, stats := s.cleaner.Clean(raw, start, end)
	store := NewTripStore(trips)

	weeks = s.weekly.Aggregate(store, weeks)
	tables := s.monthly.Aggregate(store, months)

	return &models.Report{
		StartDate:   start,
		EndDate:     end,
		GeneratedAt: time.Now(),
		RawCount:    len(raw),
		CleanCount:  store.Len(),
		Stats:       stats,
		Weeks:       weeks,
		Months:      months,
		Weekly:      FormatWeekly(weeks),
		Monthly:     FormatMonthly(tables),
	}, nil
}
