package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"taxi-report/models"
)

const csvSeparator = '|'

var weeklyHeader = []string{
	"year_week",
	"min_trip_time", "max_trip_time", "mean_trip_time",
	"min_trip_distance", "max_trip_distance", "mean_trip_distance",
	"min_trip_amount", "max_trip_amount", "mean_trip_amount",
	"total_services", "percentage_variation",
}

// CSVWriter writes the weekly report as a '|'-delimited file with a header
// row and no index column.
type CSVWriter struct {
	path string
}

// NewCSVWriter prepares a writer for path, creating intermediate directories.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// WriteWeekly creates (or truncates) the file and writes every row.
// Missing metrics are written as empty fields.
func (c *CSVWriter) WriteWeekly(rows []models.WeeklyRow) (err error) {
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("csv: close %q: %w", c.path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = csvSeparator

	if err := w.Write(weeklyHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.YearWeek,
			formatFloat(r.MinTripTime), formatFloat(r.MaxTripTime), formatFloat(r.MeanTripTime),
			formatFloat(r.MinTripDistance), formatFloat(r.MaxTripDistance), formatFloat(r.MeanTripDistance),
			formatFloat(r.MinTripAmount), formatFloat(r.MaxTripAmount), formatFloat(r.MeanTripAmount),
			strconv.Itoa(r.TotalServices),
			formatFloat(r.PercentageVariation),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write row %s: %w", r.YearWeek, err)
		}
	}

	w.Flush()
	return w.Error()
}

// Path returns the output file location.
func (c *CSVWriter) Path() string {
	return c.path
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
