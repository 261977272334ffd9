package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"taxi-report/models"
)

var monthlyHeader = []interface{}{"month", "day_type", "services", "distances", "passengers"}

// ExcelWriter writes the monthly report as a workbook with one sheet per
// rate class.
type ExcelWriter struct {
	path string
}

// NewExcelWriter prepares a writer for path, creating intermediate directories.
func NewExcelWriter(path string) (*ExcelWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("excel: create output dir: %w", err)
	}
	return &ExcelWriter{path: path}, nil
}

// WriteMonthly saves the Regular, JFK and Others sheets, each with a header
// row followed by one row per (month, day type).
func (e *ExcelWriter) WriteMonthly(tables map[models.RateClass][]models.MonthlyRow) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, class := range models.RateClasses {
		sheet := class.SheetName()
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("excel: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("excel: create sheet %s: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &monthlyHeader); err != nil {
			return fmt.Errorf("excel: write %s header: %w", sheet, err)
		}
		for r, row := range tables[class] {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("excel: %w", err)
			}
			values := []interface{}{row.YearMonth, row.DayType, row.Services, row.Distances, row.Passengers}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("excel: write %s row %d: %w", sheet, r+2, err)
			}
		}
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("excel: save %q: %w", e.path, err)
	}
	return nil
}

// Path returns the output file location.
func (e *ExcelWriter) Path() string {
	return e.path
}
