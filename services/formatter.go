package services

import (
	"github.com/shopspring/decimal"

	"taxi-report/models"
)

const reportPrecision = 2

// FormatWeekly shapes aggregated weeks into export rows, rounding every
// metric to two decimals. Missing metrics stay nil.
func FormatWeekly(weeks []models.WeekPeriod) []models.WeeklyRow {
	rows := make([]models.WeeklyRow, 0, len(weeks))
	for _, w := range weeks {
		row := models.WeeklyRow{
			YearWeek:            w.Label,
			TotalServices:       w.TotalServices,
			PercentageVariation: roundPtr(w.PercentageVariation),
		}
		if s := w.TripTime; s != nil {
			row.MinTripTime, row.MaxTripTime, row.MeanTripTime = roundSummary(s)
		}
		if s := w.TripDistance; s != nil {
			row.MinTripDistance, row.MaxTripDistance, row.MeanTripDistance = roundSummary(s)
		}
		if s := w.TripAmount; s != nil {
			row.MinTripAmount, row.MaxTripAmount, row.MeanTripAmount = roundSummary(s)
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatMonthly flattens the per-class tables into export rows.
func FormatMonthly(tables models.MonthlyTables) map[models.RateClass][]models.MonthlyRow {
	out := make(map[models.RateClass][]models.MonthlyRow, len(models.RateClasses))
	for _, class := range models.RateClasses {
		rows := make([]models.MonthlyRow, 0, len(tables[class]))
		for _, m := range tables[class] {
			rows = append(rows, models.MonthlyRow{
				YearMonth:  m.Month,
				DayType:    m.DayType.String(),
				Services:   m.Services,
				Distances:  Round2(m.Distances),
				Passengers: m.Passengers,
			})
		}
		out[class] = rows
	}
	return out
}

// Round2 rounds half to even at two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(reportPrecision).Float64()
	return f
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

func roundSummary(s *models.Summary) (min, max, mean *float64) {
	return roundPtr(&s.Min), roundPtr(&s.Max), roundPtr(&s.Mean)
}
