package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Summary holds min/max/mean of one trip attribute over a period.
type Summary struct {
	Min  float64
	Max  float64
	Mean float64
}

// WeekPeriod is a seven-day span ending on a Sunday, with its metrics once
// aggregated. Metric summaries are nil when no trip fell in the week.
type WeekPeriod struct {
	Label string
	Start civil.Date
	End   civil.Date

	TotalServices       int
	TripTime            *Summary
	TripDistance        *Summary
	TripAmount          *Summary
	PercentageVariation *float64
}

// MonthPeriod is one calendar month of the requested range.
type MonthPeriod struct {
	Label    string
	StartDay civil.Date
	EndDay   civil.Date
}

// MonthlyMetrics is the raw aggregate of one (month, day type) cell.
type MonthlyMetrics struct {
	Month      string
	DayType    DayType
	Services   int
	Distances  float64
	Passengers int
}

// MonthlyTables holds one table per rate class.
type MonthlyTables map[RateClass][]MonthlyMetrics

// WeeklyRow is the export shape of a week, rounded to 2 decimals.
type WeeklyRow struct {
	YearWeek            string   `db:"year_week"`
	MinTripTime         *float64 `db:"min_trip_time"`
	MaxTripTime         *float64 `db:"max_trip_time"`
	MeanTripTime        *float64 `db:"mean_trip_time"`
	MinTripDistance     *float64 `db:"min_trip_distance"`
	MaxTripDistance     *float64 `db:"max_trip_distance"`
	MeanTripDistance    *float64 `db:"mean_trip_distance"`
	MinTripAmount       *float64 `db:"min_trip_amount"`
	MaxTripAmount       *float64 `db:"max_trip_amount"`
	MeanTripAmount      *float64 `db:"mean_trip_amount"`
	TotalServices       int      `db:"total_services"`
	PercentageVariation *float64 `db:"percentage_variation"`
}

// MonthlyRow is the export shape of a monthly aggregate cell.
type MonthlyRow struct {
	YearMonth  string  `db:"year_month"`
	DayType    string  `db:"day_type"`
	Services   int     `db:"services"`
	Distances  float64 `db:"distances"`
	Passengers int     `db:"passengers"`
}

// CleanStats counts how many raw records each cleaning step removed.
type CleanStats struct {
	Input   int
	Output  int
	Dropped map[string]int
	Reasons []string
}

// Report is the full output of one pipeline run.
type Report struct {
	StartDate   civil.Date
	EndDate     civil.Date
	GeneratedAt time.Time

	RawCount   int
	CleanCount int
	Stats      CleanStats

	Weeks   []WeekPeriod
	Months  []MonthPeriod
	Weekly  []WeeklyRow
	Monthly map[RateClass][]MonthlyRow
}
