package services

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/models"
)

// GenerateWeeks returns every Sunday-ending week whose Sunday lies in
// [start, end]. A leading week that starts before start is dropped, so the
// first reported week always begins exactly on start.
func GenerateWeeks(start, end civil.Date) ([]models.WeekPeriod, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("weeks %s..%s: %w", start, end, ErrInvalidRange)
	}

	var weeks []models.WeekPeriod
	for sunday := firstSunday(start); !end.Before(sunday); sunday = sunday.AddDays(7) {
		weeks = append(weeks, models.WeekPeriod{
			Label: weekLabel(sunday),
			Start: sunday.AddDays(-6),
			End:   sunday,
		})
	}

	if len(weeks) > 0 && weeks[0].Start != start {
		weeks = weeks[1:]
	}
	return weeks, nil
}

// GenerateMonths returns one period per month whose first day lies in
// [start, end], each spanning its whole calendar month.
func GenerateMonths(start, end civil.Date) ([]models.MonthPeriod, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("months %s..%s: %w", start, end, ErrInvalidRange)
	}

	first := civil.Date{Year: start.Year, Month: start.Month, Day: 1}
	if first.Before(start) {
		first = addMonth(first)
	}

	var months []models.MonthPeriod
	for day := first; !end.Before(day); day = addMonth(day) {
		next := addMonth(day)
		months = append(months, models.MonthPeriod{
			Label:    fmt.Sprintf("%04d-%02d", day.Year, int(day.Month)),
			StartDay: day,
			EndDay:   next.AddDays(-1),
		})
	}
	return months, nil
}

func firstSunday(d civil.Date) civil.Date {
	offset := (int(time.Sunday) - int(d.In(time.UTC).Weekday()) + 7) % 7
	return d.AddDays(offset)
}

// weekLabel formats the ISO week-year and zero-padded ISO week of d.
func weekLabel(d civil.Date) string {
	year, week := d.In(time.UTC).ISOWeek()
	return fmt.Sprintf("%d-%03d", year, week)
}

// addMonth moves a first-of-month date to the first of the following month.
func addMonth(d civil.Date) civil.Date {
	if d.Month == time.December {
		return civil.Date{Year: d.Year + 1, Month: time.January, Day: 1}
	}
	return civil.Date{Year: d.Year, Month: d.Month + 1, Day: 1}
}
