package services

import (
	"taxi-report/models"
	"taxi-report/utils"
)

// MonthlyAggregator breaks each month down by rate class and day type.
type MonthlyAggregator struct {
	logger *utils.Logger
}

func NewMonthlyAggregator(logger *utils.Logger) *MonthlyAggregator {
	return &MonthlyAggregator{logger: logger}
}

type cellKey struct {
	class   models.RateClass
	dayType models.DayType
}

// Aggregate builds one table per rate class in a single pass over each
// month's trips. A trip belongs to a month when it is picked up on or after
// the first day and dropped off on or before the last day. Rows follow month
// order, Weekday before Weekend; empty cells produce no row.
func (a *MonthlyAggregator) Aggregate(index TripIndex, months []models.MonthPeriod) models.MonthlyTables {
	tables := make(models.MonthlyTables, len(models.RateClasses))
	for _, class := range models.RateClasses {
		tables[class] = []models.MonthlyMetrics{}
	}

	for _, m := range months {
		from := dayStart(m.StartDay)
		cells := make(map[cellKey]*models.MonthlyMetrics)

		for _, t := range index.DroppedOffBetween(m.StartDay, m.EndDay) {
			if t.PickupTime.Before(from) {
				continue
			}
			key := cellKey{class: t.RateClass, dayType: t.DayType()}
			cell, ok := cells[key]
			if !ok {
				cell = &models.MonthlyMetrics{Month: m.Label, DayType: key.dayType}
				cells[key] = cell
			}
			cell.Services++
			cell.Distances += t.TripDistance
			cell.Passengers += t.PassengerCount
		}

		for _, class := range models.RateClasses {
			for _, dayType := range models.DayTypes {
				if cell, ok := cells[cellKey{class: class, dayType: dayType}]; ok {
					tables[class] = append(tables[class], *cell)
				}
			}
		}
		a.logger.Debug("[monthly] %s: %d class/day-type cells", m.Label, len(cells))
	}

	a.logger.Info("[monthly] Aggregated %d months (regular %d rows, airport %d rows, other %d rows)",
		len(months), len(tables[models.RateClassRegular]), len(tables[models.RateClassAirport]),
		len(tables[models.RateClassOther]))
	return tables
}
