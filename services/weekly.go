package services

import (
	"cloud.google.com/go/civil"

	"taxi-report/models"
	"taxi-report/utils"
)

// TripIndex answers drop-off range queries over cleaned trips.
type TripIndex interface {
	DroppedOffBetween(first, last civil.Date) []models.Trip
}

// WeeklyAggregator computes per-week trip metrics and week-over-week variation.
type WeeklyAggregator struct {
	logger *utils.Logger
}

func NewWeeklyAggregator(logger *utils.Logger) *WeeklyAggregator {
	return &WeeklyAggregator{logger: logger}
}

// Aggregate fills in the metrics of each week from the trips dropped off
// within it. weeks must be in chronological order; the input slice is not
// modified.
func (a *WeeklyAggregator) Aggregate(index TripIndex, weeks []models.WeekPeriod) []models.WeekPeriod {
	result := make([]models.WeekPeriod, len(weeks))

	for i, w := range weeks {
		trips := index.DroppedOffBetween(w.Start, w.End)

		var tripTime, distance, amount accumulator
		for _, t := range trips {
			tripTime.add(t.Duration().Seconds())
			distance.add(t.TripDistance)
			amount.add(t.TotalAmount)
		}

		w.TotalServices = len(trips)
		w.TripTime = tripTime.summary()
		w.TripDistance = distance.summary()
		w.TripAmount = amount.summary()
		w.PercentageVariation = nil
		if i > 0 {
			w.PercentageVariation = percentageVariation(result[i-1].TotalServices, w.TotalServices)
		}
		result[i] = w

		a.logger.Debug("[weekly] %s (%s..%s): %d services", w.Label, w.Start, w.End, w.TotalServices)
	}

	a.logger.Info("[weekly] Aggregated %d weeks", len(result))
	return result
}

// percentageVariation is the relative change from prev to cur in percent, or
// nil when prev is zero.
func percentageVariation(prev, cur int) *float64 {
	if prev == 0 {
		return nil
	}
	v := float64(cur-prev) / float64(prev) * 100
	return &v
}

// accumulator tracks min, max and running sum of a series.
type accumulator struct {
	n        int
	min, max float64
	sum      float64
}

func (a *accumulator) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *accumulator) summary() *models.Summary {
	if a.n == 0 {
		return nil
	}
	return &models.Summary{Min: a.min, Max: a.max, Mean: a.sum / float64(a.n)}
}
